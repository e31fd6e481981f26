package xref

import (
	"fmt"
	"html"
	"strings"

	"github.com/jupierce/covreport/pkg/coverage"
)

// HTMLStyle renders references as a collapsible block under the line,
// toggled by clicking the line text.
type HTMLStyle struct {
	// Ext is the extension of the per-file pages links point to.
	Ext string
	idx int
}

func (s *HTMLStyle) CallsTitle() string    { return "Calls" }
func (s *HTMLStyle) CalledByTitle() string { return "Called by" }

func (s *HTMLStyle) CallsLabel(ref coverage.CallSite) string {
	where := External
	if ref.File != "" {
		where = fmt.Sprintf("at %s:%d", ref.File, ref.Line)
	}
	return fmt.Sprintf("%7d   %s#%s %s", ref.Count, ref.Class, ref.Method, where)
}

func (s *HTMLStyle) CalledByLabel(ref coverage.CallSite) string {
	file := ref.File
	if file == "" {
		file = External
	}
	return fmt.Sprintf("%7d   %s:%d in '%s#%s'", ref.Count, file, ref.Line, ref.Class, ref.Method)
}

func (s *HTMLStyle) Plain(text string, _ coverage.Mark) string {
	return html.EscapeString(text)
}

func (s *HTMLStyle) Render(text string, blocks []Block) string {
	s.idx++
	id := fmt.Sprintf("XREF-%d", s.idx)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<a class="crossref-toggle" href="#" onclick="toggleCode('%s'); return false;">%s</a>`, id, html.EscapeString(text))
	fmt.Fprintf(&sb, `<span class="cross-ref" id="%s">`+"\n", id)
	for _, b := range blocks {
		if b.Title != "" {
			fmt.Fprintf(&sb, `<span class="cross-ref-title">%s</span>`+"\n", html.EscapeString(b.Title))
		}
		for _, e := range b.Entries {
			label := html.EscapeString(e.Label)
			if e.Linked {
				fmt.Fprintf(&sb, `<a href="%s#line%d">%s</a>`, coverage.MangleName(e.File, s.Ext), e.Line, label)
			} else {
				sb.WriteString(label)
			}
			sb.WriteString("\n")
		}
	}
	sb.WriteString("</span>")
	return sb.String()
}

// TextStyle renders references as a trailing comment after the source
// line. Linked references are wrapped in [[ ]].
type TextStyle struct {
	// Ext is the extension of the annotated files labels refer to.
	Ext string
	// Width pads the source text before the comment.
	Width int
}

func (s *TextStyle) width() int {
	if s.Width > 0 {
		return s.Width
	}
	return 75
}

func (s *TextStyle) CallsTitle() string    { return ">>" }
func (s *TextStyle) CalledByTitle() string { return "<<" }

func (s *TextStyle) CallsLabel(ref coverage.CallSite) string {
	if ref.File == "" {
		return fmt.Sprintf("%s#%s %s", ref.Class, ref.Method, External)
	}
	return fmt.Sprintf("%s#%s at %s:%d", ref.Class, ref.Method, coverage.MangleName(ref.File, s.Ext), ref.Line)
}

func (s *TextStyle) CalledByLabel(ref coverage.CallSite) string {
	where := External
	if ref.File != "" {
		where = coverage.MangleName(ref.File, s.Ext)
	}
	return fmt.Sprintf("%s:%d in %s#%s", where, ref.Line, ref.Class, ref.Method)
}

func (s *TextStyle) Plain(text string, mark coverage.Mark) string {
	if mark.Run() {
		return fmt.Sprintf("%-*s //o", s.width(), text)
	}
	return text
}

func (s *TextStyle) Render(text string, blocks []Block) string {
	var parts []string
	for _, b := range blocks {
		var entries []string
		for _, e := range b.Entries {
			if e.Linked {
				entries = append(entries, "[["+e.Label+"]]")
			} else {
				entries = append(entries, e.Label)
			}
		}
		part := strings.Join(entries, ", ")
		if b.Title != "" {
			part = b.Title + " " + part
		}
		parts = append(parts, part)
	}
	return fmt.Sprintf("%-*s // %s", s.width(), text, strings.Join(parts, " "))
}
