// Package xref turns the call-graph references of a source line into
// navigable annotations. A reference becomes a link only when its target
// file is part of the report being rendered.
package xref

import (
	"github.com/jupierce/covreport/pkg/coverage"
)

// External replaces the location of references into untraced code.
const External = "(native/external)"

// Entry is one rendered reference.
type Entry struct {
	Label string
	// File is the normalized target file, empty for external code.
	File   string
	Line   int
	Linked bool
}

// Block is one group of references with its title.
type Block struct {
	Title   string
	Entries []Entry
}

// Style formats references for one output mode. Implementations may number
// their output and must not be shared between concurrent runs.
type Style interface {
	CallsTitle() string
	CalledByTitle() string
	CallsLabel(ref coverage.CallSite) string
	CalledByLabel(ref coverage.CallSite) string
	// Plain renders a line that has no references.
	Plain(text string, mark coverage.Mark) string
	// Render renders a line together with its reference blocks.
	Render(text string, blocks []Block) string
}

// Options selects which reference groups are rendered.
type Options struct {
	// Calls renders the definitions of methods called from the line.
	Calls bool
	// CalledBy renders the callers of the method defined at the line.
	CalledBy bool
}

// Resolver decides which references of a line are rendered and which of
// them become links.
type Resolver struct {
	analyzer coverage.Analyzer
	known    map[string]bool
	opts     Options
	style    Style
}

// New builds a resolver. known lists the files present in the current
// report; a nil analyzer disables references altogether.
func New(analyzer coverage.Analyzer, known []string, opts Options, style Style) *Resolver {
	set := make(map[string]bool, len(known))
	for _, name := range known {
		set[coverage.NormalizeName(name)] = true
	}
	return &Resolver{analyzer: analyzer, known: set, opts: opts, style: style}
}

// Known reports whether file is part of the current report.
func (r *Resolver) Known(file string) bool {
	return file != "" && r.known[coverage.NormalizeName(file)]
}

// Blocks returns the non-empty reference groups of file:line, Calls first.
func (r *Resolver) Blocks(file string, line int) []Block {
	if r.analyzer == nil {
		return nil
	}
	var blocks []Block
	if r.opts.Calls {
		if b, ok := r.block(r.style.CallsTitle(), r.analyzer.DefSites(file, line), r.style.CallsLabel); ok {
			blocks = append(blocks, b)
		}
	}
	if r.opts.CalledBy {
		if b, ok := r.block(r.style.CalledByTitle(), r.analyzer.CallSites(file, line), r.style.CalledByLabel); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func (r *Resolver) block(title string, refs []coverage.CallSite, label func(coverage.CallSite) string) (Block, bool) {
	if len(refs) == 0 {
		return Block{}, false
	}
	sites := make([]coverage.CallSite, len(refs))
	for i, ref := range refs {
		ref.File = coverage.NormalizeName(ref.File)
		sites[i] = ref
	}
	coverage.SortSites(sites)

	b := Block{Title: title}
	for _, ref := range sites {
		b.Entries = append(b.Entries, Entry{
			Label:  label(ref),
			File:   ref.File,
			Line:   ref.Line,
			Linked: r.Known(ref.File),
		})
	}
	return b, true
}

// Annotate renders text for file:line with its references, or as plain
// text when there are none.
func (r *Resolver) Annotate(file string, line int, text string, mark coverage.Mark) string {
	blocks := r.Blocks(file, line)
	if len(blocks) == 0 {
		return r.style.Plain(text, mark)
	}
	return r.style.Render(text, blocks)
}
