// Package spans groups per-line classes into the minimal run of styled
// blocks a rendered file needs.
package spans

import "github.com/jupierce/covreport/pkg/colorscale"

// Span covers the 1-indexed inclusive line range [Start, End] painted with
// Class. A span with colorscale.None carries no markup.
type Span struct {
	Class colorscale.Class
	Start int
	End   int
}

// Styled reports whether the span needs wrapping markup.
func (s Span) Styled() bool {
	return s.Class != colorscale.None
}

// Group merges adjacent lines that share a class. It makes a single
// forward pass and never merges lines separated by a different class.
func Group(classes []colorscale.Class) []Span {
	var out []Span
	for i, c := range classes {
		line := i + 1
		if n := len(out); n > 0 && out[n-1].Class == c {
			out[n-1].End = line
			continue
		}
		out = append(out, Span{Class: c, Start: line, End: line})
	}
	return out
}
