// Package colorscale maps per-line coverage marks and execution counts to
// the CSS class used to paint the line.
package colorscale

import (
	"fmt"
	"math"
	"sort"

	"github.com/jupierce/covreport/pkg/coverage"
)

// Class is a visual-intensity identifier. None leaves the line unstyled.
type Class string

const None Class = ""

// DefaultRangeDB is the default full-scale range of the profiling scale.
const DefaultRangeDB = 30.0

// Classifier assigns a class to each line of a file. Implementations may
// keep per-run state and are not safe for concurrent use.
type Classifier interface {
	LineClass(rec *coverage.FileRecord, i int) Class
	// Reset drops state carried over from earlier calls.
	Reset()
}

// Classes runs c over every line of rec.
func Classes(c Classifier, rec *coverage.FileRecord) []Class {
	out := make([]Class, rec.NumLines())
	for i := range out {
		out[i] = c.LineClass(rec, i)
	}
	return out
}

// Toggle is the coverage-mode classifier. Each line is painted with its
// category (marked, inferred or uncovered) and a bit that flips whenever the
// category changes from the previous line, so neighbouring blocks stay
// distinguishable.
type Toggle struct {
	file string
	prev string
	bit  int
}

// NewToggle creates a coverage-mode classifier.
func NewToggle() *Toggle {
	return &Toggle{}
}

func category(m coverage.Mark) string {
	switch m {
	case coverage.Covered:
		return "marked"
	case coverage.Inferred:
		return "inferred"
	default:
		return "uncovered"
	}
}

// Reset forgets the current file and toggle bit.
func (t *Toggle) Reset() {
	*t = Toggle{}
}

// LineClass returns the toggled category class of line i.
func (t *Toggle) LineClass(rec *coverage.FileRecord, i int) Class {
	if rec.Name != t.file || i == 0 {
		t.file = rec.Name
		t.prev = ""
		t.bit = 0
	}
	cat := category(rec.Marks[i])
	if t.prev != "" && cat != t.prev {
		t.bit ^= 1
	}
	t.prev = cat
	return Class(fmt.Sprintf("%s%d", cat, t.bit))
}

// FileScale holds the per-file reference points of the profiling scale.
type FileScale struct {
	Max    float64
	Median float64
}

// Profile is the profiling-mode classifier: covered lines get a "runN"
// class on a logarithmic scale centred on the file's median count. The
// per-file max and median are memoised for the lifetime of the value, which
// must not outlive one report run.
type Profile struct {
	rangeDB float64
	scales  map[string]FileScale
}

// NewProfile creates a profiling classifier. A non-positive rangeDB selects
// DefaultRangeDB.
func NewProfile(rangeDB float64) *Profile {
	if rangeDB <= 0 {
		rangeDB = DefaultRangeDB
	}
	return &Profile{rangeDB: rangeDB, scales: make(map[string]FileScale)}
}

// Reset drops the memoised per-file scales.
func (p *Profile) Reset() {
	clear(p.scales)
}

func (p *Profile) scale(rec *coverage.FileRecord) FileScale {
	if s, ok := p.scales[rec.Name]; ok {
		return s
	}
	s := Scale(rec.Counts)
	p.scales[rec.Name] = s
	return s
}

// Scale computes the max and lower median of the non-zero counts, with a
// sentinel 1 appended so the set is never empty. A max of 1 is widened to 2.
func Scale(counts []int) FileScale {
	nz := make([]int, 0, len(counts)+1)
	for _, c := range counts {
		if c != 0 {
			nz = append(nz, c)
		}
	}
	nz = append(nz, 1)
	sort.Ints(nz)

	max := float64(nz[len(nz)-1])
	if max == 1 {
		max = 2
	}
	return FileScale{Max: max, Median: float64(nz[len(nz)/2])}
}

// LineClass returns the run class of a covered line and None otherwise.
func (p *Profile) LineClass(rec *coverage.FileRecord, i int) Class {
	if rec.Marks[i] != coverage.Covered {
		return None
	}
	s := p.scale(rec)
	return RunClass(ScaleIndex(rec.Counts[i], s.Median, p.rangeDB))
}

// ScaleIndex places count on the 0..100 intensity scale, 50 being the median.
// A zero count is treated as 1.
func ScaleIndex(count int, median, rangeDB float64) int {
	if count <= 0 {
		count = 1
	}
	idx := int(50 + (500/rangeDB)*math.Log10(float64(count)/median))
	if idx < 0 {
		return 0
	}
	if idx > 100 {
		return 100
	}
	return idx
}

// RunClass names the intensity class for idx.
func RunClass(idx int) Class {
	return Class(fmt.Sprintf("run%d", idx))
}
