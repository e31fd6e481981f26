package snapshot

import (
	"sort"

	"github.com/jupierce/covreport/pkg/coverage"
)

// Status describes how a file changed between two snapshots.
type Status string

const (
	Unchanged Status = "unchanged"
	Changed   Status = "changed"
	Added     Status = "added"
	Removed   Status = "removed"
)

// FileDelta is the per-file outcome of a comparison. Before is nil for added
// files and After is nil for removed ones.
type FileDelta struct {
	Name   string
	Status Status
	Before *coverage.FileRecord
	After  *coverage.FileRecord
	// NewlyUncovered lists the 1-based line numbers in After whose code is
	// uncovered now but was not uncovered in Before.
	NewlyUncovered []int
}

// Delta is the result of comparing current records with a saved snapshot.
type Delta struct {
	Before coverage.Summary
	After  coverage.Summary
	Files  []FileDelta
}

// CodeCoverageDelta is the change in aggregate code coverage.
func (d Delta) CodeCoverageDelta() float64 {
	return d.After.CodeCoverage() - d.Before.CodeCoverage()
}

// MatchRatio is the share of files present in either side whose uncovered
// code is identical. Comparing a snapshot with itself gives 1.
func (d Delta) MatchRatio() float64 {
	if len(d.Files) == 0 {
		return 1
	}
	n := 0
	for _, f := range d.Files {
		if f.Status == Unchanged {
			n++
		}
	}
	return float64(n) / float64(len(d.Files))
}

// Changed returns the deltas that are not Unchanged.
func (d Delta) Changed() []FileDelta {
	var out []FileDelta
	for _, f := range d.Files {
		if f.Status != Unchanged {
			out = append(out, f)
		}
	}
	return out
}

// Uncovered returns the text of the uncovered code lines of rec, in order.
// A nil record yields nil.
func Uncovered(rec *coverage.FileRecord) []string {
	if rec == nil {
		return nil
	}
	var out []string
	for i, line := range rec.Lines {
		if rec.IsCode(i) && rec.Marks[i] == coverage.Uncovered {
			out = append(out, line)
		}
	}
	return out
}

// Compare matches current against prev by file name. Files are considered
// unchanged when their uncovered code lines are the same, so a line shift
// alone does not count as a change.
func Compare(prev *Snapshot, current []*coverage.FileRecord) Delta {
	d := Delta{Before: prev.Summary, After: coverage.Summarize(current)}

	seen := make(map[string]bool, len(current))
	for _, rec := range current {
		seen[rec.Name] = true
		before, ok := prev.Files[rec.Name]
		if !ok {
			d.Files = append(d.Files, FileDelta{Name: rec.Name, Status: Added, After: rec, NewlyUncovered: uncoveredLineNumbers(rec, nil)})
			continue
		}
		fd := FileDelta{Name: rec.Name, Status: Unchanged, Before: before, After: rec}
		if !equalLines(Uncovered(before), Uncovered(rec)) {
			fd.Status = Changed
			fd.NewlyUncovered = uncoveredLineNumbers(rec, before)
		}
		d.Files = append(d.Files, fd)
	}
	for name, before := range prev.Files {
		if !seen[name] {
			d.Files = append(d.Files, FileDelta{Name: name, Status: Removed, Before: before})
		}
	}

	sort.Slice(d.Files, func(i, j int) bool { return d.Files[i].Name < d.Files[j].Name })
	return d
}

// uncoveredLineNumbers reports the uncovered code lines of rec whose text
// does not appear among the uncovered code lines of before, respecting
// multiplicity.
func uncoveredLineNumbers(rec, before *coverage.FileRecord) []int {
	budget := make(map[string]int)
	for _, line := range Uncovered(before) {
		budget[line]++
	}
	var out []int
	for i, line := range rec.Lines {
		if !rec.IsCode(i) || rec.Marks[i] != coverage.Uncovered {
			continue
		}
		if budget[line] > 0 {
			budget[line]--
			continue
		}
		out = append(out, i+1)
	}
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
