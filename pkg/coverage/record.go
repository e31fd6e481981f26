package coverage

import (
	"fmt"
	"strings"
)

// Mark is the coverage state of a single source line.
type Mark int

const (
	Uncovered Mark = iota
	Covered
	// Inferred lines were not executed directly but are considered run
	// because the code around them was.
	Inferred
)

var markNames = map[Mark]string{
	Uncovered: "uncovered",
	Covered:   "covered",
	Inferred:  "inferred",
}

func (m Mark) String() string {
	if s, ok := markNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mark(%d)", int(m))
}

// Run reports whether the line counts towards coverage.
func (m Mark) Run() bool {
	return m == Covered || m == Inferred
}

// ParseMark parses "covered", "inferred" or "uncovered".
func ParseMark(s string) (Mark, error) {
	for m, name := range markNames {
		if name == s {
			return m, nil
		}
	}
	return Uncovered, fmt.Errorf("invalid mark %q (valid: covered, inferred, uncovered)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mark) UnmarshalText(b []byte) error {
	v, err := ParseMark(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// FileRecord holds the coverage data of one traced source file.
// Lines, Marks and Counts are aligned 1:1; a zero count means no count was
// recorded. Code flags executable lines; when nil every non-blank line is code.
type FileRecord struct {
	Name   string
	Lines  []string
	Marks  []Mark
	Counts []int
	Code   []bool
}

// Validate checks the alignment invariants.
func (f *FileRecord) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("file record without name")
	}
	n := len(f.Lines)
	if len(f.Marks) != n || len(f.Counts) != n {
		return fmt.Errorf("%s: %d lines, %d marks, %d counts", f.Name, n, len(f.Marks), len(f.Counts))
	}
	if f.Code != nil && len(f.Code) != n {
		return fmt.Errorf("%s: %d lines, %d code flags", f.Name, n, len(f.Code))
	}
	for i, c := range f.Counts {
		if c < 0 {
			return fmt.Errorf("%s:%d: negative count %d", f.Name, i+1, c)
		}
	}
	return nil
}

func (f *FileRecord) NumLines() int {
	return len(f.Lines)
}

// IsCode reports whether line i (0-based) is executable code.
func (f *FileRecord) IsCode(i int) bool {
	if f.Code != nil {
		return f.Code[i]
	}
	return strings.TrimSpace(f.Lines[i]) != ""
}

func (f *FileRecord) NumCodeLines() int {
	n := 0
	for i := range f.Lines {
		if f.IsCode(i) {
			n++
		}
	}
	return n
}

// CoveredLines counts covered or inferred lines.
func (f *FileRecord) CoveredLines() int {
	n := 0
	for _, m := range f.Marks {
		if m.Run() {
			n++
		}
	}
	return n
}

// CoveredCodeLines counts covered or inferred code lines.
func (f *FileRecord) CoveredCodeLines() int {
	n := 0
	for i, m := range f.Marks {
		if m.Run() && f.IsCode(i) {
			n++
		}
	}
	return n
}

// TotalCoverage is the ratio of run lines to all lines; 0 for an empty file.
func (f *FileRecord) TotalCoverage() float64 {
	if len(f.Lines) == 0 {
		return 0
	}
	return float64(f.CoveredLines()) / float64(len(f.Lines))
}

// CodeCoverage is the ratio of run code lines to code lines; 1 when the
// file has no code at all.
func (f *FileRecord) CodeCoverage() float64 {
	code := f.NumCodeLines()
	if code == 0 {
		return 1
	}
	return float64(f.CoveredCodeLines()) / float64(code)
}

// BelowPercent reports whether covered/total is strictly below pct percent,
// using integer arithmetic. An empty total counts as 100%.
func BelowPercent(covered, total, pct int) bool {
	if total == 0 {
		return 100 < pct
	}
	return covered*100 < pct*total
}

// MarkCommentsRun applies the comments-run-by-default policy: every non-code
// line that is uncovered becomes inferred. Records are modified in place.
func MarkCommentsRun(records []*FileRecord) {
	for _, rec := range records {
		for i := range rec.Marks {
			if rec.Marks[i] == Uncovered && !rec.IsCode(i) {
				rec.Marks[i] = Inferred
			}
		}
	}
}
