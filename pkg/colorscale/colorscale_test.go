package colorscale

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupierce/covreport/pkg/coverage"
)

func rec(name string, marks []coverage.Mark, counts []int) *coverage.FileRecord {
	lines := make([]string, len(marks))
	for i := range lines {
		lines[i] = "x"
	}
	return &coverage.FileRecord{Name: name, Lines: lines, Marks: marks, Counts: counts}
}

func TestToggleFlipsOnCategoryChange(t *testing.T) {
	C, I, U := coverage.Covered, coverage.Inferred, coverage.Uncovered
	r := rec("a.go", []coverage.Mark{C, C, U, U, C, I, I}, make([]int, 7))

	got := Classes(NewToggle(), r)
	assert.Equal(t, []Class{
		"marked0", "marked0", "uncovered1", "uncovered1", "marked0", "inferred1", "inferred1",
	}, got)
}

func TestToggleResetsPerFile(t *testing.T) {
	tg := NewToggle()
	a := rec("a.go", []coverage.Mark{coverage.Covered, coverage.Uncovered}, []int{0, 0})
	b := rec("b.go", []coverage.Mark{coverage.Uncovered}, []int{0})

	Classes(tg, a)
	assert.Equal(t, []Class{"uncovered0"}, Classes(tg, b))
}

func TestProfileTwoLineExample(t *testing.T) {
	r := &coverage.FileRecord{
		Name:   "f.rb",
		Lines:  []string{"def f", "end"},
		Marks:  []coverage.Mark{coverage.Covered, coverage.Uncovered},
		Counts: []int{3, 0},
	}
	got := Classes(NewProfile(30), r)
	assert.Equal(t, []Class{"run50", None}, got)

	s := Scale(r.Counts)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 3.0, s.Max)
}

func TestProfileOnlyColorsCoveredLines(t *testing.T) {
	r := rec("a.go", []coverage.Mark{coverage.Inferred, coverage.Uncovered}, []int{5, 5})
	assert.Equal(t, []Class{None, None}, Classes(NewProfile(30), r))
}

func TestScaleDegenerateCases(t *testing.T) {
	s := Scale([]int{0, 0, 0})
	assert.Equal(t, 1.0, s.Median)
	assert.Equal(t, 2.0, s.Max)

	s = Scale(nil)
	assert.Equal(t, 1.0, s.Median)

	// lower median: sorted [1, 2, 8, 9] -> element 2
	s = Scale([]int{9, 2, 8})
	assert.Equal(t, 8.0, s.Median)
	assert.Equal(t, 9.0, s.Max)
}

func TestScaleIndexBounds(t *testing.T) {
	assert.Equal(t, 50, ScaleIndex(0, 1, 30))
	assert.Equal(t, 100, ScaleIndex(1000000, 1, 30))
	assert.Equal(t, 0, ScaleIndex(1, 1000000, 30))
	// one decade above the median at 30dB is 50 + 500/30
	assert.Equal(t, 66, ScaleIndex(10, 1, 30))

	for _, count := range []int{0, 1, 2, 7, 99, 12345, 1 << 30} {
		for _, median := range []float64{1, 2, 50, 1e6} {
			idx := ScaleIndex(count, median, 30)
			assert.GreaterOrEqual(t, idx, 0)
			assert.LessOrEqual(t, idx, 100)
		}
	}
}

func TestProfileMemoisesPerFile(t *testing.T) {
	p := NewProfile(30)
	r := rec("a.go", []coverage.Mark{coverage.Covered}, []int{4})
	p.LineClass(r, 0)
	require.Contains(t, p.scales, "a.go")
	assert.Equal(t, 4.0, p.scales["a.go"].Median)

	p.Reset()
	assert.Empty(t, p.scales)
}

func TestRamp(t *testing.T) {
	mono := Ramp(false)
	assert.Equal(t, RGB{255, 255, 255}, mono[0])
	assert.Equal(t, RGB{155, 155, 155}, mono[100])

	color := Ramp(true)
	assert.Equal(t, RGB{255, 178, 178}, color[100])
}

func TestHSVToRGB(t *testing.T) {
	r, g, b := HSVToRGB(120, 0, 0.5)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, []float64{r, g, b})

	r, g, b = HSVToRGB(120, 1, 1)
	assert.InDelta(t, 0, r, 1e-9)
	assert.InDelta(t, 1, g, 1e-9)
	assert.InDelta(t, 0, b, 1e-9)
}

func TestStylesheetCoversAllClasses(t *testing.T) {
	css := Stylesheet(true)
	assert.Equal(t, 101, strings.Count(css, "span.run"))
	assert.Contains(t, css, "span.run0 {")
	assert.Contains(t, css, "span.run100 {")
}
