package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name string, marks ...Mark) *FileRecord {
	rec := &FileRecord{Name: name}
	for i, m := range marks {
		rec.Lines = append(rec.Lines, "line")
		rec.Marks = append(rec.Marks, m)
		rec.Counts = append(rec.Counts, i)
	}
	return rec
}

func TestFileRecordRatios(t *testing.T) {
	rec := &FileRecord{
		Name:   "pkg/a.go",
		Lines:  []string{"func a() {", "", "	x()", "}"},
		Marks:  []Mark{Covered, Inferred, Uncovered, Inferred},
		Counts: []int{1, 0, 0, 0},
		Code:   []bool{true, false, true, false},
	}
	require.NoError(t, rec.Validate())

	assert.Equal(t, 4, rec.NumLines())
	assert.Equal(t, 2, rec.NumCodeLines())
	assert.Equal(t, 3, rec.CoveredLines())
	assert.InDelta(t, 0.75, rec.TotalCoverage(), 1e-9)
	assert.InDelta(t, 0.5, rec.CodeCoverage(), 1e-9)
}

func TestFileRecordDegenerateRatios(t *testing.T) {
	empty := &FileRecord{Name: "empty.go"}
	assert.Equal(t, 0.0, empty.TotalCoverage())
	assert.Equal(t, 1.0, empty.CodeCoverage())

	blank := &FileRecord{Name: "blank.go", Lines: []string{"", "  "}, Marks: []Mark{Uncovered, Uncovered}, Counts: []int{0, 0}}
	assert.Equal(t, 0, blank.NumCodeLines())
	assert.Equal(t, 1.0, blank.CodeCoverage())
}

func TestValidateRejectsMisalignedRecords(t *testing.T) {
	rec := &FileRecord{Name: "a.go", Lines: []string{"x"}, Marks: []Mark{Covered}}
	assert.Error(t, rec.Validate())

	rec.Counts = []int{-1}
	assert.Error(t, rec.Validate())

	rec.Counts = []int{2}
	assert.NoError(t, rec.Validate())
}

func TestBelowPercentIsExact(t *testing.T) {
	assert.False(t, BelowPercent(29, 100, 29), "29/100 meets 29%")
	assert.True(t, BelowPercent(28, 100, 29))
	assert.False(t, BelowPercent(1, 3, 33))
	assert.True(t, BelowPercent(1, 3, 34))
	assert.True(t, BelowPercent(0, 0, 101), "no code counts as 100%")
	assert.False(t, BelowPercent(0, 0, 100))
}

func TestSummarizeIsWeighted(t *testing.T) {
	small := record("small.go", Covered)
	big := record("big.go", Uncovered, Uncovered, Uncovered, Covered)

	s := Summarize([]*FileRecord{small, big})
	assert.Equal(t, 2, s.Files)
	assert.Equal(t, 5, s.NumLines)
	assert.InDelta(t, 2.0/5.0, s.TotalCoverage(), 1e-9)
	assert.InDelta(t, 2.0/5.0, s.CodeCoverage(), 1e-9)

	avg := (small.TotalCoverage() + big.TotalCoverage()) / 2
	assert.NotEqual(t, avg, s.TotalCoverage())
}

func TestSortReverseIsExactReversal(t *testing.T) {
	recs := []*FileRecord{
		record("c.go", Covered, Uncovered),
		record("a.go", Covered, Uncovered),
		record("b.go", Covered),
		record("d.go", Uncovered),
	}

	asc := Sort(recs, SortByCoverage, false)
	desc := Sort(recs, SortByCoverage, true)
	require.Len(t, desc, len(asc))
	for i := range asc {
		assert.Same(t, asc[i], desc[len(desc)-1-i])
	}

	var names []string
	for _, r := range asc {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"d.go", "a.go", "c.go", "b.go"}, names)
	assert.Equal(t, "c.go", recs[0].Name, "input must not be reordered")
}

func TestSortByLOC(t *testing.T) {
	recs := []*FileRecord{record("x.go", Covered, Covered), record("y.go", Covered)}
	out := Sort(recs, SortByLOC, false)
	assert.Equal(t, "y.go", out[0].Name)
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortByName, k)

	_, err = ParseSortKey("size")
	assert.Error(t, err)
}

func TestPatterns(t *testing.T) {
	_, err := CompilePatterns([]string{"ok", "(unclosed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(unclosed")

	_, err = CompilePatterns([]string{"glob:[a"})
	require.Error(t, err)

	exclude, err := CompilePatterns(DefaultExcludes)
	require.NoError(t, err)
	include, err := CompilePatterns([]string{"glob:keep/**"})
	require.NoError(t, err)

	recs := []*FileRecord{
		record("pkg/a.go"), record("pkg/a_test.go"), record("vendor/x/y.go"), record("keep/vendor/z.go"),
	}
	out := Filter(recs, exclude, include)
	require.Len(t, out, 2)
	assert.Equal(t, "pkg/a.go", out[0].Name)
	assert.Equal(t, "keep/vendor/z.go", out[1].Name)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "lib/a.go", NormalizeName("./lib/a.go"))
	assert.Equal(t, "lib/a.go", NormalizeName("././lib//a.go"))
	assert.Equal(t, "C:/src/a.go", NormalizeName(`C:\src\a.go`))
	assert.Equal(t, "", NormalizeName(""))
}

func TestMangleName(t *testing.T) {
	assert.Equal(t, "lib-foo_go.html", MangleName("lib/foo.go", ".html"))
	assert.Equal(t, "lib-foo_go.html", MangleName("./lib/foo.go", ".html"))
	assert.Equal(t, "src-a_go.html", MangleName(`C:\src\a.go`, ".html"))

	inputs := []string{"a/b.go", "a-b.go", "a_b.go", "a/b_go", "a.b.go", "a/b/c.go", "a-b/c.go", "a/b-c.go"}
	seen := make(map[string]string)
	for _, in := range inputs {
		out := MangleName(in, ".html")
		if prev, ok := seen[out]; ok {
			t.Fatalf("%q and %q both mangle to %q", prev, in, out)
		}
		seen[out] = in
		assert.Equal(t, out, MangleName(in, ".html"), "mangling must be deterministic")
	}
}

func TestMarkCommentsRun(t *testing.T) {
	rec := &FileRecord{
		Name:   "a.go",
		Lines:  []string{"// doc", "x()"},
		Marks:  []Mark{Uncovered, Uncovered},
		Counts: []int{0, 0},
		Code:   []bool{false, true},
	}
	MarkCommentsRun([]*FileRecord{rec})
	assert.Equal(t, []Mark{Inferred, Uncovered}, rec.Marks)
}

func TestMarkText(t *testing.T) {
	var m Mark
	require.NoError(t, m.UnmarshalText([]byte("inferred")))
	assert.Equal(t, Inferred, m)
	assert.Error(t, m.UnmarshalText([]byte("maybe")))
}

func TestGraphLookups(t *testing.T) {
	g := NewGraph([]Edge{
		{Caller: Location{Class: "main", Method: "run", File: "./cmd/main.go", Line: 10},
			Callee: Location{Class: "lib", Method: "Do", File: "lib/do.go", Line: 3}, Count: 4},
		{Caller: Location{Class: "main", Method: "run", File: "cmd/main.go", Line: 10},
			Callee: Location{Class: "runtime", Method: "print"}, Count: 9},
	})

	defs := g.DefSites("cmd/main.go", 10)
	require.Len(t, defs, 2)
	SortSites(defs)
	assert.Equal(t, "print", defs[0].Method)
	assert.Equal(t, "", defs[0].File)
	assert.Equal(t, RoleDefinition, defs[1].Role)

	callers := g.CallSites("lib/do.go", 3)
	require.Len(t, callers, 1)
	assert.Equal(t, RoleCall, callers[0].Role)
	assert.Equal(t, 10, callers[0].Line)

	callers[0].File = "mutated"
	assert.Equal(t, "./cmd/main.go", g.CallSites("lib/do.go", 3)[0].File)
	assert.Empty(t, g.CallSites("lib/do.go", 4))
}
