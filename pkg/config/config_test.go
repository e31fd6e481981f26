package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/report"
)

func TestResolveDefaults(t *testing.T) {
	opts, err := Resolve(Defaults())
	require.NoError(t, err)

	assert.Equal(t, "coverage", opts.DestDir)
	assert.True(t, opts.HTML)
	assert.True(t, opts.Color)
	assert.Equal(t, 30.0, opts.RangeDB)
	assert.Equal(t, 101, opts.OutputThreshold)
	assert.Equal(t, coverage.SortByName, opts.Sort)
	assert.Equal(t, report.TextNone, opts.TextMode)
	assert.Equal(t, "coverage.info", opts.DiffFile)
	assert.Equal(t, "diff", opts.DiffCmd)
	assert.Nil(t, opts.FailureThreshold)
	assert.Len(t, opts.Exclude, len(coverage.DefaultExcludes))
}

func TestResolveRejectsInvalidSettings(t *testing.T) {
	zero, tooHigh := 0, 102
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"threshold zero", func(s *Settings) { s.Threshold = 0 }, "invalid threshold"},
		{"threshold too high", func(s *Settings) { s.Threshold = 102 }, "invalid threshold"},
		{"failure threshold zero", func(s *Settings) { s.FailureThreshold = &zero }, "invalid failure threshold"},
		{"failure threshold too high", func(s *Settings) { s.FailureThreshold = &tooHigh }, "invalid failure threshold"},
		{"bad exclude", func(s *Settings) { s.Exclude = []string{"("} }, `"("`},
		{"bad include", func(s *Settings) { s.Include = []string{"glob:[a"} }, `"glob:[a"`},
		{"bad sort", func(s *Settings) { s.Sort = "size" }, "size"},
		{"bad text mode", func(s *Settings) { s.TextMode = "xml" }, "xml"},
		{"bad range", func(s *Settings) { s.Range = 0 }, "invalid range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(&s)
			_, err := Resolve(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolveDiffModes(t *testing.T) {
	s := Defaults()
	s.Save = true
	s.Compare = true
	_, err := Resolve(s)
	assert.ErrorIs(t, err, ErrExclusiveDiffModes)

	for _, mode := range []string{"coverage_diff", "summary"} {
		s = Defaults()
		s.Save = true
		s.Compare = mode == "summary"
		s.TextMode = mode
		_, err = Resolve(s)
		assert.ErrorIs(t, err, ErrExclusiveDiffModes, "text mode %s", mode)
	}

	s = Defaults()
	s.TextMode = "coverage_diff"
	opts, err := Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, report.DiffCompare, opts.DiffMode)
	assert.False(t, opts.DiffSave)
	assert.True(t, opts.CommentsRunByDefault)

	s = Defaults()
	s.Compare = true
	s.DiffFile = "prev.info"
	opts, err = Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, report.TextCoverageDiff, opts.TextMode)
	assert.Equal(t, report.DiffCompare, opts.DiffMode)
	assert.True(t, opts.CommentsRunByDefault)
	assert.Equal(t, "prev.info", opts.DiffFile)

	s = Defaults()
	s.Save = true
	opts, err = Resolve(s)
	require.NoError(t, err)
	assert.True(t, opts.DiffSave)
	assert.Equal(t, report.DiffRecord, opts.DiffMode)
	assert.Equal(t, report.TextNone, opts.TextMode)
}

func TestResolveDerivedRules(t *testing.T) {
	s := Defaults()
	s.XRefs = true
	opts, err := Resolve(s)
	require.NoError(t, err)
	assert.True(t, opts.Callsites, "cross references imply call sites")

	s = Defaults()
	s.GCC = true
	opts, err = Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, report.TextGCC, opts.TextMode)

	s.TextMode = "summary"
	opts, err = Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, report.TextSummary, opts.TextMode, "gcc only fills an empty text mode")

	s = Defaults()
	s.Annotate = true
	opts, err = Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, report.TextAnnotate, opts.TextMode)
	assert.False(t, opts.HTML)
	assert.True(t, opts.Callsites)
	assert.True(t, opts.CrossRefs)

	s = Defaults()
	s.Profile = true
	opts, err = Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, "profiling", opts.DestDir)
	s.Output = "out"
	opts, err = Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, "out", opts.DestDir)

	s = Defaults()
	s.OnlyUncovered = true
	opts, err = Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, 100, opts.OutputThreshold)

	s = Defaults()
	ft := 75
	s.FailureThreshold = &ft
	opts, err = Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, report.TextFailureReport, opts.TextMode)
	assert.Equal(t, 75, *opts.FailureThreshold)
}

func TestResolveExcludeOnlyReplacesDefaults(t *testing.T) {
	s := Defaults()
	s.ExcludeOnly = []string{`^gen/`}
	s.Include = []string{"glob:vendor/keep/*.go"}
	opts, err := Resolve(s)
	require.NoError(t, err)

	recs := []*coverage.FileRecord{{Name: "a_test.go"}, {Name: "gen/x.go"}, {Name: "vendor/keep/y.go"}}
	out := coverage.Filter(recs, opts.Exclude, opts.Include)
	require.Len(t, out, 2)
	assert.Equal(t, "a_test.go", out[0].Name)
	assert.Equal(t, "vendor/keep/y.go", out[1].Name)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "covreport.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
output = "site/coverage"
color = false
sort = "coverage"
sort_reverse = true
exclude = ["^internal/gen/"]
failure_threshold = 80
coverprofiles = ["unit.out", "e2e.out"]
`), 0644))

	s := Defaults()
	require.NoError(t, LoadFile(path, &s))
	assert.Equal(t, "site/coverage", s.Output)
	assert.False(t, s.Color)
	assert.True(t, s.HTML, "absent keys keep their default")
	assert.Equal(t, []string{"unit.out", "e2e.out"}, s.CoverProfiles)
	require.NotNil(t, s.FailureThreshold)
	assert.Equal(t, 80, *s.FailureThreshold)

	opts, err := Resolve(s)
	require.NoError(t, err)
	assert.Equal(t, coverage.SortByCoverage, opts.Sort)
	assert.True(t, opts.SortReverse)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "covreport.toml")
	require.NoError(t, os.WriteFile(path, []byte("colour = true\n"), 0644))

	s := Defaults()
	err := LoadFile(path, &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("COVREPORT_MODULE=example.com/demo\n"), 0644))
	t.Setenv("COVREPORT_MODULE", "")
	os.Unsetenv("COVREPORT_MODULE")
	t.Setenv("COVREPORT_COVERPROFILE", "a.out, b.out")
	t.Setenv("COVREPORT_NO_COLOR", "true")
	t.Setenv("COVREPORT_THRESHOLD", "90")

	s := Defaults()
	require.NoError(t, ApplyEnv(&s, envFile, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "example.com/demo", s.Module)
	assert.Equal(t, []string{"a.out", "b.out"}, s.CoverProfiles)
	assert.False(t, s.Color)
	assert.Equal(t, 90, s.Threshold)

	t.Setenv("COVREPORT_THRESHOLD", "ninety")
	assert.Error(t, ApplyEnv(&s, envFile))
}
