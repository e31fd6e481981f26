package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupierce/covreport/pkg/config"
	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/report"
)

const demoSource = `package demo

// Add adds.
func Add(a, b int) int {
	return a + b
}
// Sub subtracts.
func Sub(a, b int) int {
	return a - b
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

// TestRender drives the whole command once: the config file asks for a
// failure threshold, the flags add a text summary and the HTML report.
func TestRender(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "demo.go", demoSource)
	prof := writeFile(t, dir, "cover.out", "mode: count\nexample.com/demo/demo.go:4.24,6.2 1 3\nexample.com/demo/demo.go:8.24,10.2 1 0\n")
	cfg := writeFile(t, dir, "covreport.toml", "failure_threshold = 80\nverbosity = \"error\"\n")
	out := filepath.Join(dir, "out")
	metricsOut := filepath.Join(dir, "covreport.prom")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{
		"render",
		"--config", cfg,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--coverprofile", prof,
		"--source-root", dir,
		"--module", "example.com/demo",
		"-o", out,
		"-t",
		"--metrics-out", metricsOut,
	})
	err := rootCmd.Execute()
	require.ErrorIs(t, err, report.ErrBelowThreshold)

	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.FileExists(t, filepath.Join(out, "report.css"))
	assert.FileExists(t, filepath.Join(out, coverage.MangleName("demo.go", ".html")))

	text := stdout.String()
	assert.Contains(t, text, "1 file(s)   10 Lines   6 LOC")
	assert.Contains(t, text, "You failed to satisfy the coverage threshold of 80%")

	prom, err := os.ReadFile(metricsOut)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "covreport_code_coverage_ratio 0.5")
}

func TestLoadInputsNeedsASource(t *testing.T) {
	_, _, err := loadInputs(config.Defaults(), false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--coverprofile")
}

func TestLoadInputsRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "demo.go", demoSource)
	prof := writeFile(t, dir, "cover.out", "mode: set\nexample.com/demo/demo.go:4.24,6.2 1 1\n")

	s := config.Defaults()
	s.CoverProfiles = []string{prof}
	s.SourceRoot = dir
	s.Module = "example.com/demo"
	recs, _, err := loadInputs(s, false, nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	records := writeFile(t, dir, "records.json", `{"files":[{"name":"demo.go","lines":["x"],"marks":["covered"],"counts":[1],"code":[true]}]}`)
	s.Records = records
	_, _, err = loadInputs(s, false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one input")
}

func TestSelectFiles(t *testing.T) {
	recs := []*coverage.FileRecord{{Name: "pkg/a/a.go"}, {Name: "cmd/x/main.go"}, {Name: "internal/b.go"}}

	all, err := selectFiles(recs, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := selectFiles(recs, []string{"pkg/**", "cmd/*/main.go"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "pkg/a/a.go", some[0].Name)
	assert.Equal(t, "cmd/x/main.go", some[1].Name)

	_, err = selectFiles(recs, []string{"[a"})
	assert.Error(t, err)
}
