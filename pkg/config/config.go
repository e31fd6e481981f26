// Package config turns the user-facing settings (flags, a TOML file and
// COVREPORT_* environment variables) into resolved report options.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jupierce/covreport/pkg/colorscale"
	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/report"
)

// ErrExclusiveDiffModes is returned when saving and comparing a snapshot
// are both requested.
var ErrExclusiveDiffModes = errors.New("saving and comparing a coverage snapshot are mutually exclusive")

// Settings is the raw configuration, shaped like the command line.
type Settings struct {
	// Inputs
	CoverProfiles []string `toml:"coverprofiles"`
	SourceRoot    string   `toml:"source_root"`
	Module        string   `toml:"module"`
	Records       string   `toml:"records"`

	// Output selection
	Output   string  `toml:"output"`
	Color    bool    `toml:"color"`
	Profile  bool    `toml:"profile"`
	Range    float64 `toml:"range"`
	HTML     bool    `toml:"html"`
	CSS      string  `toml:"css"`
	Charset  string  `toml:"charset"`
	TextMode string  `toml:"text_mode"`
	Annotate bool    `toml:"annotate"`
	GCC      bool    `toml:"gcc"`

	// File selection and order
	Include       []string `toml:"include"`
	Exclude       []string `toml:"exclude"`
	ExcludeOnly   []string `toml:"exclude_only"`
	Sort          string   `toml:"sort"`
	SortReverse   bool     `toml:"sort_reverse"`
	Threshold     int      `toml:"threshold"`
	OnlyUncovered bool     `toml:"only_uncovered"`

	// Annotations
	Callsites bool `toml:"callsites"`
	XRefs     bool `toml:"xrefs"`
	Comments  bool `toml:"comments"`

	// Snapshots and gating
	Save             bool   `toml:"save"`
	Compare          bool   `toml:"compare"`
	DiffFile         string `toml:"diff_file"`
	DiffCmd          string `toml:"diff_cmd"`
	FailureThreshold *int   `toml:"failure_threshold"`

	MetricsOut string `toml:"metrics_out"`
	Verbosity  string `toml:"verbosity"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		Color:     true,
		Range:     colorscale.DefaultRangeDB,
		HTML:      true,
		Sort:      string(coverage.SortByName),
		Threshold: 101,
		DiffFile:  "coverage.info",
		DiffCmd:   "diff",
		Verbosity: "info",
	}
}

// LoadFile decodes the TOML file at path over s. Keys absent from the file
// keep their current value; unknown keys are an error.
func LoadFile(path string, s *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), s)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("parse config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv loads the given .env files (".env" when none are named; missing
// files are ignored) and applies COVREPORT_* overrides to s.
func ApplyEnv(s *Settings, envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	strVars := map[string]*string{
		"COVREPORT_OUTPUT":      &s.Output,
		"COVREPORT_SOURCE_ROOT": &s.SourceRoot,
		"COVREPORT_MODULE":      &s.Module,
		"COVREPORT_RECORDS":     &s.Records,
		"COVREPORT_TEXT_MODE":   &s.TextMode,
		"COVREPORT_CHARSET":     &s.Charset,
		"COVREPORT_CSS":         &s.CSS,
		"COVREPORT_DIFF_FILE":   &s.DiffFile,
		"COVREPORT_DIFF_CMD":    &s.DiffCmd,
		"COVREPORT_METRICS_OUT": &s.MetricsOut,
		"COVREPORT_VERBOSITY":   &s.Verbosity,
	}
	for name, dst := range strVars {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("COVREPORT_COVERPROFILE"); ok {
		s.CoverProfiles = splitList(v)
	}
	if v, ok := os.LookupEnv("COVREPORT_NO_COLOR"); ok {
		noColor, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COVREPORT_NO_COLOR: %w", err)
		}
		s.Color = !noColor
	}
	if v, ok := os.LookupEnv("COVREPORT_THRESHOLD"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COVREPORT_THRESHOLD: %w", err)
		}
		s.Threshold = n
	}
	if v, ok := os.LookupEnv("COVREPORT_FAILURE_THRESHOLD"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COVREPORT_FAILURE_THRESHOLD: %w", err)
		}
		s.FailureThreshold = &n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SplitPatterns splits a comma-separated pattern list as given on the
// command line.
func SplitPatterns(v string) []string {
	return splitList(v)
}

// Resolve validates s and derives the report options. Writer, Logger,
// Metrics and Analyzer are left for the caller to fill in.
func Resolve(s Settings) (report.Options, error) {
	opts := report.DefaultOptions()

	threshold := s.Threshold
	if s.OnlyUncovered {
		threshold = 100
	}
	if threshold <= 0 || threshold > 101 {
		return opts, fmt.Errorf("invalid threshold %d: must be in (0, 101]", threshold)
	}
	if s.FailureThreshold != nil && (*s.FailureThreshold <= 0 || *s.FailureThreshold > 101) {
		return opts, fmt.Errorf("invalid failure threshold %d: must be in (0, 101]", *s.FailureThreshold)
	}
	if s.Range <= 0 {
		return opts, fmt.Errorf("invalid range %g: must be positive", s.Range)
	}

	mode, err := report.ParseTextMode(s.TextMode)
	if err != nil {
		return opts, err
	}
	compare := s.Compare || mode == report.TextCoverageDiff
	if s.Save && compare {
		return opts, ErrExclusiveDiffModes
	}
	sortKey, err := coverage.ParseSortKey(s.Sort)
	if err != nil {
		return opts, err
	}

	excludes := append(append([]string(nil), coverage.DefaultExcludes...), s.Exclude...)
	if s.ExcludeOnly != nil {
		excludes = s.ExcludeOnly
	}
	opts.Exclude, err = coverage.CompilePatterns(excludes)
	if err != nil {
		return opts, err
	}
	opts.Include, err = coverage.CompilePatterns(s.Include)
	if err != nil {
		return opts, err
	}

	opts.Color = s.Color
	opts.Profiling = s.Profile
	opts.RangeDB = s.Range
	opts.HTML = s.HTML
	opts.CSS = s.CSS
	opts.Charset = s.Charset
	opts.Sort = sortKey
	opts.SortReverse = s.SortReverse
	opts.OutputThreshold = threshold
	opts.Callsites = s.Callsites || s.XRefs
	opts.CrossRefs = s.XRefs
	opts.CommentsRunByDefault = s.Comments
	opts.GCCOutput = s.GCC
	opts.DiffCmd = s.DiffCmd
	if s.DiffFile != "" {
		opts.DiffFile = s.DiffFile
	}
	opts.FailureThreshold = s.FailureThreshold

	switch {
	case compare:
		mode = report.TextCoverageDiff
		opts.DiffMode = report.DiffCompare
		opts.CommentsRunByDefault = true
	case s.Save:
		opts.DiffSave = true
		opts.DiffMode = report.DiffRecord
	}
	if s.Annotate {
		mode = report.TextAnnotate
		opts.HTML = false
		opts.Callsites = true
		opts.CrossRefs = true
	}
	if mode == report.TextNone && s.GCC {
		mode = report.TextGCC
	}
	if mode == report.TextNone && s.FailureThreshold != nil {
		mode = report.TextFailureReport
	}
	opts.TextMode = mode

	switch {
	case s.Output != "":
		opts.DestDir = s.Output
	case s.Profile:
		opts.DestDir = "profiling"
	}
	return opts, nil
}
