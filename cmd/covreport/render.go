package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jupierce/covreport/pkg/config"
	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/metrics"
	"github.com/jupierce/covreport/pkg/report"
)

// Render-only flag state that does not map one-to-one onto a settings field.
var (
	noColor      bool
	noHTML       bool
	noCallsites  bool
	noXRefs      bool
	noComments   bool
	textReport   bool
	textSummary  bool
	textCounts   bool
	textCoverage bool
	compareFile  string
	saveFile     string
	failureAt    int
	includeRaw   []string
	excludeRaw   []string
	excludeOnly  []string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render coverage reports",
	Long: `Render reads coverage records and writes the selected reports.

By default an HTML report is written to ./coverage. Text modes print to
stdout and at most one text mode is active; --text-report outranks
--text-summary, which outranks --text-coverage and --text-counts.
--text-coverage-diff compares against a saved snapshot and --save records
one; the two cannot be combined.`,
	Example: `  covreport render --coverprofile cover.out --source-root . -o out
  covreport render --coverprofile cover.out -T --threshold 80
  covreport render --records run.json --xrefs --profile
  covreport render --coverprofile cover.out --save snapshots.db
  covreport render --coverprofile cover.out -D snapshots.db --failure-threshold 75`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&flagSettings.Output, "output", "o", "", "Destination directory (default \"coverage\", or \"profiling\" with --profile)")
	f.BoolVarP(&noColor, "no-color", "n", false, "Monochrome output")
	f.BoolVarP(&flagSettings.Profile, "profile", "p", false, "Bogo-profiling view: colour lines by execution count")
	f.Float64VarP(&flagSettings.Range, "range", "r", flagSettings.Range, "Full-scale range of the profiling colour scale in dB")
	f.BoolVarP(&flagSettings.Annotate, "annotate", "a", false, "Write annotated source files instead of HTML")

	f.BoolVarP(&textReport, "text-report", "T", false, "Print a per-file coverage table")
	f.BoolVarP(&textSummary, "text-summary", "t", false, "Print a one-line coverage summary")
	f.BoolVar(&textCounts, "text-counts", false, "Print execution counts for every line")
	f.BoolVar(&textCoverage, "text-coverage", false, "Print every line, highlighting uncovered code")
	f.StringVar(&flagSettings.TextMode, "text-mode", "", "Text mode by name (counts, coverage, gcc, annotate, summary, report, coverage_diff, failure_report)")
	f.BoolVar(&flagSettings.GCC, "gcc", false, "Print uncovered lines as compiler warnings")

	f.StringVarP(&compareFile, "text-coverage-diff", "D", "", "Compare against the snapshot in FILE")
	f.Lookup("text-coverage-diff").NoOptDefVal = "coverage.info"
	f.StringVar(&saveFile, "save", "", "Save a coverage snapshot to FILE")
	f.Lookup("save").NoOptDefVal = "coverage.info"
	f.StringVar(&flagSettings.DiffCmd, "diff-cmd", flagSettings.DiffCmd, "Command used to show uncovered-code changes")

	f.BoolVar(&flagSettings.HTML, "html", flagSettings.HTML, "Write the HTML report")
	f.BoolVar(&noHTML, "no-html", false, "Skip the HTML report")
	f.StringVar(&flagSettings.CSS, "css", "", "Link this stylesheet instead of generating report.css")
	f.StringVar(&flagSettings.Charset, "charset", "", "Charset declared in the HTML pages")

	f.StringVar(&flagSettings.Sort, "sort", flagSettings.Sort, "Sort files by name, loc or coverage")
	f.BoolVar(&flagSettings.SortReverse, "sort-reverse", false, "Reverse the sort order")
	f.IntVar(&flagSettings.Threshold, "threshold", flagSettings.Threshold, "Only list files with code coverage below this percentage")
	f.BoolVar(&flagSettings.OnlyUncovered, "only-uncovered", false, "Same as --threshold 100")
	f.IntVar(&failureAt, "failure-threshold", 0, "Fail when code coverage is below this percentage")
	f.Lookup("failure-threshold").NoOptDefVal = strconv.Itoa(report.DefaultFailureThreshold)

	f.StringArrayVarP(&includeRaw, "include-file", "i", nil, "Comma-separated patterns of files to keep even when excluded")
	f.StringArrayVarP(&excludeRaw, "exclude", "x", nil, "Comma-separated patterns of files to skip, added to the defaults")
	f.StringArrayVar(&excludeOnly, "exclude-only", nil, "Comma-separated patterns replacing the default excludes")

	f.BoolVar(&flagSettings.Callsites, "callsites", false, "Show call sites in the HTML report")
	f.BoolVar(&flagSettings.XRefs, "xrefs", false, "Show cross references; implies --callsites")
	f.BoolVar(&flagSettings.Comments, "comments", false, "Treat comment lines as run")
	f.BoolVar(&noCallsites, "no-callsites", false, "Hide call sites")
	f.BoolVar(&noXRefs, "no-xrefs", false, "Hide cross references")
	f.BoolVar(&noComments, "no-comments", false, "Treat comment lines like any other uncovered line")
	f.StringVar(&flagSettings.MetricsOut, "metrics-out", "", "Write Prometheus metrics for the run to this textfile")

	rootCmd.AddCommand(renderCmd)
}

func splitAll(raw []string) []string {
	var out []string
	for _, r := range raw {
		out = append(out, config.SplitPatterns(r)...)
	}
	return out
}

var renderOverrides = []override{
	{"output", func(d, s *config.Settings) { d.Output = s.Output }},
	{"no-color", func(d, _ *config.Settings) { d.Color = !noColor }},
	{"profile", func(d, s *config.Settings) { d.Profile = s.Profile }},
	{"range", func(d, s *config.Settings) { d.Range = s.Range }},
	{"annotate", func(d, s *config.Settings) { d.Annotate = s.Annotate }},
	{"gcc", func(d, s *config.Settings) { d.GCC = s.GCC }},

	// Text modes: the last one in this list wins.
	{"text-mode", func(d, s *config.Settings) { d.TextMode = s.TextMode }},
	{"text-counts", textModeFlag(&textCounts, report.TextCounts)},
	{"text-coverage", textModeFlag(&textCoverage, report.TextCoverage)},
	{"text-summary", textModeFlag(&textSummary, report.TextSummary)},
	{"text-report", textModeFlag(&textReport, report.TextReport)},

	{"text-coverage-diff", func(d, _ *config.Settings) { d.Compare = true; d.DiffFile = compareFile }},
	{"save", func(d, _ *config.Settings) { d.Save = true; d.DiffFile = saveFile }},
	{"diff-cmd", func(d, s *config.Settings) { d.DiffCmd = s.DiffCmd }},

	{"html", func(d, s *config.Settings) { d.HTML = s.HTML }},
	{"no-html", func(d, _ *config.Settings) { d.HTML = !noHTML }},
	{"css", func(d, s *config.Settings) { d.CSS = s.CSS }},
	{"charset", func(d, s *config.Settings) { d.Charset = s.Charset }},

	{"sort", func(d, s *config.Settings) { d.Sort = s.Sort }},
	{"sort-reverse", func(d, s *config.Settings) { d.SortReverse = s.SortReverse }},
	{"threshold", func(d, s *config.Settings) { d.Threshold = s.Threshold }},
	{"only-uncovered", func(d, s *config.Settings) { d.OnlyUncovered = s.OnlyUncovered }},
	{"failure-threshold", func(d, _ *config.Settings) { n := failureAt; d.FailureThreshold = &n }},

	{"include-file", func(d, _ *config.Settings) { d.Include = append(d.Include, splitAll(includeRaw)...) }},
	{"exclude", func(d, _ *config.Settings) { d.Exclude = append(d.Exclude, splitAll(excludeRaw)...) }},
	{"exclude-only", func(d, _ *config.Settings) { d.ExcludeOnly = splitAll(excludeOnly) }},

	{"callsites", func(d, s *config.Settings) { d.Callsites = s.Callsites }},
	{"xrefs", func(d, s *config.Settings) { d.XRefs = s.XRefs }},
	{"comments", func(d, s *config.Settings) { d.Comments = s.Comments }},
	{"no-callsites", func(d, _ *config.Settings) { d.Callsites = !noCallsites }},
	{"no-xrefs", func(d, _ *config.Settings) { d.XRefs = !noXRefs }},
	{"no-comments", func(d, _ *config.Settings) { d.Comments = !noComments }},
	{"metrics-out", func(d, s *config.Settings) { d.MetricsOut = s.MetricsOut }},
}

func textModeFlag(set *bool, mode report.TextMode) func(d, _ *config.Settings) {
	return func(d, _ *config.Settings) {
		if *set {
			d.TextMode = string(mode)
		}
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, renderOverrides)
	if err != nil {
		return err
	}
	logger, err := newLogger(s)
	if err != nil {
		return err
	}
	defer logger.Close()

	opts, err := config.Resolve(s)
	if err != nil {
		return err
	}

	records, analyzer, err := loadInputs(s, opts.CommentsRunByDefault, logger)
	if err != nil {
		return err
	}

	recorder := metrics.New()
	opts.Writer = report.NewFSWriter(cmd.OutOrStdout())
	opts.Logger = logger
	opts.Metrics = recorder
	opts.Analyzer = analyzer

	formatters := report.Select(opts)
	if len(formatters) == 0 {
		logger.Warning("Nothing to render: HTML is off and no text mode is selected")
	}
	runErr := report.Run(cmd.Context(), formatters, records)

	summary := coverage.Summarize(coverage.Filter(records, opts.Exclude, opts.Include))
	recorder.SetCoverage(summary.TotalCoverage(), summary.CodeCoverage())
	if s.MetricsOut != "" {
		if err := recorder.WriteTextfile(s.MetricsOut); err != nil {
			return errors.Join(runErr, err)
		}
		logger.Debug("Wrote metrics to %s", s.MetricsOut)
	}

	if runErr != nil {
		return runErr
	}
	if opts.HTML {
		logger.Success("Report written to %s", opts.DestDir)
	}
	logger.Info("Code coverage %.1f%% over %d file(s)", 100*summary.CodeCoverage(), summary.Files)
	return nil
}
