// Package report renders coverage records into HTML pages, annotated source
// and text reports. Formatters are chosen from resolved Options by Select
// and run in order by Run.
package report

import (
	"fmt"
	"time"

	"github.com/jupierce/covreport/pkg/colorscale"
	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/log"
	"github.com/jupierce/covreport/pkg/metrics"
)

// TextMode selects the textual formatter, if any.
type TextMode string

const (
	TextNone          TextMode = ""
	TextCounts        TextMode = "counts"
	TextCoverage      TextMode = "coverage"
	TextGCC           TextMode = "gcc"
	TextAnnotate      TextMode = "annotate"
	TextSummary       TextMode = "summary"
	TextReport        TextMode = "report"
	TextCoverageDiff  TextMode = "coverage_diff"
	TextFailureReport TextMode = "failure_report"
)

// ParseTextMode accepts the empty string (no text mode) or one of the
// fixed mode names.
func ParseTextMode(s string) (TextMode, error) {
	m := TextMode(s)
	if m == TextNone {
		return m, nil
	}
	if _, ok := textFormatters[m]; !ok {
		return "", fmt.Errorf("unknown text mode %q", s)
	}
	return m, nil
}

// DiffMode says whether the diff formatter saves or compares snapshots.
type DiffMode string

const (
	DiffCompare DiffMode = "compare"
	DiffRecord  DiffMode = "record"
)

// Options is the configuration shared by every formatter of a run.
type Options struct {
	DestDir   string
	Color     bool
	Profiling bool
	// RangeDB is the full-scale range of the profiling colour scale.
	RangeDB  float64
	HTML     bool
	TextMode TextMode

	Include     []coverage.Pattern
	Exclude     []coverage.Pattern
	Sort        coverage.SortKey
	SortReverse bool
	// OutputThreshold hides files whose code coverage percentage is at
	// least this value. 101 shows everything.
	OutputThreshold int

	Analyzer  coverage.Analyzer
	Callsites bool
	CrossRefs bool

	DiffMode DiffMode
	DiffFile string
	DiffSave bool
	DiffCmd  string

	CommentsRunByDefault bool
	GCCOutput            bool
	Charset              string
	// CSS is a caller-supplied stylesheet path. When set, report.css is not
	// generated.
	CSS string
	// FailureThreshold is a code coverage percentage; nil disables the
	// failure report.
	FailureThreshold *int

	Writer  Writer
	Logger  *log.Logger
	Metrics *metrics.Recorder
	Now     func() time.Time
}

// DefaultOptions returns the defaults used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		DestDir:         "coverage",
		Color:           true,
		RangeDB:         colorscale.DefaultRangeDB,
		HTML:            true,
		Sort:            coverage.SortByName,
		OutputThreshold: 101,
		DiffMode:        DiffCompare,
		DiffFile:        "coverage.info",
		DiffCmd:         "diff",
	}
}

func (o Options) writer() Writer {
	if o.Writer != nil {
		return o.Writer
	}
	return NewFSWriter(nil)
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
