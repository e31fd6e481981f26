package report

import (
	"context"
	"fmt"

	"github.com/jupierce/covreport/pkg/coverage"
)

var textFormatters = map[TextMode]func(Options) Formatter{
	TextCounts:        func(o Options) Formatter { return NewFullText(o) },
	TextCoverage:      func(o Options) Formatter { return NewFullText(o) },
	TextGCC:           func(o Options) Formatter { return NewFullText(o) },
	TextAnnotate:      func(o Options) Formatter { return NewAnnotation(o) },
	TextSummary:       func(o Options) Formatter { return NewTextSummary(o) },
	TextReport:        func(o Options) Formatter { return NewTextReport(o) },
	TextCoverageDiff:  func(o Options) Formatter { return NewCoverageDiff(o) },
	TextFailureReport: func(o Options) Formatter { return NewFailureReport(o) },
}

// Select returns the formatters to run for opts, in order: HTML, the text
// mode's formatter, the failure report when a failure threshold is set and
// the snapshot saver when saving is requested.
func Select(opts Options) []Formatter {
	var out []Formatter
	if opts.HTML {
		if opts.Profiling {
			out = append(out, NewHTMLProfiling(opts))
		} else {
			out = append(out, NewHTMLCoverage(opts))
		}
	}
	if ctor, ok := textFormatters[opts.TextMode]; ok {
		out = append(out, ctor(opts))
	}
	if opts.FailureThreshold != nil && opts.TextMode != TextFailureReport {
		out = append(out, NewFailureReport(opts))
	}
	if opts.DiffSave {
		save := opts
		save.DiffMode = DiffRecord
		out = append(out, NewCoverageDiff(save))
	}
	return out
}

// Run executes formatters one after another and stops at the first error.
func Run(ctx context.Context, formatters []Formatter, records []*coverage.FileRecord) error {
	for _, f := range formatters {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.Execute(ctx, records); err != nil {
			return fmt.Errorf("%s: %w", f.Name(), err)
		}
	}
	return nil
}
