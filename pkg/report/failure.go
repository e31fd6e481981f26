package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/jupierce/covreport/pkg/coverage"
)

// ErrBelowThreshold is returned when aggregate code coverage does not meet
// the failure threshold.
var ErrBelowThreshold = errors.New("coverage below failure threshold")

// DefaultFailureThreshold applies when the failure report is selected
// without a threshold.
const DefaultFailureThreshold = 100

// FailureReport checks aggregate code coverage against the failure
// threshold. It renders nothing per file.
type FailureReport struct {
	opts Options
}

// NewFailureReport creates the coverage threshold gate.
func NewFailureReport(opts Options) *FailureReport {
	return &FailureReport{opts: opts}
}

func (f *FailureReport) Name() string { return "failure-report" }

func (f *FailureReport) threshold() int {
	if f.opts.FailureThreshold != nil {
		return *f.opts.FailureThreshold
	}
	return DefaultFailureThreshold
}

func (f *FailureReport) Execute(_ context.Context, records []*coverage.FileRecord) error {
	r := newRun(f.opts, records)
	pct := r.summary.CodeCoverage() * 100
	r.opts.Metrics.SetCoverage(r.summary.TotalCoverage(), r.summary.CodeCoverage())
	if coverage.BelowPercent(r.summary.CoveredCodeLines, r.summary.NumCodeLines, f.threshold()) {
		fmt.Fprintf(f.opts.writer().Stdout(), "You failed to satisfy the coverage threshold of %d%% (got %.1f%%)\n", f.threshold(), pct)
		return fmt.Errorf("%w: %.1f%% < %d%%", ErrBelowThreshold, pct, f.threshold())
	}
	f.opts.Logger.Debug("code coverage %.1f%% meets threshold %d%%", pct, f.threshold())
	return nil
}
