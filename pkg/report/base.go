package report

import (
	"context"
	"path/filepath"
	"time"

	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/xref"
)

// Formatter renders one kind of report.
type Formatter interface {
	Name() string
	Execute(ctx context.Context, records []*coverage.FileRecord) error
}

// run is the per-Execute view of the records every formatter starts from.
// It is rebuilt on each call so nothing leaks between runs.
type run struct {
	opts Options
	// files are the filtered records in output order.
	files []*coverage.FileRecord
	// listed are the files below the output threshold, which get detail
	// output and index rows.
	listed  []*coverage.FileRecord
	summary coverage.Summary
}

func newRun(opts Options, records []*coverage.FileRecord) *run {
	files := coverage.Sort(coverage.Filter(records, opts.Exclude, opts.Include), opts.Sort, opts.SortReverse)
	r := &run{opts: opts, files: files, summary: coverage.Summarize(files)}
	for _, rec := range files {
		if belowThreshold(rec, opts.OutputThreshold) {
			r.listed = append(r.listed, rec)
		}
	}
	return r
}

func belowThreshold(rec *coverage.FileRecord, threshold int) bool {
	return coverage.BelowPercent(rec.CoveredCodeLines(), rec.NumCodeLines(), threshold)
}

// known is the set of files with their own detail output.
func (r *run) known() []string {
	names := make([]string, len(r.listed))
	for i, rec := range r.listed {
		names[i] = rec.Name
	}
	return names
}

// xrefOptions maps the call-site toggles onto the reference groups.
func (r *run) xrefOptions() xref.Options {
	return xref.Options{
		Calls:    r.opts.CrossRefs && r.opts.Callsites,
		CalledBy: r.opts.Callsites,
	}
}

func (r *run) path(name string) string {
	return filepath.Join(r.opts.DestDir, name)
}

// write hands one artifact to the writer and accounts for it.
func (r *run) write(formatter, name string, data []byte) error {
	path := r.path(name)
	if err := r.opts.writer().WriteFile(path, data); err != nil {
		return err
	}
	r.opts.Metrics.FileWritten(formatter, len(data))
	r.opts.Logger.Trace("wrote %s (%d bytes)", path, len(data))
	return nil
}

func (r *run) observe(formatter string, start time.Time) {
	r.opts.Metrics.Observe(formatter, start)
	r.opts.Logger.Debug("%s finished in %s", formatter, time.Since(start).Round(time.Millisecond))
}
