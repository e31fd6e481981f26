package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/xref"
)

const annotateExt = ".txt"

// Annotation writes each file's source with run markers and cross
// references as trailing comments, followed by a statistics footer.
// Both reference groups are always rendered.
type Annotation struct {
	opts Options
}

// NewAnnotation creates the annotated-source formatter.
func NewAnnotation(opts Options) *Annotation {
	return &Annotation{opts: opts}
}

func (f *Annotation) Name() string { return "annotate" }

func (f *Annotation) Execute(ctx context.Context, records []*coverage.FileRecord) error {
	start := time.Now()
	r := newRun(f.opts, records)
	if len(r.files) == 0 {
		return nil
	}
	if err := f.opts.writer().MkdirAll(f.opts.DestDir); err != nil {
		return err
	}
	f.opts.Logger.Progress("Writing annotated source for %d file(s) to %s", len(r.listed), f.opts.DestDir)

	resolver := xref.New(f.opts.Analyzer, r.known(), xref.Options{Calls: true, CalledBy: true}, &xref.TextStyle{Ext: annotateExt})
	for _, rec := range r.listed {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.write(f.Name(), coverage.MangleName(rec.Name, annotateExt), []byte(annotate(rec, resolver))); err != nil {
			return err
		}
	}

	r.observe(f.Name(), start)
	f.opts.Logger.Success("Wrote annotated source to %s", f.opts.DestDir)
	return nil
}

func annotate(rec *coverage.FileRecord, resolver *xref.Resolver) string {
	var sb strings.Builder
	for i, line := range rec.Lines {
		sb.WriteString(resolver.Annotate(rec.Name, i+1, strings.TrimRight(line, "\r\n"), rec.Marks[i]))
		sb.WriteString("\n")
	}
	sb.WriteString(footer(rec))
	return sb.String()
}

func footer(rec *coverage.FileRecord) string {
	return fmt.Sprintf("// Total lines    : %d\n", rec.NumLines()) +
		fmt.Sprintf("// Lines of code  : %d\n", rec.NumCodeLines()) +
		fmt.Sprintf("// Total coverage : %3.1f%%\n", rec.TotalCoverage()*100) +
		fmt.Sprintf("// Code coverage  : %3.1f%%\n", rec.CodeCoverage()*100)
}
