package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jupierce/covreport/pkg/coverage"
)

// FullText dumps every listed file to stdout: execution counts, coverage
// markers or gcc-style warnings depending on the text mode.
type FullText struct {
	opts Options
	mode TextMode
}

// NewFullText creates the per-line text formatter for opts.TextMode.
func NewFullText(opts Options) *FullText {
	mode := opts.TextMode
	switch mode {
	case TextCounts, TextCoverage, TextGCC:
	default:
		mode = TextCoverage
	}
	return &FullText{opts: opts, mode: mode}
}

func (f *FullText) Name() string { return "text-" + string(f.mode) }

func (f *FullText) Execute(ctx context.Context, records []*coverage.FileRecord) error {
	start := time.Now()
	r := newRun(f.opts, records)
	out := f.opts.writer().Stdout()

	var styles lineStyles
	if f.mode == TextCoverage {
		styles = newLineStyles(out, f.opts.Color)
	}
	for _, rec := range r.listed {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch f.mode {
		case TextCounts:
			err = writeCounts(out, rec)
		case TextGCC:
			err = writeGCC(out, rec)
		default:
			err = writeCoverage(out, rec, styles)
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", rec.Name, err)
		}
	}
	r.observe(f.Name(), start)
	return nil
}

func fileBanner(w io.Writer, name string) error {
	rule := strings.Repeat("=", 80)
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", rule, name, rule)
	return err
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func writeCounts(w io.Writer, rec *coverage.FileRecord) error {
	if err := fileBanner(w, rec.Name); err != nil {
		return err
	}
	for i, line := range rec.Lines {
		if _, err := fmt.Fprintf(w, "%-70s| %6d\n", truncate(strings.TrimRight(line, "\r\n"), 70), rec.Counts[i]); err != nil {
			return err
		}
	}
	return nil
}

type lineStyles struct {
	color     bool
	covered   lipgloss.Style
	inferred  lipgloss.Style
	uncovered lipgloss.Style
}

func newLineStyles(out io.Writer, color bool) lineStyles {
	re := lipgloss.NewRenderer(out)
	return lineStyles{
		color:     color,
		covered:   re.NewStyle().Foreground(lipgloss.Color("#10B981")),
		inferred:  re.NewStyle().Foreground(lipgloss.Color("#64748B")),
		uncovered: re.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
	}
}

func (s lineStyles) render(line string, m coverage.Mark) string {
	if !s.color {
		if m == coverage.Uncovered {
			return "!! " + line
		}
		return "   " + line
	}
	switch m {
	case coverage.Covered:
		return s.covered.Render(line)
	case coverage.Inferred:
		return s.inferred.Render(line)
	default:
		return s.uncovered.Render(line)
	}
}

func writeCoverage(w io.Writer, rec *coverage.FileRecord, styles lineStyles) error {
	if err := fileBanner(w, rec.Name); err != nil {
		return err
	}
	for i, line := range rec.Lines {
		if _, err := fmt.Fprintln(w, styles.render(strings.TrimRight(line, "\r\n"), rec.Marks[i])); err != nil {
			return err
		}
	}
	return nil
}

func writeGCC(w io.Writer, rec *coverage.FileRecord) error {
	for i := range rec.Lines {
		if rec.IsCode(i) && rec.Marks[i] == coverage.Uncovered {
			if _, err := fmt.Fprintf(w, "%s:%d:warning: Line not covered\n", rec.Name, i+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// SummaryFormatter prints the one-line aggregate summary.
type SummaryFormatter struct {
	opts Options
}

// NewTextSummary returns the formatter for the summary text mode.
func NewTextSummary(opts Options) *SummaryFormatter {
	return &SummaryFormatter{opts: opts}
}

func (f *SummaryFormatter) Name() string { return "text-summary" }

func (f *SummaryFormatter) Execute(_ context.Context, records []*coverage.FileRecord) error {
	r := newRun(f.opts, records)
	_, err := fmt.Fprintln(f.opts.writer().Stdout(), summaryLine(r.summary))
	return err
}

func summaryLine(s coverage.Summary) string {
	return fmt.Sprintf("%.1f%%   %d file(s)   %d Lines   %d LOC", s.CodeCoverage()*100, s.Files, s.NumLines, s.NumCodeLines)
}

// TableFormatter prints a table of the listed files followed by the summary
// line.
type TableFormatter struct {
	opts Options
}

// NewTextReport returns the formatter for the report text mode.
func NewTextReport(opts Options) *TableFormatter {
	return &TableFormatter{opts: opts}
}

func (f *TableFormatter) Name() string { return "text-report" }

func (f *TableFormatter) Execute(_ context.Context, records []*coverage.FileRecord) error {
	r := newRun(f.opts, records)
	width := 50
	for _, rec := range r.listed {
		if n := len([]rune(rec.Name)); n > width {
			width = n
		}
	}

	var sb strings.Builder
	sep := "+" + strings.Repeat("-", width+2) + "+-------+-------+--------+\n"
	sb.WriteString(sep)
	fmt.Fprintf(&sb, "| %-*s | Lines |  LOC  |  COV   |\n", width, "File")
	sb.WriteString(sep)
	for _, rec := range r.listed {
		fmt.Fprintf(&sb, "| %-*s | %5d | %5d | %5.1f%% |\n", width, rec.Name, rec.NumLines(), rec.NumCodeLines(), rec.CodeCoverage()*100)
	}
	sb.WriteString(sep)
	fmt.Fprintf(&sb, "| %-*s | %5d | %5d | %5.1f%% |\n", width, "Total", r.summary.NumLines, r.summary.NumCodeLines, r.summary.CodeCoverage()*100)
	sb.WriteString(sep)
	sb.WriteString(summaryLine(r.summary) + "\n")

	_, err := io.WriteString(f.opts.writer().Stdout(), sb.String())
	return err
}
