package report

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/jupierce/covreport/pkg/colorscale"
	"github.com/jupierce/covreport/pkg/coverage"
	"github.com/jupierce/covreport/pkg/spans"
	"github.com/jupierce/covreport/pkg/xref"
)

const (
	htmlExt       = ".html"
	indexFile     = "index.html"
	stylesheet    = "report.css"
	coverageTitle = "C0 code coverage information"
	profileTitle  = "Bogo-profile information"
)

// HTML writes index.html and one colourised page per file. The coverage
// variant paints blocks by mark, the profiling variant paints covered
// lines by execution count.
type HTML struct {
	opts      Options
	profiling bool
}

// NewHTMLCoverage creates the coverage-mode HTML formatter.
func NewHTMLCoverage(opts Options) *HTML {
	return &HTML{opts: opts}
}

// NewHTMLProfiling creates the HTML formatter that colours lines by
// execution count.
func NewHTMLProfiling(opts Options) *HTML {
	return &HTML{opts: opts, profiling: true}
}

func (f *HTML) Name() string {
	if f.profiling {
		return "html-profiling"
	}
	return "html-coverage"
}

func (f *HTML) title() string {
	if f.profiling {
		return profileTitle
	}
	return coverageTitle
}

func (f *HTML) classifier() colorscale.Classifier {
	if f.profiling {
		return colorscale.NewProfile(f.opts.RangeDB)
	}
	return colorscale.NewToggle()
}

// fileRow is one line of the index table.
type fileRow struct {
	Name          string
	Href          string
	NumLines      int
	NumCodeLines  int
	TotalCoverage float64
	CodeCoverage  float64
}

func rowFor(rec *coverage.FileRecord) fileRow {
	return fileRow{
		Name:          rec.Name,
		Href:          coverage.MangleName(rec.Name, htmlExt),
		NumLines:      rec.NumLines(),
		NumCodeLines:  rec.NumCodeLines(),
		TotalCoverage: rec.TotalCoverage() * 100,
		CodeCoverage:  rec.CodeCoverage() * 100,
	}
}

func totalRow(s coverage.Summary) fileRow {
	return fileRow{
		Name:          "TOTAL",
		NumLines:      s.NumLines,
		NumCodeLines:  s.NumCodeLines,
		TotalCoverage: s.TotalCoverage() * 100,
		CodeCoverage:  s.CodeCoverage() * 100,
	}
}

type pageHead struct {
	Title     string
	Charset   string
	CSS       string
	Generated string
	Threshold int
}

// Execute writes the stylesheet, the index and one page per listed file.
func (f *HTML) Execute(ctx context.Context, records []*coverage.FileRecord) error {
	start := time.Now()
	r := newRun(f.opts, records)
	if len(r.files) == 0 {
		return nil
	}

	tmpl, err := newTemplates()
	if err != nil {
		return err
	}
	if err := f.opts.writer().MkdirAll(f.opts.DestDir); err != nil {
		return err
	}
	f.opts.Logger.Progress("Writing %s report for %d file(s) to %s", f.Name(), len(r.listed), f.opts.DestDir)

	head := pageHead{
		Title:     f.title(),
		Charset:   f.opts.Charset,
		CSS:       f.opts.CSS,
		Generated: f.opts.now().Format(time.RFC1123),
		Threshold: f.opts.OutputThreshold,
	}
	if head.CSS == "" {
		head.CSS = stylesheet
		if err := r.write(f.Name(), stylesheet, []byte(Stylesheet(f.opts.Color))); err != nil {
			return err
		}
	}

	rows := []fileRow{totalRow(r.summary)}
	for _, rec := range r.listed {
		rows = append(rows, rowFor(rec))
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "index", struct {
		pageHead
		Rows []fileRow
	}{head, rows}); err != nil {
		return fmt.Errorf("execute index template: %w", err)
	}
	if err := r.write(f.Name(), indexFile, buf.Bytes()); err != nil {
		return err
	}

	classifier := f.classifier()
	resolver := xref.New(f.opts.Analyzer, r.known(), r.xrefOptions(), &xref.HTMLStyle{Ext: htmlExt})
	for _, rec := range r.listed {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf.Reset()
		if err := tmpl.ExecuteTemplate(&buf, "detail", struct {
			pageHead
			File fileRow
			Body template.HTML
		}{head, rowFor(rec), formatLines(rec, classifier, resolver)}); err != nil {
			return fmt.Errorf("execute detail template for %s: %w", rec.Name, err)
		}
		if err := r.write(f.Name(), coverage.MangleName(rec.Name, htmlExt), buf.Bytes()); err != nil {
			return err
		}
	}

	r.observe(f.Name(), start)
	f.opts.Logger.Success("Wrote %s report to %s", f.Name(), f.opts.DestDir)
	return nil
}

// formatLines renders the source of rec as a <pre> block: one anchored,
// numbered line per source line, wrapped in one span per run of equal
// classes.
func formatLines(rec *coverage.FileRecord, c colorscale.Classifier, resolver *xref.Resolver) template.HTML {
	c.Reset()
	width := len(strconv.Itoa(rec.NumLines()))

	var sb strings.Builder
	sb.WriteString("<pre>")
	for _, sp := range spans.Group(colorscale.Classes(c, rec)) {
		if sp.Styled() {
			fmt.Fprintf(&sb, `<span class="%s">`, sp.Class)
		}
		for n := sp.Start; n <= sp.End; n++ {
			i := n - 1
			fmt.Fprintf(&sb, `<a name="line%d"></a>%*d %s`+"\n", n, width, n,
				resolver.Annotate(rec.Name, n, strings.TrimRight(rec.Lines[i], "\r\n"), rec.Marks[i]))
		}
		if sp.Styled() {
			sb.WriteString("</span>")
		}
	}
	sb.WriteString("</pre>")
	return template.HTML(sb.String())
}

func newTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatPct": func(pct float64) string {
			return fmt.Sprintf("%3.1f%%", pct)
		},
		"barWidth": func(pct float64) int {
			return int(pct)
		},
		"rows": func(row fileRow) []fileRow {
			return []fileRow{row}
		},
		"colorClass": func(pct float64) string {
			switch {
			case pct >= 90:
				return "excellent"
			case pct >= 75:
				return "good"
			case pct >= 50:
				return "moderate"
			}
			return "poor"
		},
	}
	tmpl, err := template.New("report").Funcs(funcMap).Parse(htmlTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return tmpl, nil
}

const htmlTemplates = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
{{- if .Charset}}
    <meta http-equiv="Content-Type" content="text/html; charset={{.Charset}}">
{{- end}}
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="{{.CSS}}">
    <script type="text/javascript">
        function toggleCode(id) {
            var el = document.getElementById(id);
            if (!el) {
                return;
            }
            el.style.display = el.style.display === "block" ? "none" : "block";
        }
    </script>
</head>
{{end}}

{{define "table"}}
    <table class="report">
        <thead>
            <tr>
                <th>Name</th>
                <th class="num">Total lines</th>
                <th class="num">Lines of code</th>
                <th>Total coverage</th>
                <th>Code coverage</th>
            </tr>
        </thead>
        <tbody>
{{- range .}}
            <tr>
                <td>{{if .Href}}<a href="{{.Href}}">{{.Name}}</a>{{else}}{{.Name}}{{end}}</td>
                <td class="num">{{.NumLines}}</td>
                <td class="num">{{.NumCodeLines}}</td>
                <td>{{template "bar" .TotalCoverage}}</td>
                <td>{{template "bar" .CodeCoverage}}</td>
            </tr>
{{- end}}
        </tbody>
    </table>
{{end}}

{{define "bar"}}<div class="coverage {{colorClass .}}"><span class="pct">{{formatPct .}}</span><div class="bar"><div class="fill" style="width: {{barWidth .}}px"></div></div></div>{{end}}

{{define "index"}}{{template "head" .}}
<body>
    <h1>{{.Title}}</h1>
    <p class="generated">Generated on {{.Generated}}</p>
{{- if lt .Threshold 101}}
    <p class="threshold">Only files with code coverage below {{.Threshold}}% are listed.</p>
{{- end}}
{{template "table" .Rows}}
</body>
</html>
{{end}}

{{define "detail"}}{{template "head" .}}
<body>
    <p><a class="back-link" href="index.html">&larr; Back to index</a></p>
    <h1>{{.Title}}</h1>
    <p class="generated">Generated on {{.Generated}}</p>
{{template "table" (rows .File)}}
    <div class="source">
{{.Body}}
    </div>
</body>
</html>
{{end}}
`
