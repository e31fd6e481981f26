package report

import (
	"strings"

	"github.com/jupierce/covreport/pkg/colorscale"
)

const baseCSS = `body {
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
  background-color: %BACKGROUND%;
  margin: 20px;
}

h1 {
  font-size: 20px;
}

.generated, .threshold {
  color: #666;
  font-size: 12px;
}

a.back-link {
  color: #667eea;
  font-weight: 600;
  text-decoration: none;
}

table.report {
  border-collapse: collapse;
  width: 100%;
  background: white;
  margin-bottom: 20px;
}

table.report th, table.report td {
  padding: 6px 10px;
  border-bottom: 1px solid #dee2e6;
  text-align: left;
  font-size: 13px;
}

table.report .num {
  text-align: right;
}

div.coverage .pct {
  display: inline-block;
  width: 50px;
  font-family: monospace;
}

div.coverage .bar {
  display: inline-block;
  width: 100px;
  height: 10px;
  background: %UNCOVERED%;
}

div.coverage .fill {
  height: 10px;
  background: %COVERED%;
}

.source pre {
  font-family: Monaco, Menlo, 'Courier New', monospace;
  font-size: 12px;
  background: white;
}

a.crossref-toggle {
  color: inherit;
  text-decoration: none;
}

span.cross-ref {
  display: none;
  background: #f8f9fa;
  border: 1px solid #ddd;
  margin: 2px 0 2px 40px;
  padding: 4px;
}

span.cross-ref-title {
  font-weight: bold;
}

span.marked0 { background-color: %MARKED0%; display: block; }
span.marked1 { background-color: %MARKED1%; display: block; }
span.inferred0 { background-color: %INFERRED0%; display: block; }
span.inferred1 { background-color: %INFERRED1%; display: block; }
span.uncovered0 { background-color: %UNCOVERED0%; display: block; }
span.uncovered1 { background-color: %UNCOVERED1%; display: block; }
`

var (
	colorPalette = strings.NewReplacer(
		"%BACKGROUND%", "rgb(240, 240, 245)",
		"%COVERED%", "rgb(40, 167, 69)",
		"%UNCOVERED%", "rgb(220, 53, 69)",
		"%MARKED0%", "rgb(185, 210, 200)",
		"%MARKED1%", "rgb(190, 215, 205)",
		"%INFERRED0%", "rgb(175, 200, 200)",
		"%INFERRED1%", "rgb(180, 205, 205)",
		"%UNCOVERED0%", "rgb(225, 110, 110)",
		"%UNCOVERED1%", "rgb(235, 120, 120)",
	)
	// monoPalette stays readable without hue, for colourblind readers.
	monoPalette = strings.NewReplacer(
		"%BACKGROUND%", "rgb(255, 255, 255)",
		"%COVERED%", "rgb(90, 90, 90)",
		"%UNCOVERED%", "rgb(220, 220, 220)",
		"%MARKED0%", "rgb(255, 255, 255)",
		"%MARKED1%", "rgb(245, 245, 245)",
		"%INFERRED0%", "rgb(235, 235, 235)",
		"%INFERRED1%", "rgb(225, 225, 225)",
		"%UNCOVERED0%", "rgb(160, 160, 160)",
		"%UNCOVERED1%", "rgb(150, 150, 150)",
	)
)

// Stylesheet is the generated report.css: the page layout, the coverage
// block classes and the 101 profiling intensity classes.
func Stylesheet(color bool) string {
	palette := monoPalette
	if color {
		palette = colorPalette
	}
	return palette.Replace(baseCSS) + "\n" + colorscale.Stylesheet(color)
}
