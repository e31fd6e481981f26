package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New()
	r.FileWritten("html", 100)
	r.FileWritten("html", 50)
	r.FileWritten("annotate", 10)
	r.SetCoverage(0.5, 0.75)
	r.Observe("html", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(r.FilesRendered.WithLabelValues("html")))
	assert.Equal(t, 160.0, testutil.ToFloat64(r.BytesWritten))
	assert.Equal(t, 0.75, testutil.ToFloat64(r.CodeCoverage))

	path := filepath.Join(t.TempDir(), "covreport.prom")
	require.NoError(t, r.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `covreport_files_rendered_total{formatter="annotate"} 1`)
	assert.Contains(t, string(data), "covreport_format_seconds_count")
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.FileWritten("html", 1)
	r.Observe("html", time.Now())
	r.SetCoverage(1, 1)
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}
