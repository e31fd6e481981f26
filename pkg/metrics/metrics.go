// Package metrics records render statistics for a single covreport run and
// can dump them in the Prometheus textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics of one run. A nil *Recorder discards
// everything.
type Recorder struct {
	registry *prometheus.Registry

	FilesRendered  *prometheus.CounterVec
	BytesWritten   prometheus.Counter
	FormatDuration *prometheus.HistogramVec
	CodeCoverage   prometheus.Gauge
	TotalCoverage  prometheus.Gauge
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		FilesRendered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "covreport_files_rendered_total",
			Help: "Number of output files written, by formatter.",
		}, []string{"formatter"}),
		BytesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "covreport_bytes_written_total",
			Help: "Bytes written to report files.",
		}),
		FormatDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "covreport_format_seconds",
			Help:    "Time spent running a formatter.",
			Buckets: prometheus.DefBuckets,
		}, []string{"formatter"}),
		CodeCoverage: f.NewGauge(prometheus.GaugeOpts{
			Name: "covreport_code_coverage_ratio",
			Help: "Aggregate code coverage of the rendered files.",
		}),
		TotalCoverage: f.NewGauge(prometheus.GaugeOpts{
			Name: "covreport_total_coverage_ratio",
			Help: "Aggregate total coverage of the rendered files.",
		}),
	}
}

// FileWritten counts one output file of size bytes.
func (r *Recorder) FileWritten(formatter string, size int) {
	if r == nil {
		return
	}
	r.FilesRendered.WithLabelValues(formatter).Inc()
	r.BytesWritten.Add(float64(size))
}

// Observe records how long formatter took since start.
func (r *Recorder) Observe(formatter string, start time.Time) {
	if r == nil {
		return
	}
	r.FormatDuration.WithLabelValues(formatter).Observe(time.Since(start).Seconds())
}

// SetCoverage sets the aggregate coverage ratios.
func (r *Recorder) SetCoverage(total, code float64) {
	if r == nil {
		return
	}
	r.TotalCoverage.Set(total)
	r.CodeCoverage.Set(code)
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
