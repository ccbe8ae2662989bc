// Package metrics records run counters in a Prometheus registry and exports
// them in the node exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

const (
	namespace = "codebert"
	subsystem = "scanner"
)

// Recorder collects scan metrics. A nil Recorder discards everything.
type Recorder struct {
	registry *prometheus.Registry

	files            *prometheus.CounterVec
	candidates       *prometheus.CounterVec
	findings         *prometheus.CounterVec
	classifyErrors   *prometheus.CounterVec
	classifyDuration prometheus.Histogram
	scanDuration     prometheus.Gauge
}

// New creates a recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "files_total",
			Help:      "Files processed by outcome.",
		}, []string{"outcome"}),

		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "candidates_total",
			Help:      "Candidates by suppression verdict.",
		}, []string{"verdict"}),

		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "findings_total",
			Help:      "Findings by severity and vulnerability type.",
		}, []string{"severity", "vulnerability"}),

		classifyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "classification_errors_total",
			Help:      "Failed classifications by kind.",
		}, []string{"kind"}),

		classifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "classification_duration_seconds",
			Help:      "Time spent classifying one candidate.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),

		scanDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}

	r.registry.MustRegister(
		r.files,
		r.candidates,
		r.findings,
		r.classifyErrors,
		r.classifyDuration,
		r.scanDuration,
	)
	return r
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// FileOpened counts a file that was read
func (r *Recorder) FileOpened() {
	if r == nil {
		return
	}
	r.files.WithLabelValues("opened").Inc()
}

// FileFailed counts a file that could not be read
func (r *Recorder) FileFailed() {
	if r == nil {
		return
	}
	r.files.WithLabelValues("read_error").Inc()
}

// Verdict counts a suppression decision
func (r *Recorder) Verdict(v models.Verdict) {
	if r == nil {
		return
	}
	r.candidates.WithLabelValues(v.String()).Inc()
}

// Finding counts a reported finding
func (r *Recorder) Finding(f *models.Finding) {
	if r == nil || f == nil {
		return
	}
	r.findings.WithLabelValues(string(f.Severity), string(f.VulnerabilityType)).Inc()
}

// ClassificationFailed counts a failed classification
func (r *Recorder) ClassificationFailed(timeout bool) {
	if r == nil {
		return
	}
	kind := "error"
	if timeout {
		kind = "timeout"
	}
	r.classifyErrors.WithLabelValues(kind).Inc()
}

// ObserveClassification records the latency of one classification
func (r *Recorder) ObserveClassification(d time.Duration) {
	if r == nil {
		return
	}
	r.classifyDuration.Observe(d.Seconds())
}

// ScanFinished records the run duration
func (r *Recorder) ScanFinished(d time.Duration) {
	if r == nil {
		return
	}
	r.scanDuration.Set(d.Seconds())
}

// WriteTextfile writes all metrics to path in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
