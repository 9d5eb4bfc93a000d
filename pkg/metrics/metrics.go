// Package metrics exposes Prometheus counters describing volume ingestion.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion outcomes used as label values
const (
	ResultSuccess   = "success"
	ResultFailed    = "failed"
	ResultCancelled = "cancelled"

	FileDecoded = "decoded"
	FileSkipped = "skipped"
)

// Ingestion groups the collectors updated by a batch ingestion.
// A nil *Ingestion is valid and records nothing.
type Ingestion struct {
	files    *prometheus.CounterVec
	runs     *prometheus.CounterVec
	depth    prometheus.Gauge
	duration prometheus.Histogram
}

// NewIngestion creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewIngestion(reg prometheus.Registerer) *Ingestion {
	m := &Ingestion{
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volumeview",
			Subsystem: "ingest",
			Name:      "files_total",
			Help:      "Source files processed during ingestion, by outcome.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "volumeview",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Ingestion attempts, by result.",
		}, []string{"result"}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "volumeview",
			Subsystem: "volume",
			Name:      "depth",
			Help:      "Depth of the most recently assembled volume.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "volumeview",
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Wall time of ingestion attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.files, m.runs, m.depth, m.duration)
	}
	return m
}

// File records the outcome of decoding one source file
func (m *Ingestion) File(outcome string) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(outcome).Inc()
}

// Finished records the end of an ingestion attempt. depth is ignored
// unless the attempt succeeded.
func (m *Ingestion) Finished(result string, depth int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
	if result == ResultSuccess {
		m.depth.Set(float64(depth))
	}
}

// Files returns the counter for a file outcome
func (m *Ingestion) Files(outcome string) prometheus.Counter {
	return m.files.WithLabelValues(outcome)
}

// Runs returns the counter for a run result
func (m *Ingestion) Runs(result string) prometheus.Counter {
	return m.runs.WithLabelValues(result)
}

// Depth returns the gauge holding the last assembled depth
func (m *Ingestion) Depth() prometheus.Gauge {
	return m.depth
}
