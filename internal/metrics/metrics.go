// Package metrics records run statistics for the harvester with prometheus.
//
// A Recorder owns its registry, so several can coexist (one per run, one
// per test). The harvester is a batch job, so metrics are exported by
// writing a node-exporter textfile rather than serving /metrics.
//
// All methods are safe on a nil *Recorder, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "eventharvest"

// Source outcomes
const (
	SourceSuccess = "success"
	SourceFailed  = "failed"
)

// Candidate outcomes
const (
	CandidateAccepted = "accepted"
	CandidateRejected = "rejected"
)

// Recorder holds the run metrics
type Recorder struct {
	registry *prometheus.Registry

	sources        *prometheus.CounterVec
	candidates     *prometheus.CounterVec
	fetches        *prometheus.CounterVec
	merges         prometheus.Counter
	sourceDuration prometheus.Histogram
	catalogSize    prometheus.Gauge
	lastRun        prometheus.Gauge
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.sources = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sources_total",
		Help:      "Sources processed by outcome",
	}, []string{"status"})
	r.candidates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candidates_total",
		Help:      "Extracted candidates by validation outcome",
	}, []string{"outcome"})
	r.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetches_total",
		Help:      "Fetch calls by result",
	}, []string{"result"})
	r.merges = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "merges_total",
		Help:      "Events folded into an existing record by deduplication",
	})
	r.sourceDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_duration_seconds",
		Help:      "Time spent fetching, extracting and validating one source",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	r.catalogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_events",
		Help:      "Events in the catalog after the last run",
	})
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})

	r.registry.MustRegister(
		r.sources, r.candidates, r.fetches, r.merges,
		r.sourceDuration, r.catalogSize, r.lastRun,
	)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Source records one finished source
func (r *Recorder) Source(status string, took time.Duration) {
	if r == nil {
		return
	}
	r.sources.WithLabelValues(status).Inc()
	r.sourceDuration.Observe(took.Seconds())
}

// Candidate records one validation outcome
func (r *Recorder) Candidate(outcome string) {
	if r == nil {
		return
	}
	r.candidates.WithLabelValues(outcome).Inc()
}

// Fetch records one fetch result. Its signature matches fetch.Options.OnResult.
func (r *Recorder) Fetch(result string) {
	if r == nil {
		return
	}
	r.fetches.WithLabelValues(result).Inc()
}

// Merges adds n deduplication merges
func (r *Recorder) Merges(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.merges.Add(float64(n))
}

// Finished records the catalog size and completion time of a run
func (r *Recorder) Finished(catalogSize int, at time.Time) {
	if r == nil {
		return
	}
	r.catalogSize.Set(float64(catalogSize))
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes the metrics in the text exposition format, atomically
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return eris.Wrapf(err, "metrics: write %s", path)
	}
	return nil
}
