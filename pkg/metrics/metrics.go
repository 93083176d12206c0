// Package metrics defines the Prometheus collectors for a featurization run
// and exposes an HTTP handler for scraping. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	PostsTotal        *prometheus.CounterVec
	RecordsWritten    *prometheus.CounterVec
	TokensPerPost     prometheus.Histogram
	CacheLookupsTotal *prometheus.CounterVec
	RunDuration       prometheus.Gauge
	SubmissionRecords *prometheus.CounterVec
}

// New creates the collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates the collectors and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PostsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "featurize_posts_total",
				Help: "Posts read, by outcome (train, test, dropped_short, skipped).",
			},
			[]string{"outcome"},
		),
		RecordsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "featurize_records_written_total",
				Help: "Feature lines written, by split and sink.",
			},
			[]string{"split", "sink"},
		),
		TokensPerPost: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "featurize_tokens_per_post",
				Help:    "Word and punctuation tokens kept per post.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "label_cache_lookups_total",
				Help: "Label cache lookups by map and result (hit, miss).",
			},
			[]string{"map", "result"},
		),
		RunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "featurize_run_duration_seconds",
				Help: "Wall time of the last dataset build.",
			},
		),
		SubmissionRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "submission_records_total",
				Help: "Submission records written, by predicted gender.",
			},
			[]string{"gender"},
		),
	}

	reg.MustRegister(
		m.PostsTotal,
		m.RecordsWritten,
		m.TokensPerPost,
		m.CacheLookupsTotal,
		m.RunDuration,
		m.SubmissionRecords,
	)

	return m
}

func (m *Metrics) ObservePost(outcome string, tokens int) {
	if m == nil {
		return
	}
	m.PostsTotal.WithLabelValues(outcome).Inc()
	if outcome != "skipped" {
		m.TokensPerPost.Observe(float64(tokens))
	}
}

func (m *Metrics) ObserveRecord(split, sink string) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues(split, sink).Inc()
}

func (m *Metrics) ObserveCacheLookup(name, result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(name, result).Inc()
}

func (m *Metrics) ObserveRunDuration(seconds float64) {
	if m == nil {
		return
	}
	m.RunDuration.Set(seconds)
}

func (m *Metrics) ObserveSubmission(gender string) {
	if m == nil {
		return
	}
	m.SubmissionRecords.WithLabelValues(gender).Inc()
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
