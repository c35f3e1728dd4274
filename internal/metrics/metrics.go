// Package metrics exposes Prometheus instrumentation for brief generation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dailybrief"

// Metrics holds all generation metrics. A nil *Metrics is a no-op.
type Metrics struct {
	// Generation
	BriefsGenerated  *prometheus.CounterVec
	BriefsSuperseded prometheus.Counter
	BriefItems       prometheus.Histogram
	CandidatePool    prometheus.Histogram

	// Source fan-out
	SourceFetches       *prometheus.CounterVec
	SourceFetchDuration *prometheus.HistogramVec

	// Personalization
	EngagementEvents *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers metrics on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BriefsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "briefs_generated_total",
			Help:      "Briefs generated, by mode.",
		}, []string{"mode"}),
		BriefsSuperseded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "briefs_superseded_total",
			Help:      "Generations discarded because a newer one started.",
		}),
		BriefItems: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "brief_items",
			Help:      "Number of items per generated brief.",
			Buckets:   prometheus.LinearBuckets(0, 2, 9),
		}),
		CandidatePool: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidate_pool_size",
			Help:      "Candidates available to a generation after normalization.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		SourceFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Source fetches, by source and outcome.",
		}, []string{"source", "outcome"}),
		SourceFetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Time spent fetching one source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		EngagementEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engagement_events_total",
			Help:      "Recorded engagement events, by action and whether the brief item was known.",
		}, []string{"action", "known"}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveBrief records one completed generation.
func (m *Metrics) ObserveBrief(mode string, items, candidates int) {
	if m == nil {
		return
	}
	m.BriefsGenerated.WithLabelValues(mode).Inc()
	m.BriefItems.Observe(float64(items))
	m.CandidatePool.Observe(float64(candidates))
}

// ObserveSuperseded records a discarded generation.
func (m *Metrics) ObserveSuperseded() {
	if m == nil {
		return
	}
	m.BriefsSuperseded.Inc()
}

// ObserveFetch records one source fetch.
func (m *Metrics) ObserveFetch(source string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SourceFetches.WithLabelValues(source, outcome).Inc()
	m.SourceFetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveEngagement records one engagement event.
func (m *Metrics) ObserveEngagement(action string, known bool) {
	if m == nil {
		return
	}
	label := "false"
	if known {
		label = "true"
	}
	m.EngagementEvents.WithLabelValues(action, label).Inc()
}
