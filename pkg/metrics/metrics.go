// Package metrics provides Prometheus metrics for the wiki.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes, used as the "outcome" label.
const (
	OutcomeRender   = "render"
	OutcomeRedirect = "redirect"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for the wiki
type Metrics struct {
	// Request-time resolution
	ResolutionsTotal *prometheus.CounterVec
	RenderDuration   prometheus.Histogram

	// Indexing
	IndexBuildsTotal   *prometheus.CounterVec
	IndexBuildDuration prometheus.Histogram
	IndexEntries       prometheus.Gauge
	IndexArticles      prometheus.Gauge
	HistoryFailures    prometheus.Counter
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// registers with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wiki_resolutions_total",
				Help: "Total number of page resolutions by outcome",
			},
			[]string{"outcome"},
		),
		RenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wiki_render_duration_seconds",
				Help:    "Duration of article rendering in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		IndexBuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wiki_index_builds_total",
				Help: "Total number of index builds by status",
			},
			[]string{"status"},
		),
		IndexBuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wiki_index_build_duration_seconds",
				Help:    "Duration of index builds in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		IndexEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wiki_index_entries",
				Help: "Number of entries in the served index",
			},
		),
		IndexArticles: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wiki_index_articles",
				Help: "Number of articles across all entries in the served index",
			},
		),
		HistoryFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wiki_history_lookup_failures_total",
				Help: "History lookups that failed and fell back to absent timestamps",
			},
		),
	}
}

// RecordResolution counts one resolution outcome. Safe on a nil receiver.
func (m *Metrics) RecordResolution(outcome string) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRender records how long rendering took. Safe on a nil receiver.
func (m *Metrics) ObserveRender(start time.Time) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(time.Since(start).Seconds())
}

// RecordBuild records a finished index build. Safe on a nil receiver.
func (m *Metrics) RecordBuild(start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.IndexBuildsTotal.WithLabelValues(status).Inc()
	m.IndexBuildDuration.Observe(time.Since(start).Seconds())
}

// SetIndexSize publishes the size of the served index. Safe on a nil receiver.
func (m *Metrics) SetIndexSize(entries, articles int) {
	if m == nil {
		return
	}
	m.IndexEntries.Set(float64(entries))
	m.IndexArticles.Set(float64(articles))
}

// RecordHistoryFailure counts a failed history lookup. Safe on a nil receiver.
func (m *Metrics) RecordHistoryFailure() {
	if m == nil {
		return
	}
	m.HistoryFailures.Inc()
}
