package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordResolution(OutcomeRedirect)
	m.RecordResolution(OutcomeRedirect)
	m.RecordResolution(OutcomeNotFound)
	m.RecordBuild(time.Now(), nil)
	m.RecordBuild(time.Now(), errors.New("boom"))
	m.SetIndexSize(4, 7)
	m.RecordHistoryFailure()

	if got := testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues(OutcomeRedirect)); got != 2 {
		t.Errorf("redirects = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("failed builds = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IndexArticles); got != 7 {
		t.Errorf("articles = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.HistoryFailures); got != 1 {
		t.Errorf("history failures = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordResolution(OutcomeRender)
	m.ObserveRender(time.Now())
	m.RecordBuild(time.Now(), nil)
	m.SetIndexSize(1, 1)
	m.RecordHistoryFailure()
}
