package metrics

import (
	"testing"

	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/hervehildenbrand/saferoute/pkg/sessionlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(prometheus.NewRegistry())
}

func TestObserve_Success(t *testing.T) {
	m := newTestMetrics(t)

	result := models.AnalysisResult{
		Status:         models.StatusSuccess,
		RiskAnalysis:   &models.RiskAnalysis{PriorityLevel: 4, CombinedRiskScore: 75},
		Recommendation: &models.Recommendation{IsRecommended: true, PriorityLevel: 4},
	}
	entry := sessionlog.Entry{Status: models.StatusSuccess, PriorityLevel: 4, CombinedRiskScore: 75, IsRecommended: true}

	m.Observe(entry, result)
	m.Observe(entry, result)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PriorityTotal.WithLabelValues("4", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RiskScore))
}

func TestObserve_Error(t *testing.T) {
	m := newTestMetrics(t)

	result := models.AnalysisResult{Status: models.StatusError, Message: "Location(s) not found: X"}
	m.Observe(sessionlog.Entry{Status: models.StatusError}, result)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("error")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.PriorityTotal))
}

func TestObserveRequest(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveRequest("/v1/matrix", "GET", 200, 0.01)
	m.ObserveRequest("/v1/matrix", "GET", 200, 0.02)
	m.ObserveRequest("/v1/routes/analyze", "POST", 404, 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/matrix", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/v1/routes/analyze", "POST", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDurationSeconds))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
