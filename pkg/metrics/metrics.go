// Package metrics provides Prometheus instrumentation for route analyses
// and the HTTP API.
//
// All metric operations are thread-safe via Prometheus's internal locking.
package metrics

import (
	"strconv"

	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/hervehildenbrand/saferoute/pkg/sessionlog"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "saferoute"

// Metrics holds the collectors for analyses and HTTP requests.
type Metrics struct {
	// AnalysesTotal counts route analyses.
	// Labels: status (success, error)
	AnalysesTotal *prometheus.CounterVec

	// PriorityTotal counts successful analyses by priority level.
	// Labels: priority (0-5), recommended (true, false)
	PriorityTotal *prometheus.CounterVec

	// RiskScore observes combined risk scores of successful analyses.
	RiskScore prometheus.Histogram

	// RequestsTotal counts HTTP requests.
	// Labels: route, method, code
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures HTTP request latency.
	// Labels: route, method
	RequestDurationSeconds *prometheus.HistogramVec

	// FeedClients tracks connected WebSocket feed clients.
	FeedClients prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "analyses_total",
				Help:      "Total number of route analyses by status",
			},
			[]string{"status"},
		),
		PriorityTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "analyses_by_priority_total",
				Help:      "Successful route analyses by priority level and recommendation",
			},
			[]string{"priority", "recommended"},
		),
		RiskScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "combined_risk_score",
				Help:      "Combined risk score of analyzed routes",
				Buckets:   []float64{0, 25, 50, 75, 100},
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		RequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		FeedClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "feed",
				Name:      "clients",
				Help:      "Number of connected analysis feed clients",
			},
		),
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.PriorityTotal,
		m.RiskScore,
		m.RequestsTotal,
		m.RequestDurationSeconds,
		m.FeedClients,
	)
	return m
}

// Observe records one analysis. It satisfies risk.Observer.
func (m *Metrics) Observe(e sessionlog.Entry, result models.AnalysisResult) {
	m.AnalysesTotal.WithLabelValues(e.Status).Inc()
	if !result.OK() {
		return
	}
	m.PriorityTotal.WithLabelValues(strconv.Itoa(e.PriorityLevel), strconv.FormatBool(e.IsRecommended)).Inc()
	m.RiskScore.Observe(e.CombinedRiskScore)
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, seconds float64) {
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.RequestDurationSeconds.WithLabelValues(route, method).Observe(seconds)
}
