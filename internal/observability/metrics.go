// Package observability provides Prometheus metrics and tracing setup.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Forecast metrics
	ForecastRunsTotal    *prometheus.CounterVec
	ForecastRunDuration  prometheus.Histogram
	ProjectionPoints     prometheus.Counter
	SnapshotsComputed    *prometheus.CounterVec
	AccountErrors        *prometheus.CounterVec
	RiskAlertsSent       *prometheus.CounterVec
	LastSuccessfulRun    prometheus.Gauge

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRateLimited     prometheus.Counter

	// Rates metrics
	RateFetches *prometheus.CounterVec
}

// NewMetrics registers a metrics set on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "finance_dashboard"
	}
	factory := promauto.With(reg)

	return &Metrics{
		ForecastRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "runs_total",
			Help:      "Total number of forecast runs by status",
		}, []string{"status"}),
		ForecastRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "run_duration_seconds",
			Help:      "Forecast run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		ProjectionPoints: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "projection_points_total",
			Help:      "Total number of projected balance points stored",
		}),
		SnapshotsComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "snapshots_total",
			Help:      "Total number of metrics snapshots by risk score",
		}, []string{"risk"}),
		AccountErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "account_errors_total",
			Help:      "Total number of per-account forecast failures by stage",
		}, []string{"stage"}),
		RiskAlertsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "risk_alerts_total",
			Help:      "Total number of risk alerts by outcome",
		}, []string{"outcome"}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful forecast run",
		}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
		HTTPRateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),

		RateFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rates",
			Name:      "fetches_total",
			Help:      "Total number of exchange rate fetches by status",
		}, []string{"status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is registered on the default Prometheus registry.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordForecastRun records a finished run.
func (m *Metrics) RecordForecastRun(status string, d time.Duration) {
	m.ForecastRunsTotal.WithLabelValues(status).Inc()
	m.ForecastRunDuration.Observe(d.Seconds())
	if status == "success" {
		m.LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordSnapshot counts a stored snapshot by its risk score.
func (m *Metrics) RecordSnapshot(risk string) {
	m.SnapshotsComputed.WithLabelValues(risk).Inc()
}

// RecordAccountError counts a per-account failure.
func (m *Metrics) RecordAccountError(stage string) {
	m.AccountErrors.WithLabelValues(stage).Inc()
}

// RecordAlert counts a risk alert by outcome ("sent" or "failed").
func (m *Metrics) RecordAlert(outcome string) {
	m.RiskAlertsSent.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest observes a served request.
func (m *Metrics) RecordHTTPRequest(route, method string, code int, d time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(route, method, http.StatusText(code)).Observe(d.Seconds())
}

// RecordRateFetch counts an exchange rate fetch.
func (m *Metrics) RecordRateFetch(err error) {
	if err != nil {
		m.RateFetches.WithLabelValues("error").Inc()
		return
	}
	m.RateFetches.WithLabelValues("ok").Inc()
}
