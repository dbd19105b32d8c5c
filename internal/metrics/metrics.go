package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Google Ads API
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec
	TokenCache  *prometheus.CounterVec

	// Sources
	RowsFetched *prometheus.CounterVec

	// Refresh loop
	RefreshRuns     *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	KPIValue        *prometheus.GaugeVec

	// HTTP
	RateLimitHits *prometheus.CounterVec

	// System
	DBConnections *prometheus.GaugeVec
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		APIRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "google_ads_requests_total",
				Help:      "Google Ads API calls by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		APILatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "google_ads_request_duration_seconds",
				Help:      "Google Ads API call latency in seconds, including pagination",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		TokenCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oauth_token_cache_total",
				Help:      "Access token lookups by result",
			},
			[]string{"result"},
		),
		RowsFetched: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metric_rows_fetched_total",
				Help:      "Raw daily metric rows returned by the data source",
			},
			[]string{"source"},
		),
		RefreshRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_runs_total",
				Help:      "Dashboard refresh runs by outcome",
			},
			[]string{"status"},
		),
		RefreshDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Wall time of a full five-range refresh",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		KPIValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "kpi_value",
				Help:      "Latest computed KPI value",
			},
			[]string{"campaign_id", "kpi", "time_range"},
		),
		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Requests rejected by the inbound rate limiter",
			},
			[]string{"scope"},
		),
		DBConnections: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections",
				Help:      "Warehouse connection pool state",
			},
			[]string{"state"},
		),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordAPIRequest records one Google Ads call.
func (m *Metrics) RecordAPIRequest(operation, status string, latency time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(operation, status).Inc()
	m.APILatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// RecordTokenCache records an access token lookup: hit, miss or error.
func (m *Metrics) RecordTokenCache(result string) {
	if m == nil {
		return
	}
	m.TokenCache.WithLabelValues(result).Inc()
}

// RecordRows records rows returned by a source.
func (m *Metrics) RecordRows(source string, n int) {
	if m == nil {
		return
	}
	m.RowsFetched.WithLabelValues(source).Add(float64(n))
}

// RecordRefresh records a finished refresh run.
func (m *Metrics) RecordRefresh(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RefreshRuns.WithLabelValues(status).Inc()
	m.RefreshDuration.Observe(d.Seconds())
}

// SetKPI publishes the latest value of a KPI.
func (m *Metrics) SetKPI(campaignID, kpi, timeRange string, v float64) {
	if m == nil {
		return
	}
	m.KPIValue.WithLabelValues(campaignID, kpi, timeRange).Set(v)
}

// ResetKPIs drops every published KPI value, e.g. when the campaign changes.
func (m *Metrics) ResetKPIs() {
	if m == nil {
		return
	}
	m.KPIValue.Reset()
}

// RecordRateLimitHit records a rejected request.
func (m *Metrics) RecordRateLimitHit(scope string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(scope).Inc()
}

// UpdateDBStats updates warehouse connection metrics.
func (m *Metrics) UpdateDBStats(idle, inUse, total int) {
	if m == nil {
		return
	}
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
	m.DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues("total").Set(float64(total))
}
