package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopmirror"

// Metrics holds every collector the service exports. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	SyncRuns           *prometheus.CounterVec
	SyncRecords        *prometheus.CounterVec
	SyncRecordFailures *prometheus.CounterVec
	SyncDuration       *prometheus.HistogramVec
	SyncRetries        *prometheus.CounterVec
	SchedulerCycles    *prometheus.CounterVec
	WebhookEvents      *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers the collectors on reg, or on the default registry when reg
// is nil.
func New(reg *prometheus.Registry) *Metrics {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	if reg != nil {
		gatherer, registerer = reg, reg
	}
	f := promauto.With(registerer)
	return &Metrics{
		gatherer: gatherer,
		SyncRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync attempts by kind and ledger status.",
		}, []string{"kind", "status"}),
		SyncRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_records_total",
			Help:      "Records upserted by the reconciler.",
		}, []string{"kind"}),
		SyncRecordFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_record_failures_total",
			Help:      "Records skipped because mapping or the write failed.",
		}, []string{"kind"}),
		SyncDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of one sync attempt.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"kind"}),
		SyncRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_rate_limit_retries_total",
			Help:      "Backoff retries after HTTP 429 from the store API.",
		}, []string{"kind"}),
		SchedulerCycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_cycles_total",
			Help:      "Scheduler cycles by outcome (completed, skipped).",
		}, []string{"outcome"}),
		WebhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by kind and outcome.",
		}, []string{"kind", "outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) ObserveSync(kind, status string, records, failures int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SyncRuns.WithLabelValues(kind, status).Inc()
	m.SyncRecords.WithLabelValues(kind).Add(float64(records))
	m.SyncRecordFailures.WithLabelValues(kind).Add(float64(failures))
	m.SyncDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) IncRetry(kind string) {
	if m == nil {
		return
	}
	m.SyncRetries.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncCycle(outcome string) {
	if m == nil {
		return
	}
	m.SchedulerCycles.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncWebhook(kind, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(kind, outcome).Inc()
}

// Middleware records every request under its route template, so
// /api/webhooks/:topic stays one series.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) Register(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(m.Handler()))
}
