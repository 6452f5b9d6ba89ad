package observability

import (
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	accessResolution *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	checkoutFailures *prometheus.CounterVec
	salesRevenue     *prometheus.CounterVec
	tokensUsed       *prometheus.CounterVec
	assistantTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fluxia_operation_duration_seconds",
				Help:    "Duration of operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxia_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxia_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxia_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		accessResolution: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxia_access_resolutions_total",
				Help: "Tenant access resolutions by outcome.",
			},
			[]string{"state"},
		),
		checkouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxia_checkouts_total",
				Help: "Committed checkouts by payment mode.",
			},
			[]string{"mode"},
		),
		checkoutFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxia_checkout_failures_total",
				Help: "Rejected or failed checkouts by reason.",
			},
			[]string{"reason"},
		),
		salesRevenue: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxia_sales_revenue_total",
				Help: "Grand total of committed sales.",
			},
			[]string{"status"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxia_llm_tokens_total",
				Help: "Total LLM tokens consumed by the assistant.",
			},
			[]string{"type"},
		),
		assistantTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fluxia_assistant_requests_total",
				Help: "Assistant requests by outcome.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrAccess counts a tenant resolution outcome.
func (m *Metrics) IncrAccess(state domain.AccessState) {
	m.accessResolution.WithLabelValues(string(state)).Inc()
}

// RecordCheckout counts a committed checkout and its revenue.
func (m *Metrics) RecordCheckout(mode domain.PaymentMode, status domain.SaleStatus, total decimal.Decimal) {
	m.checkouts.WithLabelValues(string(mode)).Inc()
	m.salesRevenue.WithLabelValues(string(status)).Add(total.InexactFloat64())
}

// IncrCheckoutFailure counts a checkout that did not commit.
func (m *Metrics) IncrCheckoutFailure(reason string) {
	m.checkoutFailures.WithLabelValues(reason).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrAssistant counts an assistant request with a status label.
func (m *Metrics) IncrAssistant(status string) {
	m.assistantTotal.WithLabelValues(status).Inc()
}

// AssistantSnapshot returns a snapshot of assistant metrics for GET /v1/metrics/assistant.
func (m *Metrics) AssistantSnapshot() *domain.AssistantMetrics {
	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	success := getCounterValue(m.assistantTotal, "success")
	errorCount := getCounterValue(m.assistantTotal, "error")
	hits := getCounterValue(m.cacheHits, "snapshot")
	misses := getCounterValue(m.cacheMisses, "snapshot")

	total := success + errorCount
	avgTokens, errorRate, hitRate := 0.0, 0.0, 0.0
	if total > 0 {
		avgTokens = (promptTokens + completionTokens) / total
		errorRate = errorCount / total
	}
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.AssistantMetrics{
		TotalRequests:       int64(total),
		ErrorRate:           errorRate,
		AvgTokensPerRequest: avgTokens,
		SnapshotHitRate:     hitRate,
		Period:              "all_time",
	}
}

// CounterValue returns the current value of a labelled counter; used by tests and snapshots.
func (m *Metrics) CounterValue(name, label string) float64 {
	switch name {
	case "checkouts":
		return getCounterValue(m.checkouts, label)
	case "checkout_failures":
		return getCounterValue(m.checkoutFailures, label)
	case "access":
		return getCounterValue(m.accessResolution, label)
	case "external_errors":
		return getCounterValue(m.externalErrors, label)
	}
	return 0
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
