package observability

import (
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics of the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
	assistantTotal  *prometheus.CounterVec
	storeFallbacks  *prometheus.CounterVec
	storeConnected  prometheus.Gauge
	jobsAged        *prometheus.CounterVec
	contractsSent   prometheus.Counter
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
				Name:    "jjr_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jjr_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jjr_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jjr_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jjr_llm_tokens_total",
				Help: "Total LLM tokens consumed by the job assistant.",
			},
			[]string{"type"},
		),
		assistantTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jjr_assistant_requests_total",
				Help: "Total job assistant requests.",
			},
			[]string{"status"},
		),
		storeFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jjr_store_fallbacks_total",
				Help: "Remote store operations served by the local mirror.",
			},
			[]string{"operation"},
		),
		storeConnected: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "jjr_store_connected",
				Help: "1 when the remote store answered the last call, 0 when running on the mirror.",
			},
		),
		jobsAged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jjr_jobs_aged_total",
				Help: "Jobs whose phase age or stuck flag changed during a sweep.",
			},
			[]string{"stuck"},
		),
		contractsSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jjr_contracts_sent_total",
				Help: "Contracts emailed to customers.",
			},
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

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrAssistant counts an assistant request by outcome (success|error).
func (m *Metrics) IncrAssistant(status string) {
	m.assistantTotal.WithLabelValues(status).Inc()
}

// IncrStoreFallback counts an operation served from the local mirror.
func (m *Metrics) IncrStoreFallback(operation string) {
	m.storeFallbacks.WithLabelValues(operation).Inc()
}

// SetStoreConnected flips the connectivity gauge.
func (m *Metrics) SetStoreConnected(connected bool) {
	if connected {
		m.storeConnected.Set(1)
		return
	}
	m.storeConnected.Set(0)
}

// IncrJobAged counts a job touched by the aging sweep.
func (m *Metrics) IncrJobAged(stuck bool) {
	label := "false"
	if stuck {
		label = "true"
	}
	m.jobsAged.WithLabelValues(label).Inc()
}

// IncrContractSent counts a delivered contract.
func (m *Metrics) IncrContractSent() {
	m.contractsSent.Inc()
}

// GetAssistantSnapshot returns the figures shown by GET /v1/metrics/assistant.
func (m *Metrics) GetAssistantSnapshot() *domain.AssistantMetrics {
	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	errorCount := getCounterValue(m.assistantTotal, "error")
	totalRequests := getCounterValue(m.assistantTotal, "success") + errorCount
	var cacheHits, cacheMisses float64
	for _, c := range []string{"assistant", "sales_reps"} {
		cacheHits += getCounterValue(m.cacheHits, c)
		cacheMisses += getCounterValue(m.cacheMisses, c)
	}

	var fallbacks float64
	for _, op := range []string{"read", "write"} {
		fallbacks += getCounterValue(m.storeFallbacks, op)
	}

	avgTokens := float64(0)
	errorRate := float64(0)
	cacheHitRate := float64(0)

	if totalRequests > 0 {
		avgTokens = (promptTokens + completionTokens) / totalRequests
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.AssistantMetrics{
		TotalRequests:       int64(totalRequests),
		ErrorRate:           errorRate,
		AvgTokensPerRequest: avgTokens,
		PromptTokens:        int64(promptTokens),
		CompletionTokens:    int64(completionTokens),
		CacheHitRate:        cacheHitRate,
		StoreFallbacks:      int64(fallbacks),
	}
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
