package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics instruments the SDK. Pass it to the client and wrapper via their
// options; register exactly one instance per process.
type Metrics struct {
	SearchRequestsTotal   *prometheus.CounterVec
	SearchRequestDuration *prometheus.HistogramVec

	FetchRequestsTotal   *prometheus.CounterVec
	FetchRequestDuration prometheus.Histogram

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	ToolCallsTotal *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		SearchRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkup_search_requests_total",
				Help: "Total number of search API requests",
			},
			[]string{"output_type", "status"},
		),
		SearchRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkup_search_request_duration_seconds",
				Help:    "Search request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"output_type"},
		),

		FetchRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkup_fetch_requests_total",
				Help: "Total number of fetch API requests",
			},
			[]string{"status"},
		),
		FetchRequestDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linkup_fetch_request_duration_seconds",
				Help:    "Fetch request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "linkup_cache_hits_total",
				Help: "Total number of response cache hits",
			},
		),
		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "linkup_cache_misses_total",
				Help: "Total number of response cache misses",
			},
		),

		ToolCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkup_tool_calls_total",
				Help: "Total number of search tool calls executed by the OpenAI wrapper",
			},
			[]string{"style"},
		),
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordSearch(outputType, status string, duration time.Duration) {
	m.SearchRequestsTotal.WithLabelValues(outputType, status).Inc()
	m.SearchRequestDuration.WithLabelValues(outputType).Observe(duration.Seconds())
}

func (m *Metrics) RecordFetch(status string, duration time.Duration) {
	m.FetchRequestsTotal.WithLabelValues(status).Inc()
	m.FetchRequestDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) RecordToolCall(style string) {
	m.ToolCallsTotal.WithLabelValues(style).Inc()
}
