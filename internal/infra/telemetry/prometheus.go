package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sixmcp/internal/domain"
)

type PrometheusMetrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	cacheEvictions   prometheus.Counter
	cacheEntries     prometheus.Gauge
	toolCalls        *prometheus.CounterVec
	toolDuration     *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sixmcp_upstream_requests_total",
				Help: "Total number of catalog API requests",
			},
			[]string{"endpoint", "outcome"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sixmcp_upstream_request_duration_seconds",
				Help:    "Duration of catalog API requests in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sixmcp_cache_lookups_total",
				Help: "Total number of memoized catalog lookups by result",
			},
			[]string{"result"},
		),
		cacheEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sixmcp_cache_evictions_total",
				Help: "Total number of entries evicted from the request cache",
			},
		),
		cacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sixmcp_cache_entries",
				Help: "Current number of entries in the request cache",
			},
		),
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sixmcp_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"tool", "status"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sixmcp_tool_call_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"tool"},
		),
	}
}

func (p *PrometheusMetrics) ObserveUpstream(metric domain.UpstreamMetric) {
	p.upstreamRequests.WithLabelValues(metric.Endpoint, metric.Outcome).Inc()
	p.upstreamDuration.WithLabelValues(metric.Endpoint).Observe(metric.Duration.Seconds())
}

func (p *PrometheusMetrics) ObserveCacheLookup(result domain.CacheResult) {
	p.cacheLookups.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusMetrics) ObserveCacheEviction() {
	p.cacheEvictions.Inc()
}

func (p *PrometheusMetrics) SetCacheEntries(count int) {
	p.cacheEntries.Set(float64(count))
}

func (p *PrometheusMetrics) ObserveTool(metric domain.ToolMetric) {
	p.toolCalls.WithLabelValues(metric.Tool, string(metric.Status)).Inc()
	p.toolDuration.WithLabelValues(metric.Tool).Observe(metric.Duration.Seconds())
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
