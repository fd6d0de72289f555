package telemetry

import "sixmcp/internal/domain"

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveUpstream(_ domain.UpstreamMetric) {}

func (n *NoopMetrics) ObserveCacheLookup(_ domain.CacheResult) {}

func (n *NoopMetrics) ObserveCacheEviction() {}

func (n *NoopMetrics) SetCacheEntries(_ int) {}

func (n *NoopMetrics) ObserveTool(_ domain.ToolMetric) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
