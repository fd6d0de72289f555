package domain

import "time"

// CacheResult labels how a memoized lookup was served.
type CacheResult string

const (
	// CacheResultHit indicates the value came from the cache.
	CacheResultHit CacheResult = "hit"
	// CacheResultMiss indicates an upstream fetch was started.
	CacheResultMiss CacheResult = "miss"
	// CacheResultShared indicates the caller joined an in-flight fetch.
	CacheResultShared CacheResult = "shared"
	// CacheResultExpired indicates a stale entry was dropped before fetching.
	CacheResultExpired CacheResult = "expired"
)

// ToolStatus labels the outcome of a tool call.
type ToolStatus string

const (
	ToolStatusSuccess ToolStatus = "success"
	ToolStatusError   ToolStatus = "error"
)

// UpstreamMetric captures a single catalog API call.
type UpstreamMetric struct {
	Endpoint string
	Outcome  string
	Duration time.Duration
}

// ToolMetric captures a single tool invocation.
type ToolMetric struct {
	Tool     string
	Status   ToolStatus
	Duration time.Duration
}

// Metrics records runtime observations.
type Metrics interface {
	ObserveUpstream(metric UpstreamMetric)
	ObserveCacheLookup(result CacheResult)
	ObserveCacheEviction()
	SetCacheEntries(count int)
	ObserveTool(metric ToolMetric)
}
