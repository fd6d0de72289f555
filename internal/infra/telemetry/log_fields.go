package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent      = "event"
	FieldTool       = "tool"
	FieldEndpoint   = "endpoint"
	FieldURL        = "url"
	FieldCache      = "cache"
	FieldDataset    = "dataset"
	FieldDurationMs = "duration_ms"
	FieldRequestID  = "request_id"
	FieldTraceID    = "trace_id"
	FieldSpanID     = "span_id"
)

const (
	EventToolCall       = "tool_call"
	EventToolFailure    = "tool_failure"
	EventSnapshotLoad   = "snapshot_load"
	EventSnapshotReload = "snapshot_reload"
	EventSnapshotFailed = "snapshot_reload_failure"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ToolField(name string) zap.Field {
	return zap.String(FieldTool, name)
}

func EndpointField(path string) zap.Field {
	return zap.String(FieldEndpoint, path)
}

func URLField(url string) zap.Field {
	return zap.String(FieldURL, url)
}

func CacheField(key string) zap.Field {
	return zap.String(FieldCache, key)
}

func DatasetField(name string) zap.Field {
	return zap.String(FieldDataset, name)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func RequestIDField(value string) zap.Field {
	return zap.String(FieldRequestID, value)
}

func TraceIDField(value string) zap.Field {
	return zap.String(FieldTraceID, value)
}

func SpanIDField(value string) zap.Field {
	return zap.String(FieldSpanID, value)
}
