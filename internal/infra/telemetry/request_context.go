package telemetry

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestIDHeader carries a caller-supplied request ID on the streamable HTTP transport.
const RequestIDHeader = "X-Request-Id"

type requestContextKey struct{}

type headerRequestIDKey struct{}

// RequestMeta identifies one tool call for log correlation.
type RequestMeta struct {
	RequestID string
	Tool      string
	TraceID   string
	SpanID    string
}

func (m RequestMeta) IsZero() bool {
	return m.RequestID == "" && m.Tool == "" && m.TraceID == "" && m.SpanID == ""
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	if meta.IsZero() {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestContextKey{}, meta)
}

func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(requestContextKey{}).(RequestMeta)
	return meta, ok && !meta.IsZero()
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	meta, ok := RequestMetaFromContext(ctx)
	if !ok || meta.RequestID == "" {
		return "", false
	}
	return meta.RequestID, true
}

func NewRequestID() string {
	return uuid.NewString()
}

// WithHeaderRequestID remembers the request ID an HTTP caller sent so the
// tool layer can reuse it instead of minting a new one.
func WithHeaderRequestID(ctx context.Context, header http.Header) context.Context {
	if header == nil {
		return ctx
	}
	id := strings.TrimSpace(header.Get(RequestIDHeader))
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, headerRequestIDKey{}, id)
}

// HeaderRequestID returns the ID stored by WithHeaderRequestID.
func HeaderRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(headerRequestIDKey{}).(string)
	return id
}

func TraceSpanFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return "", ""
	}
	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}

// StartToolRequest attaches request metadata for a tool call. An empty
// requestID falls back to the inherited one, then to a fresh UUID.
func StartToolRequest(ctx context.Context, tool, requestID string) (context.Context, RequestMeta) {
	if requestID == "" {
		requestID = HeaderRequestID(ctx)
	}
	if requestID == "" {
		if existing, ok := RequestMetaFromContext(ctx); ok {
			requestID = existing.RequestID
		}
	}
	if requestID == "" {
		requestID = NewRequestID()
	}
	traceID, spanID := TraceSpanFromContext(ctx)
	meta := RequestMeta{
		RequestID: requestID,
		Tool:      tool,
		TraceID:   traceID,
		SpanID:    spanID,
	}
	return WithRequestMeta(ctx, meta), meta
}

func RequestFields(meta RequestMeta) []zap.Field {
	if meta.IsZero() {
		return nil
	}
	fields := make([]zap.Field, 0, 4)
	if meta.RequestID != "" {
		fields = append(fields, RequestIDField(meta.RequestID))
	}
	if meta.Tool != "" {
		fields = append(fields, ToolField(meta.Tool))
	}
	if meta.TraceID != "" {
		fields = append(fields, TraceIDField(meta.TraceID))
	}
	if meta.SpanID != "" {
		fields = append(fields, SpanIDField(meta.SpanID))
	}
	return fields
}

// LoggerWithRequest decorates base with the request fields found in ctx.
func LoggerWithRequest(ctx context.Context, base *zap.Logger) *zap.Logger {
	logger := base
	if logger == nil {
		logger = zap.NewNop()
	}
	meta, ok := RequestMetaFromContext(ctx)
	if !ok {
		return logger
	}
	return logger.With(RequestFields(meta)...)
}
