// Package context carries per-call tracing values through context.Context.
package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext identifies one logical user action and the HTTP calls it makes.
// A single action (for example creating a transaction and refetching the part)
// shares TraceID while every outbound request gets its own RequestID.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetTraceID returns trace ID from context or generates new one.
func GetTraceID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.TraceID
	}
	return uuid.New().String()
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext creates a new TraceContext with generated IDs.
func NewTraceContext() *TraceContext {
	return &TraceContext{
		TraceID:   uuid.New().String(),
		SpanID:    uuid.New().String()[:16],
		RequestID: uuid.New().String(),
	}
}

// ForRequest derives the trace for one outbound request: the trace id is
// inherited from ctx when present, the request and span ids are always fresh.
func ForRequest(ctx context.Context) (context.Context, *TraceContext) {
	trace := &TraceContext{
		TraceID:   GetTraceID(ctx),
		SpanID:    uuid.New().String()[:16],
		RequestID: uuid.New().String(),
	}
	return WithTrace(ctx, trace), trace
}
