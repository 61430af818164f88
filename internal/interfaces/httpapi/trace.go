package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer = otel.Tracer("frozenbet/internal/interfaces/httpapi")
	noopSpan  = trace.SpanFromContext(context.Background())
)

// startSpan opens a child span for handler entry points only. Helpers and requests that
// were filtered out of tracing get a no-op span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !strings.HasPrefix(name, handlerSpanPrefix) {
		return ctx, noopSpan
	}
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noopSpan
	}

	attrs := []attribute.KeyValue{attribute.String("handler", strings.TrimPrefix(name, handlerSpanPrefix))}
	if id := requestIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("request.id", id))
	}
	if p, ok := principalFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("enduser.id", p.UserID))
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// shouldTraceRequest skips probes and the live-score stream, whose span would stay open
// for the whole connection.
func shouldTraceRequest(path string) bool {
	normalized := strings.ToLower(strings.TrimSpace(path))
	switch normalized {
	case "/healthz", "/health", "/livez", "/readyz", "/v1/sse/live-scores":
		return false
	}
	return true
}
