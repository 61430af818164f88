package usecase

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	usecaseTracer   = otel.Tracer("frozenbet/internal/usecase")
	usecaseNoopSpan = trace.SpanFromContext(context.Background())
)

// startUsecaseSpan only opens spans under an existing trace, so background work started
// without a request context stays untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	name = strings.TrimSpace(name)
	if name == "" || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	if service, _, ok := strings.Cut(strings.TrimPrefix(name, "usecase."), "."); ok {
		attrs = append(attrs, attribute.String("usecase.service", service))
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
