package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/felixgeelhaar/smartevents"

// StartCommandSpan creates the root span of a CLI command.
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "smartevents events list")
//	defer span.End()
func StartCommandSpan(ctx context.Context, commandPath string) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer(instrumentationName)
	ctx, span := tracer.Start(ctx, "command "+commandPath)

	span.SetAttributes(
		attribute.String("command", commandPath),
		attribute.String("component", "cli"),
	)
	return ctx, span
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records err on span and sets error status. A nil err is
// ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Transport wraps base so every request becomes a client span named
// "<METHOD> <path>". The provider is captured when Transport is called.
func Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return otelhttp.NewTransport(base,
		otelhttp.WithTracerProvider(GetTracerProvider()),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
