package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is used when no tracer name is configured.
const DefaultTracerName = "tether"

// Span attribute keys.
const (
	AttrChannel = attribute.Key("tether.channel")
	AttrField   = attribute.Key("tether.field")
	AttrClient  = attribute.Key("tether.client")
	AttrOutcome = attribute.Key("tether.outcome")
)

// Tracer returns a tracer from the global provider.
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = DefaultTracerName
	}
	return otel.Tracer(name)
}

// StartEdit starts the span covering one inbound edit.
func StartEdit(ctx context.Context, tracer trace.Tracer, channel, client string) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer("")
	}
	return tracer.Start(ctx, "tether.edit "+channel,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			AttrChannel.String(channel),
			AttrClient.String(client),
		),
	)
}

// EndSpan records outcome and err on span and ends it.
func EndSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(AttrOutcome.String(outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
