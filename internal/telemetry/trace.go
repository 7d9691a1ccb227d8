package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span for a service operation. Without a configured
// tracer provider the span is a no-op.
//
//	ctx, span := telemetry.StartSpan(ctx, "hotel/services/rooms", "rooms.Create",
//	    attribute.String(telemetry.AttrRoomID, id),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and sets the span status to error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Span attribute keys
const (
	AttrRoomID        = "room.id"
	AttrRoomAction    = "room.action"
	AttrPrincipalID   = "principal.id"
	AttrPrincipalRole = "principal.role"
)
