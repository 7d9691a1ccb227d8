package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ServerMetrics holds metric instruments for HTTP server telemetry.
// Initialize once at server startup and reuse throughout the application lifecycle.
type ServerMetrics struct {
	RequestCounter  metric.Int64Counter       // Total HTTP requests
	RequestDuration metric.Float64Histogram   // HTTP request latency
	ActiveRequests  metric.Int64UpDownCounter // In-flight HTTP requests
	ErrorCounter    metric.Int64Counter       // Total HTTP errors (5xx)
}

// NewServerMetrics creates the HTTP instruments on meter.
func NewServerMetrics(meter metric.Meter) (*ServerMetrics, error) {
	requestCounter, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	// Buckets: 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s
	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"http.server.error.count",
		metric.WithDescription("Total number of HTTP server errors (5xx)"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &ServerMetrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		ActiveRequests:  activeRequests,
		ErrorCounter:    errorCounter,
	}, nil
}

// RecordRequest records an HTTP request with method, route, status, and duration.
func (m *ServerMetrics) RecordRequest(ctx context.Context, method, route, status string, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.String(AttrHTTPStatusCode, status),
	)

	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, durationMs, attrs)

	if len(status) > 0 && status[0] == '5' {
		m.ErrorCounter.Add(ctx, 1, attrs)
	}
}

// RequestStarted increments the in-flight counter.
func (m *ServerMetrics) RequestStarted(ctx context.Context) {
	m.ActiveRequests.Add(ctx, 1)
}

// RequestFinished decrements the in-flight counter.
func (m *ServerMetrics) RequestFinished(ctx context.Context) {
	m.ActiveRequests.Add(ctx, -1)
}

// GuardMetrics counts page guard outcomes. It satisfies guard.DecisionRecorder.
type GuardMetrics struct {
	Decisions metric.Int64Counter
}

// NewGuardMetrics creates the guard decision counter on meter.
func NewGuardMetrics(meter metric.Meter) (*GuardMetrics, error) {
	decisions, err := meter.Int64Counter(
		"guard.decision.count",
		metric.WithDescription("Page guard decisions by outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}
	return &GuardMetrics{Decisions: decisions}, nil
}

// RecordGuardDecision counts one decision (authorized, unauthenticated or forbidden).
func (g *GuardMetrics) RecordGuardDecision(ctx context.Context, outcome string) {
	g.Decisions.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrGuardOutcome, outcome)))
}

// AuthMetrics holds metric instruments for magic-link sign-in.
type AuthMetrics struct {
	AuthAttempts metric.Int64Counter // magic links requested and codes exchanged
	AuthFailures metric.Int64Counter
}

// NewAuthMetrics creates the sign-in instruments on meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	authAttempts, err := meter.Int64Counter(
		"auth.attempt.count",
		metric.WithDescription("Total number of sign-in steps attempted"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	authFailures, err := meter.Int64Counter(
		"auth.failure.count",
		metric.WithDescription("Total number of failed sign-in steps"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{
		AuthAttempts: authAttempts,
		AuthFailures: authFailures,
	}, nil
}

// RecordAuth records a sign-in step (AuthStepMagicLink or AuthStepExchange).
func (a *AuthMetrics) RecordAuth(ctx context.Context, step string, success bool) {
	attrs := metric.WithAttributes(
		attribute.String(AttrAuthStep, step),
		attribute.Bool(AttrAuthSuccess, success),
	)

	a.AuthAttempts.Add(ctx, 1, attrs)
	if !success {
		a.AuthFailures.Add(ctx, 1, attrs)
	}
}

// Sign-in steps.
const (
	AuthStepMagicLink = "magic_link"
	AuthStepExchange  = "exchange"
)

// Common metric attribute keys
const (
	AttrHTTPMethod     = "http.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.status_code"

	AttrGuardOutcome = "guard.outcome"

	AttrAuthStep    = "auth.step"
	AttrAuthSuccess = "auth.success"
)
