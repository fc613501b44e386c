package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/weatherdeck/weatherdeck/internal/telemetry"

// ProviderMetrics records outbound weather provider calls.
type ProviderMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// NewProviderMetrics creates provider call instruments on the global meter provider.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// RecordRequest records one provider call. A nil receiver is a no-op.
func (m *ProviderMetrics) RecordRequest(ctx context.Context, provider, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	)

	// The caller's context may already be cancelled; metrics must still be recorded.
	ctx = context.WithoutCancel(ctx)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
	m.requestTotal.Add(ctx, 1, attrs)
}

// SessionMetrics records weather session operations.
type SessionMetrics struct {
	operationDuration metric.Float64Histogram
	operationTotal    metric.Int64Counter
	superseded        metric.Int64Counter
	activeSessions    metric.Int64UpDownCounter
}

// NewSessionMetrics creates session instruments on the global meter provider.
func NewSessionMetrics() (*SessionMetrics, error) {
	meter := otel.Meter(meterName)

	operationDuration, err := meter.Float64Histogram(
		"session.operation.duration",
		metric.WithDescription("Duration of session operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	operationTotal, err := meter.Int64Counter(
		"session.operation.total",
		metric.WithDescription("Total number of session operations by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	superseded, err := meter.Int64Counter(
		"session.operation.superseded",
		metric.WithDescription("Operations whose results were discarded by a newer operation"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	activeSessions, err := meter.Int64UpDownCounter(
		"session.active",
		metric.WithDescription("Number of live weather sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	return &SessionMetrics{
		operationDuration: operationDuration,
		operationTotal:    operationTotal,
		superseded:        superseded,
		activeSessions:    activeSessions,
	}, nil
}

// RecordOperation records a settled session operation. A nil receiver is a no-op.
func (m *SessionMetrics) RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("session.operation", operation),
		attribute.String("session.outcome", outcome),
	)
	ctx = context.WithoutCancel(ctx)
	m.operationDuration.Record(ctx, duration.Seconds(), attrs)
	m.operationTotal.Add(ctx, 1, attrs)
}

// RecordSuperseded counts an operation whose result was discarded.
func (m *SessionMetrics) RecordSuperseded(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.superseded.Add(context.WithoutCancel(ctx), 1,
		metric.WithAttributes(attribute.String("session.operation", operation)))
}

// AddActiveSessions adjusts the live session gauge.
func (m *SessionMetrics) AddActiveSessions(delta int64) {
	if m == nil {
		return
	}
	m.activeSessions.Add(context.Background(), delta)
}
