package websocket

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the slider channel instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	sessions metric.Int64UpDownCounter
	messages metric.Int64Counter
}

// NewMetrics creates the websocket instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	sessions, err := meter.Int64UpDownCounter("ws_active_sessions",
		metric.WithDescription("Number of open slider sessions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session gauge: %w", err)
	}

	messages, err := meter.Int64Counter("ws_messages_total",
		metric.WithDescription("Websocket frames by direction and type"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message counter: %w", err)
	}

	return &Metrics{sessions: sessions, messages: messages}, nil
}

func (m *Metrics) recordSession(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.sessions.Add(ctx, delta)
}

func (m *Metrics) recordMessage(ctx context.Context, direction, msgType string) {
	if m == nil {
		return
	}
	m.messages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", msgType),
	))
}
