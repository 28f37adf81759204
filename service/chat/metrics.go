package chat

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// hubMetrics reports through the global MeterProvider, a no-op until the
// process installs one.
type hubMetrics struct {
	connections metric.Int64UpDownCounter
	routed      metric.Int64Counter
	rejected    metric.Int64Counter
	broadcasts  metric.Int64Counter
	evictions   metric.Int64Counter
	dropped     metric.Int64Counter
}

func newHubMetrics() *hubMetrics {
	meter := otel.Meter("PPDirect/service/chat")
	m := &hubMetrics{}
	m.connections, _ = meter.Int64UpDownCounter("ppdirect_connections",
		metric.WithDescription("Live connections in the registry"))
	m.routed, _ = meter.Int64Counter("ppdirect_messages_routed_total",
		metric.WithDescription("Messages persisted and routed"))
	m.rejected, _ = meter.Int64Counter("ppdirect_messages_rejected_total",
		metric.WithDescription("Inbound payloads rejected, by reason"))
	m.broadcasts, _ = meter.Int64Counter("ppdirect_presence_broadcasts_total",
		metric.WithDescription("Presence snapshots broadcast"))
	m.evictions, _ = meter.Int64Counter("ppdirect_heartbeat_evictions_total",
		metric.WithDescription("Connections evicted by heartbeat timeout"))
	m.dropped, _ = meter.Int64Counter("ppdirect_frames_dropped_total",
		metric.WithDescription("Outbound frames dropped on a full send queue"))
	return m
}

func (m *hubMetrics) reject(reason string) {
	m.rejected.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}

var metrics = newHubMetrics()
