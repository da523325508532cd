package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	meterName = "finhealth.websocket"
)

// OTelMetrics provides OpenTelemetry metrics for the state push channel
type OTelMetrics struct {
	// Connection metrics
	connectionsTotal   metric.Int64Counter
	connectionsActive  metric.Int64UpDownCounter
	connectionDuration metric.Float64Histogram

	// Message metrics
	messagesTotal   metric.Int64Counter
	messageBytes    metric.Int64Counter
	droppedMessages metric.Int64Counter

	// Hub metrics
	broadcastOperations metric.Int64Counter
}

// NewOTelMetrics creates the websocket instruments on meter
func NewOTelMetrics(meter metric.Meter) (*OTelMetrics, error) {
	connectionsTotal, err := meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	connectionsActive, err := meter.Int64UpDownCounter(
		"websocket_connections_active",
		metric.WithDescription("Number of active WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	connectionDuration, err := meter.Float64Histogram(
		"websocket_connection_duration_seconds",
		metric.WithDescription("Duration of WebSocket connections"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	messagesTotal, err := meter.Int64Counter(
		"websocket_messages_total",
		metric.WithDescription("Total number of WebSocket messages"),
	)
	if err != nil {
		return nil, err
	}

	messageBytes, err := meter.Int64Counter(
		"websocket_message_bytes_total",
		metric.WithDescription("Total bytes of WebSocket messages"),
	)
	if err != nil {
		return nil, err
	}

	droppedMessages, err := meter.Int64Counter(
		"websocket_dropped_messages_total",
		metric.WithDescription("Total number of dropped WebSocket messages"),
	)
	if err != nil {
		return nil, err
	}

	broadcastOperations, err := meter.Int64Counter(
		"websocket_broadcast_operations_total",
		metric.WithDescription("Total number of WebSocket broadcast operations"),
	)
	if err != nil {
		return nil, err
	}

	return &OTelMetrics{
		connectionsTotal:    connectionsTotal,
		connectionsActive:   connectionsActive,
		connectionDuration:  connectionDuration,
		messagesTotal:       messagesTotal,
		messageBytes:        messageBytes,
		droppedMessages:     droppedMessages,
		broadcastOperations: broadcastOperations,
	}, nil
}

// NoopOTelMetrics returns instruments that record nothing
func NoopOTelMetrics() *OTelMetrics {
	m, _ := NewOTelMetrics(noop.NewMeterProvider().Meter(meterName))
	return m
}

// RecordConnection records a new WebSocket connection
func (m *OTelMetrics) RecordConnection(ctx context.Context) {
	m.connectionsTotal.Add(ctx, 1)
	m.connectionsActive.Add(ctx, 1)
}

// RecordDisconnection records a WebSocket disconnection
func (m *OTelMetrics) RecordDisconnection(ctx context.Context, duration time.Duration, reason string) {
	attrs := metric.WithAttributes(attribute.String("disconnect_reason", reason))
	m.connectionsActive.Add(ctx, -1, attrs)
	m.connectionDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordMessageSent records a message written to a peer
func (m *OTelMetrics) RecordMessageSent(ctx context.Context, messageType string, size int64) {
	attrs := metric.WithAttributes(
		attribute.String("direction", "outbound"),
		attribute.String("message_type", messageType),
	)
	m.messagesTotal.Add(ctx, 1, attrs)
	m.messageBytes.Add(ctx, size, attrs)
}

// RecordMessageReceived records a message read from a peer
func (m *OTelMetrics) RecordMessageReceived(ctx context.Context, size int64) {
	attrs := metric.WithAttributes(attribute.String("direction", "inbound"))
	m.messagesTotal.Add(ctx, 1, attrs)
	m.messageBytes.Add(ctx, size, attrs)
}

// RecordDroppedMessage records a message that never reached a client
func (m *OTelMetrics) RecordDroppedMessage(ctx context.Context, messageType, reason string) {
	m.droppedMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("message_type", messageType),
		attribute.String("drop_reason", reason),
	))
}

// RecordBroadcast records a broadcast fan-out
func (m *OTelMetrics) RecordBroadcast(ctx context.Context, messageType string, clientCount, failCount int64) {
	m.broadcastOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("message_type", messageType),
		attribute.Int64("client_count", clientCount),
		attribute.Int64("fail_count", failCount),
	))
}
