package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"finhealth/internal/infrastructure"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Outbound queue length per client
	sendBuffer = 16
)

// Timing controls the keepalive cadence of a client
type Timing struct {
	PingPeriod time.Duration
	PongWait   time.Duration
}

func (t Timing) normalize() Timing {
	if t.PongWait <= 0 {
		t.PongWait = 60 * time.Second
	}
	// Pings must arrive before the peer's read deadline expires
	if t.PingPeriod <= 0 || t.PingPeriod >= t.PongWait {
		t.PingPeriod = (t.PongWait * 9) / 10
	}
	return t
}

// Client is a middleman between one console page and the hub
type Client struct {
	hub    *Hub
	conn   Connection
	send   chan []byte
	timing Timing

	// Client metadata
	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient creates a client for conn. traceID may be empty.
func NewClient(hub *Hub, conn Connection, traceID string, timing Timing, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", id),
	)
	if traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		timing:      timing.normalize(),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		logger:      logger,
	}
}

// ID returns the client identifier
func (c *Client) ID() string {
	return c.id
}

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// ReadPump drains the connection until the peer goes away. Pages only send
// heartbeats, so incoming payloads are counted and discarded.
func (c *Client) ReadPump() {
	var received int64
	defer func() {
		c.logger.InfoContext(c.context(), "WebSocket client disconnected (readPump)",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", received))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		received++
		c.hub.metrics.RecordMessageReceived(c.context(), int64(len(message)))
		c.conn.SetReadDeadline(time.Now().Add(c.timing.PongWait))
	}
}

// WritePump forwards hub messages to the connection and keeps it alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.timing.PingPeriod)
	var sent, bytesSent int64
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.InfoContext(c.context(), "WebSocket write pump stopped",
			slog.Int64("messages_sent", sent),
			slog.Int64("bytes_sent", bytesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			sent++
			bytesSent += int64(len(message))
			c.hub.metrics.RecordMessageSent(c.context(), "server_message", int64(len(message)))

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
