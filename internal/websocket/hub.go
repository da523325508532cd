package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"finhealth/internal/infrastructure"
	"finhealth/pkg/contracts/events"
)

// broadcastBuffer bounds how many pushes may queue before the hub drops them
const broadcastBuffer = 64

// Hub maintains the set of open console pages and fans state pushes out to them.
// Broadcasts never block the caller: a full queue or a slow client drops the
// message, and the page catches up on the next push since every push carries
// the latest version.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages for every client
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *OTelMetrics

	// Control
	quit     chan struct{}
	done     chan struct{}
	running  bool
	stopOnce sync.Once
}

// NewHub creates a new Hub. A nil metrics records nothing.
func NewHub(logger *slog.Logger, metrics *OTelMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if metrics == nil {
		metrics = NoopOTelMetrics()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop; it returns once Stop is called
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.RecordConnection(ctx)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.sendConnected(ctx, client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, client)
			close(client.send)
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.RecordDisconnection(ctx, time.Since(client.connectedAt), "normal")
			h.logger.InfoContext(ctx, "Client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) fanOut(message []byte) {
	ctx := context.Background()

	h.mu.Lock()
	defer h.mu.Unlock()

	var failed int64
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// A client that cannot keep up is disconnected; its page reconnects
			close(client.send)
			delete(h.clients, client)
			failed++
			h.metrics.RecordDroppedMessage(ctx, string(events.MessageTypeStateChanged), "client_buffer_full")
			h.logger.Warn("Client buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}
	h.metrics.RecordBroadcast(ctx, string(events.MessageTypeStateChanged), int64(len(h.clients))+failed, failed)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) sendConnected(ctx context.Context, client *Client) {
	data, err := encode(events.MessageTypeConnect, map[string]string{
		"status":    "connected",
		"client_id": client.id,
	}, client.traceID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode connection message",
			slog.String("error", err.Error()))
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.WarnContext(ctx, "Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

// Stop shuts the hub down and closes every client. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})

	h.mu.Lock()
	running := h.running
	h.running = false
	h.mu.Unlock()

	if running {
		<-h.done
	}
}

// Register attaches a client. It reports false once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister detaches a client and closes its send queue
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastState queues a state:changed push for every open page
func (h *Hub) BroadcastState(ctx context.Context, state events.StateChanged) error {
	data, err := encode(events.MessageTypeStateChanged, state, infrastructure.GetTraceID(ctx))
	if err != nil {
		return fmt.Errorf("encode state push: %w", err)
	}

	select {
	case h.broadcast <- data:
		h.logger.DebugContext(ctx, "State push queued",
			slog.Uint64("version", state.Version),
			slog.Bool("loading", state.Loading))
	default:
		h.metrics.RecordDroppedMessage(ctx, string(events.MessageTypeStateChanged), "hub_queue_full")
		h.logger.WarnContext(ctx, "Hub queue full, state push dropped",
			slog.Uint64("version", state.Version))
	}
	return nil
}

func encode(msgType events.MessageType, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.NewString(),
			Type:      msgType,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	})
}
