package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"hotfire/internal/config"
	"hotfire/internal/infrastructure"
)

// Message types sent to clients
const (
	TypeConnection = "connection"
	TypeState      = "state"
	TypeClosed     = "session:closed"
	TypeError      = "error"
)

const broadcastQueue = 256

// Message is the envelope of every frame the hub sends.
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// NewMessage stamps a message with the current time.
func NewMessage(messageType, sessionID string, data interface{}, traceID string) Message {
	return Message{
		Type:      messageType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
		TraceID:   traceID,
	}
}

type envelope struct {
	sessionID string
	payload   []byte
}

// Hub maintains the set of active clients and fans session messages out to
// the clients watching that session.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64
	messagesSent     int64
	messagesDropped  int64

	pingPeriod time.Duration
	pongWait   time.Duration

	quit    chan struct{}
	running bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithKeepalive sets how often clients are pinged and how long a silent
// peer is kept. Values where ping is not shorter than pong are ignored.
func WithKeepalive(ping, pong time.Duration) HubOption {
	return func(h *Hub) {
		if ping > 0 && pong > ping {
			h.pingPeriod, h.pongWait = ping, pong
		}
	}
}

// NewHub creates a hub. It does nothing until Start.
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     infrastructure.WithComponent(logger, "websocket.hub"),
		pingPeriod: config.WebSocketPingPeriod,
		pongWait:   config.WebSocketPongWait,
		quit:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start starts the hub's main loop
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

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.add(client)

		case client := <-h.unregister:
			if h.drop(client) {
				h.logger.InfoContext(client.ctx, "Client unregistered",
					slog.Int("total_clients", h.ClientCount()),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// add stores client and greets it with a connection message. The greeting
// follows anything the caller queued before Register.
func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.totalConnections++
	count := len(h.clients)
	h.mu.Unlock()

	client.Enqueue(NewMessage(TypeConnection, client.sessionID, map[string]interface{}{
		"status":    "connected",
		"client_id": client.id,
	}, client.traceID))

	h.logger.InfoContext(client.ctx, "Client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))
}

func (h *Hub) deliver(env envelope) {
	// sends happen under the read lock so no channel is closed mid-send
	h.mu.RLock()
	var full []*Client
	sent := 0
	for client := range h.clients {
		if client.sessionID != env.sessionID {
			continue
		}
		select {
		case client.send <- env.payload:
			sent++
		default:
			full = append(full, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range full {
		h.drop(client)
		h.logger.WarnContext(client.ctx, "Client send buffer full, disconnecting",
			slog.String("client_id", client.id))
	}

	h.mu.Lock()
	h.messagesSent += int64(sent)
	h.mu.Unlock()

	h.logger.Debug("Session broadcast delivered",
		slog.String("session_id", env.sessionID),
		slog.Int("delivered", sent),
		slog.Int("dropped", len(full)),
		slog.Int("message_size", len(env.payload)))
}

// drop removes client and closes its send channel. It reports whether the
// client was still registered.
func (h *Hub) drop(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)
	close(client.send)
	return true
}

// Publish queues a message for every client watching sessionID. It never
// blocks; when the queue is full the message is dropped.
func (h *Hub) Publish(sessionID, messageType string, data interface{}, traceID string) {
	payload, err := json.Marshal(NewMessage(messageType, sessionID, data, traceID))
	if err != nil {
		ctx := infrastructure.WithTraceID(context.Background(), traceID)
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", messageType))
		return
	}

	select {
	case h.broadcast <- envelope{sessionID: sessionID, payload: payload}:
	default:
		h.mu.Lock()
		h.messagesDropped++
		h.mu.Unlock()
		h.logger.Warn("Broadcast queue full, message dropped",
			slog.String("session_id", sessionID),
			slog.String("message_type", messageType))
	}
}

// CloseSession tells the clients of sessionID that it is gone and
// disconnects them.
func (h *Hub) CloseSession(sessionID string) {
	payload, _ := json.Marshal(NewMessage(TypeClosed, sessionID, nil, ""))

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.sessionID != sessionID {
			continue
		}
		select {
		case client.send <- payload:
		default:
		}
		delete(h.clients, client)
		close(client.send)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub
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

// SessionClientCount returns the number of clients watching sessionID.
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if client.sessionID == sessionID {
			n++
		}
	}
	return n
}

// Stop gracefully stops the hub
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.quit)

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

// GetHubMetrics returns current hub metrics
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_dropped":  h.messagesDropped,
	}
}
