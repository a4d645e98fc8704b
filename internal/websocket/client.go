package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hotfire/internal/infrastructure"
)

const (
	writeWait = 10 * time.Second

	// Clients only send control frames and the occasional ping text.
	maxMessageSize = 512

	sendBuffer = 64
)

// Client streams one analysis session to one websocket connection. The
// hub owns the send channel and closes it on unregister.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	sessionID   string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	// ctx carries the trace and session ids for log correlation only.
	ctx    context.Context
	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
}

// NewClient creates a client for sessionID on conn.
func NewClient(hub *Hub, conn Connection, sessionID, traceID string, logger *slog.Logger) *Client {
	ctx := infrastructure.WithSessionID(context.Background(), sessionID)
	if traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, traceID)
	}
	id := uuid.NewString()
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		sessionID:   sessionID,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
		ctx:         ctx,
		logger:      infrastructure.WithComponent(logger, "websocket.client").With(slog.String("client_id", id)),
	}
}

// ID returns the client identifier
func (c *Client) ID() string { return c.id }

// Enqueue queues msg for this client only. It reports false when the
// buffer is full.
func (c *Client) Enqueue(msg Message) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.ErrorContext(c.ctx, "Cannot encode message",
			slog.String("type", msg.Type),
			slog.String("error", err.Error()))
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ReadPump keeps the read side alive so pongs extend the deadline. Frames
// sent by the browser carry no commands and are only counted.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		c.logger.InfoContext(c.ctx, "WebSocket client disconnected",
			slog.String("remote_addr", c.remoteAddr),
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived))
	}()

	pongWait := c.hub.pongWait
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	c.conn.SetReadLimit(maxMessageSize)
	extend("")
	c.conn.SetPongHandler(extend)

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.WarnContext(c.ctx, "WebSocket closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived++
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// WritePump forwards queued messages and pings the peer every ping period.
// A closed send channel ends the stream with a normal close frame.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				c.logger.DebugContext(c.ctx, "Stream closed by hub", slog.Int64("messages_sent", c.messagesSent))
				return
			}
			if err := c.write(websocket.TextMessage, payload); err != nil {
				c.logger.WarnContext(c.ctx, "WebSocket write failed", slog.String("error", err.Error()))
				return
			}
			c.messagesSent++

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.ctx, "WebSocket ping failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// ServeWS registers a client for sessionID and starts its pumps. initial,
// when non-nil, is queued before anything the hub sends.
func ServeWS(hub *Hub, conn *websocket.Conn, sessionID, traceID string, initial *Message, logger *slog.Logger) *Client {
	client := NewClient(hub, gorillaConn{conn}, sessionID, traceID, logger)
	if initial != nil {
		client.Enqueue(*initial)
	}
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
	return client
}
