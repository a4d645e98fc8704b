package websocket

import (
	"time"
)

// Connection is the subset of a websocket connection the client pumps use.
// Tests substitute an in-memory implementation.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// Publisher pushes session-scoped messages to subscribed clients.
type Publisher interface {
	Publish(sessionID, messageType string, data interface{}, traceID string)
	CloseSession(sessionID string)
}
