package websocket

import (
	"time"

	"github.com/gorilla/websocket"
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

// connWrapper adapts a gorilla connection to Connection
type connWrapper struct {
	*websocket.Conn
}

// NewConnection wraps conn so it satisfies Connection
func NewConnection(conn *websocket.Conn) Connection {
	return &connWrapper{Conn: conn}
}

// RemoteAddr returns the peer address as a string
func (c *connWrapper) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
