// Package events contains the message contracts pushed to the console page over WebSocket.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeStateChanged is sent after every committed console state change
	MessageTypeStateChanged MessageType = "state:changed"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// StateChanged tells the page which state version is current so it can re-render
type StateChanged struct {
	Version  uint64 `json:"version"`
	Loading  bool   `json:"loading"`
	Language string `json:"language"`
	Error    string `json:"error,omitempty"`
}
