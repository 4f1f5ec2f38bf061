package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a WebSocket connection subscribed to file events.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub maintains active clients and broadcasts file events to all of them.
type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan *Message
	Register   chan *Client
	Unregister chan *Client
	Mu         sync.RWMutex
}

// Message represents a file event pushed to connected clients.
type Message struct {
	Type      string    `json:"type"`
	Path      string    `json:"path,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	MSG_FILE_UPLOADED = "file.uploaded"
	MSG_FILE_DELETED  = "file.deleted"
	MSG_RULES_UPDATED = "rules.updated"
)

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan *Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Notify queues a file event for broadcast without blocking the caller.
func (h *Hub) Notify(msgType, path, category string) {
	msg := &Message{Type: msgType, Path: path, Category: category, Timestamp: time.Now()}
	select {
	case h.Broadcast <- msg:
	default:
	}
}
