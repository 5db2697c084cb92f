package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	// Time allowed to write a message to the tab.
	writeWait = 10 * time.Second
	// Time allowed for the tab to say hello.
	helloWait = 10 * time.Second
	// Outbound queue length per tab.
	sendBuffer = 64
)

// Client is one connected tab.
type Client struct {
	ID     string
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger
	mu     sync.RWMutex
}

func newClient(id string, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		ID:     id,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

// SendMessage queues msg for the tab. It never blocks; a full queue drops
// the message.
func (c *Client) SendMessage(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to encode message", "type", msg.Type, "error", err)
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.send == nil {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Client send channel full, dropping message", "type", msg.Type)
	}
}

// Close closes the send queue. Later sends are dropped.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

// writePump writes queued messages until the queue is closed or a write
// fails.
func (c *Client) writePump(queue <-chan []byte) {
	for data := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := c.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			c.logger.Debug("WebSocket write failed", "error", err)
			return
		}
	}
}
