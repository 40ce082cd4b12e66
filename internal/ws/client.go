package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// wsConn is the slice of *websocket.Conn the client needs; tests substitute
// their own.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client wraps one live connection. The mutex serializes writes; gorilla
// connections support only one concurrent writer.
type Client struct {
	ID string

	mu   sync.Mutex
	conn wsConn
}

func NewClient(id string, conn wsConn) *Client {
	return &Client{ID: id, conn: conn}
}

func (c *Client) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Close()
}
