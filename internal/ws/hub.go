package ws

import (
	"log"
	"sync"
)

// Hub fans events out to audiences: a named room (role or single session),
// or every registered client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		rooms:   make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	log.Printf("ws: client %s connected (total: %d)", c.ID, len(h.clients))
}

// Unregister drops the client from every room and closes the connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	c.Close()
	log.Printf("ws: client %s disconnected", c.ID)
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast sends msg to every client in room.
func (h *Hub) Broadcast(room string, msg Message) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.send(targets, msg)
}

// BroadcastAll sends msg to every registered client.
func (h *Hub) BroadcastAll(msg Message) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.send(targets, msg)
}

func (h *Hub) send(targets []*Client, msg Message) {
	var dead []*Client
	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			log.Printf("ws: write to %s failed: %v", c.ID, err)
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		h.Unregister(c)
	}
}
