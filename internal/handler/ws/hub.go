package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Frame is the wire format in both directions: a named event plus payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub tracks registered connections and delivers named events to them. It
// implements session.Emitter. Delivery is best-effort: a frame addressed to a
// connection with a full send queue is dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
	}
}

// Emit delivers an event to one connection.
func (h *Hub) Emit(connID, event string, payload any) {
	data, err := json.Marshal(outboundFrame{Event: event, Data: payload})
	if err != nil {
		log.Printf("[ws] marshal %s failed: %v", event, err)
		return
	}
	h.deliver(connID, event, data)
}

// EmitTo delivers an event to a set of connections, marshaling once.
func (h *Hub) EmitTo(connIDs []string, event string, payload any) {
	data, err := json.Marshal(outboundFrame{Event: event, Data: payload})
	if err != nil {
		log.Printf("[ws] marshal %s failed: %v", event, err)
		return
	}
	for _, connID := range connIDs {
		h.deliver(connID, event, data)
	}
}

// deliver enqueues a marshaled frame. The read lock is held across the channel
// send so unregister cannot close the channel mid-send.
func (h *Hub) deliver(connID, event string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connID]
	if !ok || c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[ws] dropping %s for conn=%s: send queue full", event, connID)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("[ws] registered conn=%s total=%d", c.id, total)
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, connID)
	c.closed = true
	total := len(h.clients)
	h.mu.Unlock()

	// Safe to close now: deliver checks closed under the read lock.
	close(c.send)
	log.Printf("[ws] unregistered conn=%s total=%d", connID, total)
}
