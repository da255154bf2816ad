// Package feed fans validated alerts out to websocket subscribers.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"safewatch/internal/types"
)

const subscriberBuffer = 16

// Message is the frame pushed to every subscriber.
type Message struct {
	Type    string        `json:"type"`
	Payload []types.Alert `json:"payload,omitempty"`
}

// Hub keeps the live subscribers. A subscriber whose buffer is full when a
// broadcast arrives is dropped and its channel closed.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	logger  *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{clients: make(map[chan []byte]struct{}), logger: logger}
}

// Subscribe registers a new subscriber. The returned cancel func is idempotent.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(ch) })
	}
}

func (h *Hub) remove(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify implements incident.Notifier. It never blocks on a subscriber.
func (h *Hub) Notify(_ context.Context, alerts []types.Alert) {
	if len(alerts) == 0 {
		return
	}
	b, err := json.Marshal(Message{Type: "alerts", Payload: alerts})
	if err != nil {
		h.logger.Printf("feed: marshal alerts failed: %v", err)
		return
	}
	h.broadcast(b)
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.logger.Printf("feed: subscriber buffer full, dropping subscriber")
			delete(h.clients, ch)
			close(ch)
		}
	}
}
