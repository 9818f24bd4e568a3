// Package ws fans recipe events out to each user's live subscribers.
package ws

import (
	"sync"

	"github.com/YarinDev/recipe-app-api/internal/domain"
)

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send(domain.RecipeEvent) error
	Close()
}

// Hub manages subscriptions by user ID.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[Subscriber]struct{}
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[Subscriber]struct{})}
}

// Register adds a client to the user's stream.
func (h *Hub) Register(userID string, client Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[Subscriber]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

// Unregister removes a client.
func (h *Hub) Unregister(userID string, client Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(userID, client)
}

// Publish delivers event to every subscriber of userID. Clients that fail
// to accept the event are closed and dropped.
func (h *Hub) Publish(userID string, event domain.RecipeEvent) {
	h.mu.RLock()
	var failed []Subscriber
	for c := range h.clients[userID] {
		if err := c.Send(event); err != nil {
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()
	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range failed {
		c.Close()
		h.remove(userID, c)
	}
}

// Subscribers reports how many clients follow userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) remove(userID string, client Subscriber) {
	clients, ok := h.clients[userID]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, userID)
	}
}
