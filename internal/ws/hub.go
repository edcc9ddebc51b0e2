package ws

import (
	"sync"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

// Hub tracks one capture client per device. A device's camera belongs to
// a single session at a time.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register claims the client's device, or fails with ErrSessionActive.
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.device]; ok {
		return domain.ErrSessionActive
	}
	h.clients[client.device] = client
	return nil
}

// Unregister releases the device if client still owns it.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.device] == client {
		delete(h.clients, client.device)
	}
}

func (h *Hub) IsActive(device string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.clients[device]
	return ok
}

func (h *Hub) GetConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
