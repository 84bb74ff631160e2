package realtime

import (
	"log"
	"sync"

	"github.com/Rogerio-auto/livechat-monorepo-sub005/internal/models"
)

// EventWriter is one subscriber connection. Writes must be safe for
// concurrent use; *Conn serializes frames internally.
type EventWriter interface {
	WriteEvent(ev models.TaskEvent) error
}

// Hub fans task lifecycle events out to every subscriber of a company.
// Delivery is best-effort, at-most-once per connection, with no replay:
// a disconnected client resynchronizes through its next REST fetch.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[EventWriter]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[EventWriter]struct{})}
}

func (h *Hub) Subscribe(companyID string, w EventWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[companyID] == nil {
		h.rooms[companyID] = make(map[EventWriter]struct{})
	}
	h.rooms[companyID][w] = struct{}{}
}

func (h *Hub) Unsubscribe(companyID string, w EventWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.rooms[companyID]; ok {
		delete(subs, w)
		if len(subs) == 0 {
			delete(h.rooms, companyID)
		}
	}
}

// Publish delivers ev to every current subscriber of the company room.
// A failing subscriber only loses its own delivery.
func (h *Hub) Publish(companyID string, ev models.TaskEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for w := range h.rooms[companyID] {
		if err := w.WriteEvent(ev); err != nil {
			log.Printf("[realtime][publish][warn] company=%s type=%s: %v", companyID, ev.Type, err)
		}
	}
}

// Subscribers returns the current subscriber count for a company.
func (h *Hub) Subscribers(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[companyID])
}
