package realtime

import (
	"log/slog"
	"sync"

	"github.com/phrazzld/taskboard/internal/lock"
	"github.com/phrazzld/taskboard/internal/platform/metrics"
)

// Hub is the set of open connections. It implements lock.Publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	metrics *metrics.Collectors
	logger  *slog.Logger
}

var _ lock.Publisher = (*Hub)(nil)

// NewHub creates an empty hub. m may be nil.
func NewHub(logger *slog.Logger, m *metrics.Collectors) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*client),
		metrics: m,
		logger:  logger.With(slog.String("component", "realtime_hub")),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.metrics.ConnectionOpened()
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		h.metrics.ConnectionClosed()
	}
}

// Broadcast encodes the event once and queues it on every connection.
func (h *Hub) Broadcast(e lock.Event) {
	msg, err := encodeEvent(e)
	if err != nil {
		h.logger.Error("failed to encode event", slog.String("event", e.Name), slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.deliver(c, msg)
	}
}

// Send queues the event on a single connection.
func (h *Hub) Send(connID string, e lock.Event) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	msg, err := encodeEvent(e)
	if err != nil {
		h.logger.Error("failed to encode event", slog.String("event", e.Name), slog.String("error", err.Error()))
		return
	}
	h.deliver(c, msg)
}

// deliver never blocks. A connection whose queue is full is closed; it
// recovers the lock table from the snapshot sent on reconnect.
func (h *Hub) deliver(c *client, msg []byte) {
	if c.closed() {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.metrics.DroppedDelivery()
		h.logger.Warn("send queue full, closing connection", slog.String("conn_id", c.id))
		c.kill()
	}
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close terminates every connection. Their read pumps then run the normal
// disconnect path.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.kill()
	}
}
