package sse

import (
	"path/filepath"
	"slices"
	"sync"

	"github.com/kbukum/transcriber/logger"
)

type message struct {
	pattern string
	event   Event
}

// Hub fans events out to clients whose id matches a glob pattern. The
// clients map is only written from the Run goroutine; readers take mu.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	join  chan *Client
	leave chan *Client
	msgs  chan message

	done     chan struct{}
	stopOnce sync.Once
	log      *logger.Logger
}

var _ Broadcaster = (*Hub)(nil)

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients: map[string]*Client{},
		join:    make(chan *Client),
		leave:   make(chan *Client),
		msgs:    make(chan message, 256),
		done:    make(chan struct{}),
		log:     log.WithComponent("sse"),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.dropAll()
			return
		case c := <-h.join:
			h.add(c)
		case c := <-h.leave:
			h.remove(c)
		case m := <-h.msgs:
			h.deliver(m)
		}
	}
}

// Stop closes every client and ends Run. Later calls are no-ops.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register adds c, replacing and closing any client with the same id.
// It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.join <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.leave <- c:
	case <-h.done:
	}
}

// Broadcast queues ev for every client whose id matches pattern.
func (h *Hub) Broadcast(pattern string, ev Event) {
	select {
	case h.msgs <- message{pattern: pattern, event: ev}:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientIDs returns the connected ids in sorted order.
func (h *Hub) ClientIDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (h *Hub) add(c *Client) {
	c.log = h.log
	h.mu.Lock()
	if prev, ok := h.clients[c.id]; ok {
		close(prev.events)
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("client registered", logger.Fields("client_id", c.id, "total_clients", n))
}

// remove ignores a client that has already been replaced under its id.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
		close(c.events)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("client unregistered", logger.Fields("client_id", c.id, "total_clients", n))
}

func (h *Hub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.events)
		delete(h.clients, id)
	}
}

func (h *Hub) deliver(m message) {
	if _, err := filepath.Match(m.pattern, ""); err != nil {
		h.log.Error("bad broadcast pattern", logger.Fields("pattern", m.pattern, logger.FieldError, err.Error()))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for id, c := range h.clients {
		if ok, _ := filepath.Match(m.pattern, id); ok && c.Send(m.event) {
			sent++
		}
	}
	h.log.Debug("broadcast", logger.Fields("pattern", m.pattern, "match_count", sent))
}
