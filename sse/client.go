package sse

import (
	"maps"

	"github.com/kbukum/transcriber/logger"
)

const clientBufferSize = 64

// Client is one open event stream. Its channel is closed by the hub when
// the client is unregistered, replaced or the hub stops.
type Client struct {
	id       string
	metadata map[string]string
	events   chan Event
	log      *logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMetadata attaches a key/value that is echoed in the connected event.
func WithMetadata(key, value string) ClientOption {
	return func(c *Client) { c.metadata[key] = value }
}

func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{
		id:       id,
		metadata: map[string]string{},
		events:   make(chan Event, clientBufferSize),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ID() string { return c.id }

// Metadata returns a copy of the client's metadata.
func (c *Client) Metadata() map[string]string { return maps.Clone(c.metadata) }

func (c *Client) Events() <-chan Event { return c.events }

// Send queues ev without blocking. A full buffer drops the event.
func (c *Client) Send(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		c.log.Warn("client buffer full, dropping event", logger.Fields("client_id", c.id, "event", ev.Type))
		return false
	}
}
