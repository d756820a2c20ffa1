package sse

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/logger"
)

// Component runs a Hub's event loop for the life of the service.
type Component struct {
	hub  *Hub
	done chan struct{}
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a component around a fresh Hub.
func NewComponent(log *logger.Logger) *Component {
	return &Component{hub: NewHub(log)}
}

// Hub returns the hub handlers stream from.
func (c *Component) Hub() *Hub { return c.hub }

func (c *Component) Name() string { return "sse" }

func (c *Component) Start(context.Context) error {
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.hub.Run()
	}()
	return nil
}

// Stop closes every stream and waits for the loop to exit, or for ctx.
func (c *Component) Stop(ctx context.Context) error {
	c.hub.Stop()
	if c.done == nil {
		return nil
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sse: hub did not stop: %w", ctx.Err())
	}
}

// Health counts open streams and the distinct jobs they watch.
func (c *Component) Health(context.Context) component.Health {
	ids := c.hub.ClientIDs()
	jobs := make(map[string]struct{})
	for _, id := range ids {
		if rest, ok := strings.CutPrefix(id, "job:"); ok {
			if jobID, _, ok := strings.Cut(rest, ":"); ok {
				jobs[jobID] = struct{}{}
			}
		}
	}
	return component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d clients connected, %d jobs watched", len(ids), len(jobs)),
	}
}
