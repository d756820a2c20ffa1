package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/transcriber/component"
	"github.com/kbukum/transcriber/logger"
)

const healthProbeKey = ".health"

// Component opens the configured backend on Start. Until then, and after
// Stop, Storage returns nil and uploads are refused.
type Component struct {
	cfg Config
	log *logger.Logger

	mu      sync.RWMutex
	storage Storage
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, log: log}
}

// Storage returns the open backend, or nil.
func (c *Component) Storage() Storage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage
}

func (c *Component) Name() string { return "storage" }

func (c *Component) Start(context.Context) error {
	s, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.mu.Lock()
	c.storage = s
	c.mu.Unlock()
	return nil
}

func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	c.storage = nil
	c.mu.Unlock()
	return nil
}

// Health probes the backend and reports how many uploads it still holds.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	s := c.Storage()
	if s == nil {
		h.Message = "storage not initialized"
		return h
	}
	if _, err := s.Exists(ctx, healthProbeKey); err != nil {
		h.Message = fmt.Sprintf("health probe failed: %v", err)
		return h
	}
	h.Status = component.StatusHealthy
	if files, err := s.List(ctx, ""); err == nil {
		h.Message = fmt.Sprintf("%d uploads held", len(files))
	}
	return h
}
