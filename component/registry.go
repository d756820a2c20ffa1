package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/transcriber/logger"
)

const defaultStopTimeout = 10 * time.Second

type entry struct {
	Component
	running bool
}

// Registry owns the service components. StartAll runs them in
// registration order and StopAll in reverse, so dependencies are
// registered before the components that use them.
type Registry struct {
	mu          sync.RWMutex
	entries     []*entry
	log         *logger.Logger
	stopTimeout time.Duration
}

func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{log: log.WithComponent("components"), stopTimeout: defaultStopTimeout}
}

func (r *Registry) find(name string) int {
	return slices.IndexFunc(r.entries, func(e *entry) bool { return e.Name() == name })
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.find(c.Name()) >= 0 {
		return fmt.Errorf("component %s already registered", c.Name())
	}
	r.entries = append(r.entries, &entry{Component: c})
	r.log.Debug("component registered", logger.Fields(logger.FieldComponent, c.Name()))
	return nil
}

// Get returns the component registered under name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.find(name); i >= 0 {
		return r.entries[i].Component
	}
	return nil
}

// StartAll starts every component. If one fails, the ones already running
// are stopped before the error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	var failed error
	for _, e := range r.entries {
		if err := e.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields(logger.FieldComponent, e.Name(), logger.FieldError, err.Error()))
			failed = fmt.Errorf("start %s: %w", e.Name(), err)
			break
		}
		e.running = true
		r.log.Debug("component started", logger.Fields(logger.FieldComponent, e.Name()))
	}
	n := len(r.entries)
	r.mu.Unlock()

	if failed != nil {
		_ = r.StopAll(ctx)
		return failed
	}
	r.log.Info("all components started", logger.Fields("count", n))
	return nil
}

// StopAll stops running components in reverse order, giving each at most
// the registry's stop timeout. Every failure is reported; a second call
// is a no-op.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, e := range slices.Backward(r.entries) {
		if !e.running {
			continue
		}
		e.running = false
		if err := r.stop(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", e.Name(), err))
			r.log.Error("component stop failed", logger.Fields(logger.FieldComponent, e.Name(), logger.FieldError, err.Error()))
			continue
		}
		r.log.Info("component stopped", logger.Fields(logger.FieldComponent, e.Name()))
	}
	return errors.Join(errs...)
}

func (r *Registry) stop(ctx context.Context, e *entry) error {
	ctx, cancel := context.WithTimeout(ctx, r.stopTimeout)
	defer cancel()
	return e.Stop(ctx)
}

// HealthAll collects Health from every component in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Health(ctx)
	}
	return out
}
