package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Provider is implemented by every named backend.
type Provider interface {
	Name() string
	// IsAvailable reports whether the provider can take a request now.
	IsAvailable(ctx context.Context) bool
}

// Factory builds a provider. Configuration is captured by the closure.
type Factory[T Provider] func() (T, error)

// Registry manages named provider factories and cached instances.
type Registry[T Provider] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
	instances map[string]T
}

// NewRegistry creates a new empty Registry.
func NewRegistry[T Provider]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
		instances: make(map[string]T),
	}
}

// RegisterFactory registers a named factory for creating providers.
func (r *Registry[T]) RegisterFactory(name string, factory Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	delete(r.instances, name)
}

// Create instantiates a provider using the named factory without caching it.
func (r *Registry[T]) Create(name string) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("provider factory %q not registered (known: %v)", name, r.List())
	}
	return factory()
}

// Resolve returns the cached instance for name, creating it on first use.
func (r *Registry[T]) Resolve(name string) (T, error) {
	if inst, ok := r.Get(name); ok {
		return inst, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[name]; ok {
		return inst, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("provider factory %q not registered", name)
	}
	inst, err := factory()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("create provider %q: %w", name, err)
	}
	r.instances[name] = inst
	return inst, nil
}

// Select resolves the names in order and returns the first available provider.
func (r *Registry[T]) Select(ctx context.Context, names ...string) (T, error) {
	var lastErr error
	for _, name := range names {
		inst, err := r.Resolve(name)
		if err != nil {
			lastErr = err
			continue
		}
		if inst.IsAvailable(ctx) {
			return inst, nil
		}
		lastErr = fmt.Errorf("provider %q is not available", name)
	}
	var zero T
	if lastErr == nil {
		lastErr = fmt.Errorf("no provider names given")
	}
	return zero, lastErr
}

// Get returns a cached provider instance by name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[name]
	return inst, ok
}

// Set caches a provider instance by name.
func (r *Registry[T]) Set(name string, instance T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[name] = instance
}

// List returns sorted names of all registered factories.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
