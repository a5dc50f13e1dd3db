package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a configured backend instance.
type Factory func(cfg Config) (Backend, error)

// Registry manages registered backend adapters. Adapters register
// themselves at init time and are looked up by name when a project's
// config selects them.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var globalRegistry = &Registry{factories: make(map[string]Factory)}

// Register adds a factory to the global registry. Typically called from
// adapter init() functions. Names are lowercase ("jsonl", "bd", "stub").
func Register(name string, factory Factory) {
	globalRegistry.Register(name, factory)
}

// New creates a configured instance of the named backend from the global
// registry.
func New(name string, cfg Config) (Backend, error) {
	return globalRegistry.New(name, cfg)
}

// List returns the names of all registered backends.
func List() []string {
	return globalRegistry.List()
}

// Register adds a factory to this registry.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// New creates a configured instance of the named backend.
func (r *Registry) New(name string, cfg Config) (Backend, error) {
	r.mu.RLock()
	factory := r.factories[name]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unknown backend %q (available: %v)", name, r.List())
	}
	return factory(cfg)
}

// List returns the names of all registered backends, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
