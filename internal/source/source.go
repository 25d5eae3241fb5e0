package source

import (
	"fmt"

	"StarReport/internal/ports"
)

// Registry keeps a mapping from source strategy names to their
// implementations, resolved by the config-selected name.
type Registry struct {
	sources map[string]ports.EventSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.EventSource{}}
}

// Register adds or replaces an event source implementation.
func (r *Registry) Register(name string, src ports.EventSource) {
	if r.sources == nil {
		r.sources = map[string]ports.EventSource{}
	}
	r.sources[name] = src
}

// Resolve returns an event source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.EventSource, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("event source %s is not registered", name)
}
