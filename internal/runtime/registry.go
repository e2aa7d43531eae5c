package runtime

import (
	"sort"
	"sync"

	"github.com/aretw0/colloquy/pkg/domain"
)

// Registry maps node type names to constructors.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]NodeFactory
}

// NewRegistry creates a registry holding the built-in node types.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]NodeFactory),
	}
	r.Register(domain.NodeTypePlain, newPlainNode)
	r.Register(domain.NodeTypeVariant, newVariantNode)
	r.Register(domain.NodeTypeLocation, newLocationNode)
	return r
}

// Register adds a node type.
// If a type with the same name exists, it is overwritten.
func (r *Registry) Register(typeName string, factory NodeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = factory
}

// Lookup returns the constructor of a node type.
func (r *Registry) Lookup(typeName string) (NodeFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typeName]
	return f, ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
