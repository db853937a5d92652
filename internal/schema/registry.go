package schema

import (
	"fmt"
	"sort"
)

// Registry maps entity kinds to their descriptors.
//
// A Registry is never mutated after construction; WithEntity and the CUE
// overlay return new registries.
type Registry struct {
	entities map[Kind]*Entity
}

// NewRegistry returns the default openBIS descriptors.
func NewRegistry() *Registry {
	r := &Registry{entities: make(map[Kind]*Entity)}
	for _, e := range defaultEntities() {
		e := e
		r.entities[e.Kind] = &e
	}
	return r
}

// Lookup returns the descriptor for kind.
func (r *Registry) Lookup(kind Kind) (*Entity, error) {
	e, ok := r.entities[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	return e, nil
}

// MustLookup is like Lookup but panics on unknown kinds.
// Use only in tests or with the built-in kinds.
func (r *Registry) MustLookup(kind Kind) *Entity {
	e, err := r.Lookup(kind)
	if err != nil {
		panic(err)
	}
	return e
}

// Kinds returns the registered kinds in lexical order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.entities))
	for k := range r.entities {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// WithEntity returns a copy of the registry where e replaces (or adds) the
// descriptor of e.Kind.
func (r *Registry) WithEntity(e *Entity) *Registry {
	next := &Registry{entities: make(map[Kind]*Entity, len(r.entities)+1)}
	for k, v := range r.entities {
		next.entities[k] = v
	}
	next.entities[e.Kind] = e.clone()
	return next
}
