// Package adapter catalogues type conversions and finds the cheapest chain of
// conversions between two port types.
package adapter

import (
	"fmt"
	"math"
	"sort"

	"patchc/internal/types"
	"patchc/internal/value"
)

// Policy says when an adapter may be inserted.
type Policy uint8

const (
	PolicyAuto      Policy = iota + 1 // inserted silently
	PolicySuggest                     // offered to the user, never applied implicitly
	PolicyExplicit                    // applied only when the edge lists it
	PolicyForbidden                   // never part of a chain
)

func (p Policy) String() string {
	switch p {
	case PolicyAuto:
		return "auto"
	case PolicySuggest:
		return "suggest"
	case PolicyExplicit:
		return "explicit"
	case PolicyForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Kind tells the program builder how to run an adapter.
type Kind uint8

const (
	KindMap       Kind = iota + 1 // per value, same world
	KindLift                      // scalar -> signal, value unchanged
	KindBroadcast                 // scalar/signal -> field of length 1
	KindReduce                    // field -> signal, component-wise mean
)

// Adapter is one registered conversion step.
type Adapter struct {
	ID     string
	From   types.TypeDesc
	To     types.TypeDesc
	Policy Policy
	Cost   float64
	Kind   Kind
	// Map converts one value; nil means identity.
	Map func(value.Value) value.Value
}

// WorldChanging reports whether the step moves a value between worlds.
func (a *Adapter) WorldChanging() bool {
	return a.From.World != a.To.World
}

// Apply runs Map, or returns v unchanged.
func (a *Adapter) Apply(v value.Value) value.Value {
	if a.Map == nil {
		return v
	}
	return a.Map(v)
}

// Registry is an immutable catalogue of adapters.
type Registry struct {
	byID   map[string]*Adapter
	sorted []*Adapter
	byFrom map[string][]*Adapter
}

// NewRegistry freezes adapters into a registry. Duplicate ids and zero-cost
// world-changing steps are rejected.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{
		byID:   make(map[string]*Adapter, len(adapters)),
		byFrom: make(map[string][]*Adapter),
	}
	for i := range adapters {
		a := adapters[i]
		if a.ID == "" {
			return nil, fmt.Errorf("adapter %d: empty id", i)
		}
		if _, dup := r.byID[a.ID]; dup {
			return nil, fmt.Errorf("adapter %q registered twice", a.ID)
		}
		if a.Cost < 0 || math.IsNaN(a.Cost) {
			return nil, fmt.Errorf("adapter %q: invalid cost %v", a.ID, a.Cost)
		}
		if a.Policy == 0 {
			return nil, fmt.Errorf("adapter %q: missing policy", a.ID)
		}
		if a.Kind == 0 {
			a.Kind = KindMap
		}
		p := &a
		r.byID[a.ID] = p
		r.sorted = append(r.sorted, p)
		key := shapeKey(a.From)
		r.byFrom[key] = append(r.byFrom[key], p)
	}
	sort.Slice(r.sorted, func(i, j int) bool { return r.sorted[i].ID < r.sorted[j].ID })
	for k := range r.byFrom {
		list := r.byFrom[k]
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return r, nil
}

// MustRegistry panics on registration errors; used for static tables.
func MustRegistry(adapters ...Adapter) *Registry {
	r, err := NewRegistry(adapters...)
	if err != nil {
		panic(err)
	}
	return r
}

func shapeKey(t types.TypeDesc) string {
	return fmt.Sprintf("%d:%d:%d", t.World, t.Domain, t.Category)
}

// Lookup returns the adapter with id.
func (r *Registry) Lookup(id string) (*Adapter, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// All returns adapters sorted by id.
func (r *Registry) All() []*Adapter {
	return append([]*Adapter(nil), r.sorted...)
}

// from returns adapters whose From matches t by world+domain+category.
func (r *Registry) from(t types.TypeDesc) []*Adapter {
	return r.byFrom[shapeKey(t)]
}

// Fingerprint is a stable summary of the catalogue used in cache keys.
func (r *Registry) Fingerprint() string {
	h := uint64(14695981039346656037)
	for _, a := range r.sorted {
		s := fmt.Sprintf("%s|%s|%s|%d|%g;", a.ID, a.From.Key(), a.To.Key(), a.Policy, a.Cost)
		for i := 0; i < len(s); i++ {
			h ^= uint64(s[i])
			h *= 1099511628211
		}
	}
	return fmt.Sprintf("%016x", h)
}
