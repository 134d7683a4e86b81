package types

import (
	"fmt"
	"sort"

	"fortio.org/safecast"
)

// TypeID is a dense index into a Registry.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Registry is the immutable table of known type descriptors. It is built once
// per compiler context; lookups never mutate it.
type Registry struct {
	types []TypeDesc
	index map[string]TypeID
}

// NewRegistry builds the canonical table: every world × domain pair that a
// port may declare, plus extra descriptors supplied by the caller.
func NewRegistry(extra ...TypeDesc) *Registry {
	r := &Registry{
		types: make([]TypeDesc, 1, 64), // reserve 0 as invalid sentinel
		index: make(map[string]TypeID, 64),
	}
	for _, w := range []World{WorldSignal, WorldField, WorldScalar, WorldEvent, WorldConfig} {
		for d := DomainNumber; d <= DomainUnit; d++ {
			if !worldAllows(w, d) {
				continue
			}
			r.add(Make(w, d))
		}
	}
	for _, t := range extra {
		r.add(t)
	}
	return r
}

func worldAllows(w World, d Domain) bool {
	switch w {
	case WorldEvent:
		return d == DomainTrigger || d == DomainNumber || d == DomainString
	case WorldField:
		return d != DomainRenderTree && d != DomainTrigger && d != DomainUnit
	case WorldScalar, WorldConfig:
		return d != DomainRenderTree && d != DomainTrigger
	default:
		return d != DomainTrigger
	}
}

func (r *Registry) add(t TypeDesc) TypeID {
	key := t.Key()
	if id, ok := r.index[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(r.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	r.types = append(r.types, t)
	r.index[key] = id
	return id
}

// Resolve parses s and checks that the registry knows it.
func (r *Registry) Resolve(s string) (TypeDesc, error) {
	t, err := ParseTypeDesc(s)
	if err != nil {
		return TypeDesc{}, err
	}
	if _, ok := r.index[t.Key()]; !ok {
		return TypeDesc{}, fmt.Errorf("type %q is not a known port type", s)
	}
	return t, nil
}

// ID returns the dense id of t, or NoTypeID.
func (r *Registry) ID(t TypeDesc) TypeID {
	return r.index[t.Key()]
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id TypeID) (TypeDesc, bool) {
	if id == NoTypeID || int(id) >= len(r.types) {
		return TypeDesc{}, false
	}
	return r.types[id], true
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int { return len(r.types) - 1 }

// All returns the descriptors sorted by key.
func (r *Registry) All() []TypeDesc {
	out := make([]TypeDesc, 0, r.Len())
	out = append(out, r.types[1:]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
