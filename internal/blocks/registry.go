package blocks

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"patchc/internal/ir"
	"patchc/internal/types"
)

// PortDef declares one port of a block type.
type PortDef struct {
	ID       string
	Type     types.TypeDesc
	Optional bool
	Default  any // declared default source, decoded with the port domain
}

// LowerCtx is what a lowering function may see besides its config.
type LowerCtx struct {
	BlockID   string
	Seed      uint64
	connected map[string]bool
}

// NewLowerCtx builds a lowering context; connected lists the input ports
// that have an incoming edge.
func NewLowerCtx(blockID string, seed uint64, connected ...string) *LowerCtx {
	lc := &LowerCtx{BlockID: blockID, Seed: seed, connected: make(map[string]bool, len(connected))}
	for _, p := range connected {
		lc.connected[p] = true
	}
	return lc
}

// Connected reports whether input port has an incoming edge.
func (lc *LowerCtx) Connected(port string) bool { return lc.connected[port] }

// LowerFunc lowers one block instance into fragment nodes.
type LowerFunc func(lc *LowerCtx, b *ir.FragmentBuilder, cfg Config) error

// TimeModelFunc derives the time model of a time-root block.
type TimeModelFunc func(cfg Config) (ir.TimeModel, error)

// Def is a block type.
type Def struct {
	Type          string
	Inputs        []PortDef
	Outputs       []PortDef
	Capability    ir.Capability
	StateBoundary bool
	Lower         LowerFunc
	TimeModel     TimeModelFunc
}

// Input returns the input port id.
func (d *Def) Input(id string) (*PortDef, bool) { return findPort(d.Inputs, id) }

// Output returns the output port id.
func (d *Def) Output(id string) (*PortDef, bool) { return findPort(d.Outputs, id) }

func findPort(ports []PortDef, id string) (*PortDef, bool) {
	for i := range ports {
		if ports[i].ID == id {
			return &ports[i], true
		}
	}
	return nil, false
}

// allowlist is the closed set of block types that may claim a kernel
// capability.
var allowlist = map[ir.Capability][]string{
	ir.CapTime:     {"InfiniteTimeRoot", "FiniteTimeRoot", "CycleTimeRoot"},
	ir.CapIdentity: {"GridDomain"},
	ir.CapState:    {"Integrator", "Delay", "PulseCounter"},
	ir.CapRender:   {"RenderCircles", "Sink"},
	ir.CapIO:       {"EventInput", "EventSink"},
}

// Allowed reports whether typ may declare capability c.
func Allowed(c ir.Capability, typ string) bool {
	if c == ir.CapPure {
		return true
	}
	for _, name := range allowlist[c] {
		if name == typ {
			return true
		}
	}
	return false
}

// Registry is an immutable set of block types.
type Registry struct {
	defs  map[string]*Def
	names []string
}

// NewRegistry validates defs and freezes them.
func NewRegistry(defs ...Def) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Def, len(defs))}
	for i := range defs {
		d := defs[i]
		switch {
		case d.Type == "":
			return nil, fmt.Errorf("block definition %d has no type name", i)
		case r.defs[d.Type] != nil:
			return nil, fmt.Errorf("block type %s registered twice", d.Type)
		case d.Lower == nil:
			return nil, fmt.Errorf("block type %s has no lowering function", d.Type)
		case !Allowed(d.Capability, d.Type):
			return nil, fmt.Errorf("block type %s may not claim capability %s", d.Type, d.Capability)
		case d.StateBoundary && d.Capability != ir.CapState:
			return nil, fmt.Errorf("block type %s is a state boundary without the state capability", d.Type)
		case d.Capability == ir.CapTime && d.TimeModel == nil:
			return nil, fmt.Errorf("time root %s has no time model", d.Type)
		}
		if err := checkPorts(&d); err != nil {
			return nil, err
		}
		r.defs[d.Type] = &d
		r.names = append(r.names, d.Type)
	}
	sort.Strings(r.names)
	return r, nil
}

func checkPorts(d *Def) error {
	seen := make(map[string]bool)
	for _, p := range append(append([]PortDef(nil), d.Inputs...), d.Outputs...) {
		if p.ID == "" {
			return fmt.Errorf("block type %s has a port without id", d.Type)
		}
		if seen[p.ID] {
			return fmt.Errorf("block type %s declares port %s twice", d.Type, p.ID)
		}
		if p.Type.IsZero() {
			return fmt.Errorf("block type %s port %s has no type", d.Type, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// MustRegistry panics on an invalid registry.
func MustRegistry(defs ...Def) *Registry {
	r, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the definition of typ.
func (r *Registry) Lookup(typ string) (*Def, bool) {
	d, ok := r.defs[typ]
	return d, ok
}

// Names lists block types in sorted order.
func (r *Registry) Names() []string { return append([]string(nil), r.names...) }

// Fingerprint identifies the registry contents for cache keys.
func (r *Registry) Fingerprint() string {
	h := fnv.New64a()
	for _, name := range r.names {
		d := r.defs[name]
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s/%s/%t;", d.Type, d.Capability, d.StateBoundary)
		for _, p := range d.Inputs {
			fmt.Fprintf(&sb, "i:%s:%s:%t:%v;", p.ID, p.Type.Key(), p.Optional, p.Default)
		}
		for _, p := range d.Outputs {
			fmt.Fprintf(&sb, "o:%s:%s;", p.ID, p.Type.Key())
		}
		_, _ = h.Write([]byte(sb.String()))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
