package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"patchc/internal/adapter"
	"patchc/internal/blocks"
	"patchc/internal/bus"
	"patchc/internal/diag"
	"patchc/internal/patch"
	"patchc/internal/types"
	"patchc/internal/value"
)

type tBlock struct {
	*nBlock
	Def *blocks.Def
}

type tBus struct {
	*nBus
	T       types.TypeDesc
	Mode    bus.Mode
	Default value.Value
}

// lensStep is a validated lens with its parameters in a fixed order.
type lensStep struct {
	Kind   string
	Params []float64
}

type tEdge struct {
	*nEdge
	FromT, ToT types.TypeDesc
	Chain      []*adapter.Adapter
	Lenses     []lensStep
}

// typedGraph attaches types to every block port, bus and edge. Dangling
// edges are left out of edges.
type typedGraph struct {
	blocks   []tBlock
	buses    []tBus
	edges    []*tEdge
	defaults map[string]value.Value
}

func (c *compilation) buildTypeGraph() {
	n := c.norm
	tg := &typedGraph{
		blocks:   make([]tBlock, len(n.blocks)),
		buses:    make([]tBus, len(n.buses)),
		defaults: make(map[string]value.Value, len(n.defaults)),
	}

	for i := range n.blocks {
		b := &n.blocks[i]
		tg.blocks[i] = tBlock{nBlock: b}
		def, ok := c.cc.Blocks.Lookup(b.Type)
		if !ok {
			c.errorf(diag.CompilerMissing, diag.AtBlock(b.ID), "no compiler for block type %q", b.Type).Emit()
			continue
		}
		tg.blocks[i].Def = def
	}

	for i := range n.buses {
		tg.buses[i] = c.typeBus(&n.buses[i])
	}

	for i := range n.edges {
		e := &n.edges[i]
		if e.Dangling {
			continue
		}
		if te := c.typeEdge(tg, e); te != nil {
			tg.edges = append(tg.edges, te)
		}
	}

	c.typeDefaults(tg)
	c.typed = tg
	c.stopOnErrors()
}

func (c *compilation) typeBus(b *nBus) tBus {
	tb := tBus{nBus: b}
	loc := diag.AtBus(b.ID)
	wname, _, _ := strings.Cut(b.Type, ":")
	w, err := types.ParseWorld(wname)
	if err != nil || w == types.WorldConfig {
		c.errorf(diag.UnknownBusWorld, loc, "bus %s has type %q; buses carry signal, field, scalar or event values", b.ID, b.Type).Emit()
		return tb
	}
	t, err := c.cc.Types.Resolve(b.Type)
	if err != nil {
		c.errorf(diag.UnknownType, loc, "%v", err).Emit()
		return tb
	}
	tb.T = t
	if !t.BusEligible {
		c.errorf(diag.BusIneligibleType, loc, "type %s cannot be carried by a bus", t.Key()).Emit()
		return tb
	}
	mode, err := bus.ParseMode(b.Combine)
	if err != nil {
		c.errorf(diag.UnsupportedCombineMode, loc, "%v", err).
			WithNote(loc, fmt.Sprintf("supported for %s buses: %s", t.World, modeList(t.World))).Emit()
		return tb
	}
	if err := bus.CheckMode(t, mode); err != nil {
		c.errorf(diag.UnsupportedCombineMode, loc, "%v", err).Emit()
		return tb
	}
	tb.Mode = mode
	tb.Default = value.ZeroOf(t.Domain)
	if b.Default != nil {
		v, err := value.Decode(t.Domain, b.Default)
		if err != nil {
			c.errorf(diag.InvalidDefaultSource, loc, "bus default: %v", err).Emit()
			return tb
		}
		tb.Default = v
	}
	return tb
}

func modeList(w types.World) string {
	modes := bus.SupportedModes(w)
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// endpointType returns the type at one end of an edge. Ports must exist on
// the block and face the right way.
func (c *compilation) endpointType(tg *typedGraph, e *nEdge, ep patch.Endpoint, wantOutput bool) (types.TypeDesc, bool) {
	if ep.IsBus() {
		b := tg.buses[c.norm.busIx[ep.Bus]]
		return b.T, !b.T.IsZero()
	}
	blk := tg.blocks[c.norm.blockIx[ep.Port.Block]]
	if blk.Def == nil {
		return types.TypeDesc{}, false
	}
	loc := diag.Location{Block: ep.Port.Block, Port: ep.Port.Port, Edge: e.ID}
	out, isOut := blk.Def.Output(ep.Port.Port)
	inp, isIn := blk.Def.Input(ep.Port.Port)
	switch {
	case wantOutput && isOut:
		return out.Type, true
	case !wantOutput && isIn:
		return inp.Type, true
	case wantOutput && isIn:
		c.errorf(diag.InvalidEdge, loc, "edge %s starts at input port %s", e.ID, ep.Port).Emit()
	case !wantOutput && isOut:
		c.errorf(diag.InvalidEdge, loc, "edge %s ends at output port %s", e.ID, ep.Port).Emit()
	default:
		c.errorf(diag.PortMissing, loc, "block type %s has no port %q", blk.Type, ep.Port.Port).Emit()
	}
	return types.TypeDesc{}, false
}

func edgeContext(k patch.EdgeKind) adapter.Context {
	switch k {
	case patch.EdgePublish:
		return adapter.ContextPublisher
	case patch.EdgeListen:
		return adapter.ContextListener
	}
	return adapter.ContextWire
}

func (c *compilation) typeEdge(tg *typedGraph, e *nEdge) *tEdge {
	fromT, okFrom := c.endpointType(tg, e, e.From, true)
	toT, okTo := c.endpointType(tg, e, e.To, false)
	if !okFrom || !okTo {
		return nil
	}
	te := &tEdge{nEdge: e, FromT: fromT, ToT: toT}
	loc := diag.AtEdge(e.ID)

	if len(e.Adapters) > 0 {
		path, err := c.resolver.ValidateChain(fromT, toT, e.Adapters)
		if err != nil {
			code := diag.InvalidAdapterChain
			var ce *adapter.ChainError
			if errors.As(err, &ce) && ce.Unknown != "" {
				code = diag.UnknownAdapter
			}
			c.errorf(code, loc, "adapter chain [%s] on edge %s: %v", strings.Join(e.Adapters, ", "), e.ID, err).Emit()
			return nil
		}
		te.Chain = path.Steps
	} else {
		res := c.resolver.FindPath(fromT, toT, edgeContext(e.Kind))
		if !res.Applicable() {
			b := c.errorf(diag.PortTypeMismatch, loc, "cannot connect %s (%s) to %s (%s)", e.From, fromT.Key(), e.To, toT.Key())
			if best := res.Best(); best != nil {
				b.WithNote(loc, fmt.Sprintf("%s conversion available: confirm adapters [%s]", best.Tier, strings.Join(best.IDs(), ", ")))
			}
			b.Emit()
			return nil
		}
		te.Chain = res.Chain()
	}

	for i, l := range e.Lenses {
		step, err := validateLens(l, toT)
		if err != nil {
			c.errorf(diag.InvalidLens, loc, "lens %d (%s) on edge %s: %v", i, l.Kind, e.ID, err).Emit()
			continue
		}
		te.Lenses = append(te.Lenses, step)
	}
	return te
}

// Lens kinds and their parameter names in IR order.
var lensParams = map[string][]string{
	"scale":    {"factor"},
	"offset":   {"amount"},
	"clamp":    {"min", "max"},
	"invert":   nil,
	"quantize": {"step"},
}

func validateLens(l patch.Lens, t types.TypeDesc) (lensStep, error) {
	names, ok := lensParams[l.Kind]
	if !ok {
		return lensStep{}, fmt.Errorf("unknown lens kind %q", l.Kind)
	}
	if t.World == types.WorldEvent || !t.Domain.Additive() {
		return lensStep{}, fmt.Errorf("lenses need a numeric value, edge carries %s", t.Key())
	}
	step := lensStep{Kind: l.Kind, Params: make([]float64, len(names))}
	for i, name := range names {
		x, ok := l.Params[name]
		if !ok {
			return lensStep{}, fmt.Errorf("missing parameter %q", name)
		}
		step.Params[i] = x
	}
	switch l.Kind {
	case "clamp":
		if step.Params[0] > step.Params[1] {
			return lensStep{}, fmt.Errorf("min %g is greater than max %g", step.Params[0], step.Params[1])
		}
	case "quantize":
		if step.Params[0] <= 0 {
			return lensStep{}, fmt.Errorf("step must be positive, got %g", step.Params[0])
		}
	}
	return step, nil
}

// typeDefaults decodes patch-level default sources against their ports.
func (c *compilation) typeDefaults(tg *typedGraph) {
	keys := make([]string, 0, len(c.norm.defaults))
	for k := range c.norm.defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		raw := c.norm.defaults[key]
		ref, err := patch.ParsePortRef(key)
		if err != nil {
			c.errorf(diag.InvalidDefaultSource, diag.Location{}, "default source %q: %v", key, err).Emit()
			continue
		}
		loc := diag.AtPort(ref.Block, ref.Port)
		ix, ok := c.norm.blockIx[ref.Block]
		if !ok {
			c.errorf(diag.InvalidDefaultSource, loc, "default source for missing block %s", ref.Block).Emit()
			continue
		}
		def := tg.blocks[ix].Def
		if def == nil {
			continue
		}
		port, ok := def.Input(ref.Port)
		if !ok {
			c.errorf(diag.InvalidDefaultSource, loc, "block type %s has no input %q", def.Type, ref.Port).Emit()
			continue
		}
		v, err := value.Decode(port.Type.Domain, raw)
		if err != nil {
			c.errorf(diag.InvalidDefaultSource, loc, "default source: %v", err).Emit()
			continue
		}
		tg.defaults[key] = v
	}
}
