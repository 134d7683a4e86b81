package compiler

import (
	"sort"
	"strings"

	"patchc/internal/bus"
	"patchc/internal/diag"
	"patchc/internal/ir"
	"patchc/internal/patch"
	"patchc/internal/types"
	"patchc/internal/value"
)

const noSlot = -1

// linker flattens fragments into one slot table. Fragment nodes are
// allocated first so a node's slot is known before any operand is resolved;
// conversion, bus and default slots are appended as references resolve.
type linker struct {
	c      *compilation
	prog   *ir.Program
	base   []int // first slot of each block's fragment, noSlot if not lowered
	inputs map[string]int
	busses map[string]int
	active map[string]bool
}

func (c *compilation) link() {
	l := &linker{
		c:      c,
		prog:   &ir.Program{Seed: c.cc.Seed},
		base:   make([]int, len(c.typed.blocks)),
		inputs: make(map[string]int),
		busses: make(map[string]int),
		active: make(map[string]bool),
	}
	c.linked = l

	for i := range l.base {
		l.base[i] = noSlot
	}
	for _, ix := range c.deps.order {
		l.allocate(ix)
	}
	for _, ix := range c.deps.order {
		l.resolveFragment(ix)
	}
	l.bindIO()
	l.resolveOutput()
	c.prog = l.prog
}

func (l *linker) allocate(ix int) {
	frag := l.c.frags[ix]
	if frag == nil {
		return
	}
	b := &l.c.typed.blocks[ix]
	l.base[ix] = len(l.prog.Slots)
	constBase := len(l.prog.Consts)
	stateBase := len(l.prog.States)
	l.prog.Consts = append(l.prog.Consts, frag.Consts...)
	for _, s := range frag.States {
		s.Owner = b.ID
		l.prog.States = append(l.prog.States, s)
	}
	for _, n := range frag.Nodes {
		slot := ir.Slot{
			Op:     n.Op,
			Type:   n.Type,
			Const:  -1,
			State:  -1,
			Params: n.Params,
			Str:    n.Str,
			Owner:  b.ID,
		}
		if n.Const >= 0 {
			slot.Const = int32(constBase + n.Const)
		}
		if n.State >= 0 {
			slot.State = int32(stateBase + n.State)
		}
		l.prog.Slots = append(l.prog.Slots, slot)
	}
}

func (l *linker) resolveFragment(ix int) {
	frag := l.c.frags[ix]
	if frag == nil {
		return
	}
	b := &l.c.typed.blocks[ix]
	for i, n := range frag.Nodes {
		if len(n.Args) == 0 {
			continue
		}
		args := make([]ir.SlotID, 0, len(n.Args))
		for _, op := range n.Args {
			s := l.operand(ix, b.ID, op)
			if s == noSlot {
				args = nil
				break
			}
			args = append(args, ir.ToSlot(s))
		}
		l.prog.Slots[l.base[ix]+i].Args = args
	}
}

func (l *linker) operand(ix int, blockID string, op ir.Operand) int {
	if op.IsInput() {
		return l.input(ix, blockID, op.Port)
	}
	return l.base[ix] + op.Node
}

func (l *linker) addSlot(s ir.Slot) int {
	l.prog.Slots = append(l.prog.Slots, s)
	return len(l.prog.Slots) - 1
}

func (l *linker) constSlot(t types.TypeDesc, v value.Value, owner string) int {
	l.prog.Consts = append(l.prog.Consts, v)
	return l.addSlot(ir.Slot{
		Op:    ir.OpConst,
		Type:  t,
		Const: int32(len(l.prog.Consts) - 1),
		State: -1,
		Owner: owner,
	})
}

// input resolves the value arriving at an input port: its wire or listen
// edge, else a default source, else the zero value of an optional port.
func (l *linker) input(ix int, blockID, port string) int {
	key := blockID + "." + port
	if s, ok := l.inputs[key]; ok {
		return s
	}
	loc := diag.AtPort(blockID, port)
	if l.active[key] {
		l.c.errorf(diag.UnresolvedPort, loc, "input %s depends on itself", key).Emit()
		return noSlot
	}
	l.active[key] = true
	defer delete(l.active, key)

	def := l.c.typed.blocks[ix].Def
	pd, _ := def.Input(port)
	slot := noSlot
	if e, ok := l.c.deps.inbound[key]; ok {
		var src int
		if e.Kind == patch.EdgeListen {
			src = l.bus(e.From.Bus)
		} else {
			src = l.output(e.From.Port.Block, e.From.Port.Port, e)
		}
		if src != noSlot {
			slot = l.convert(e, src)
		}
	} else if v, ok := l.c.typed.defaults[key]; ok {
		slot = l.constSlot(pd.Type, v, blockID)
	} else if pd.Default != nil {
		v, err := value.Decode(pd.Type.Domain, pd.Default)
		if err != nil {
			l.c.errorf(diag.InvalidDefaultSource, loc, "declared default of %s: %v", key, err).Emit()
		} else {
			slot = l.constSlot(pd.Type, v, blockID)
		}
	} else if pd.Optional {
		slot = l.constSlot(pd.Type, value.ZeroOf(pd.Type.Domain), blockID)
	} else {
		l.c.errorf(diag.UnresolvedPort, loc, "required input %s has no connection and no default", key).Emit()
	}
	if slot != noSlot {
		l.inputs[key] = slot
	}
	return slot
}

// output resolves the slot an output port is bound to. via is the edge that
// needs it, for locating diagnostics.
func (l *linker) output(blockID, port string, via *tEdge) int {
	ix := l.c.norm.blockIx[blockID]
	frag := l.c.frags[ix]
	if frag == nil {
		// lowering failed and was reported
		return noSlot
	}
	op, ok := frag.Output(port)
	if !ok {
		loc := diag.AtPort(blockID, port)
		if via != nil {
			loc.Edge = via.ID
		}
		l.c.errorf(diag.DanglingConnection, loc, "output %s.%s is connected but its block produced no value for it", blockID, port).Emit()
		return noSlot
	}
	return l.operand(ix, blockID, op)
}

// bus resolves the slot listeners of a bus read: the default with no
// publishers, the publisher itself with one, a combine slot otherwise.
func (l *linker) bus(id string) int {
	if s, ok := l.busses[id]; ok {
		return s
	}
	tb := l.c.typed.buses[l.c.norm.busIx[id]]
	owner := "bus:" + id

	pubs := rankPublishers(l.c.deps.publishers[id])
	slot := noSlot
	switch len(pubs) {
	case 0:
		slot = l.constSlot(tb.T, tb.Default, owner)
	case 1:
		e := pubs[0]
		if src := l.output(e.From.Port.Block, e.From.Port.Port, e); src != noSlot {
			slot = l.convert(e, src)
		}
	default:
		args := make([]ir.SlotID, 0, len(pubs))
		names := make([]string, 0, len(pubs))
		for _, e := range pubs {
			src := l.output(e.From.Port.Block, e.From.Port.Port, e)
			if src == noSlot {
				return noSlot
			}
			args = append(args, ir.ToSlot(l.convert(e, src)))
			names = append(names, e.ID)
		}
		l.prog.Consts = append(l.prog.Consts, tb.Default)
		slot = l.addSlot(ir.Slot{
			Op:    ir.OpBusCombine,
			Type:  tb.T,
			Args:  args,
			Const: int32(len(l.prog.Consts) - 1),
			State: -1,
			Str:   string(tb.Mode),
			Names: names,
			Owner: owner,
		})
	}
	if slot != noSlot {
		l.busses[id] = slot
	}
	return slot
}

// rankPublishers orders publish edges the way the bus engine ranks
// publishers: ascending sort key, ties by edge id.
func rankPublishers(edges []*tEdge) []*tEdge {
	byID := make(map[string]*tEdge, len(edges))
	pubs := make([]bus.Publisher, len(edges))
	for i, e := range edges {
		pubs[i] = bus.Publisher{ID: e.ID, SortKey: e.SortKey}
		byID[e.ID] = e
	}
	ranked := bus.Rank(pubs)
	out := make([]*tEdge, len(ranked))
	for i, p := range ranked {
		out[i] = byID[p.ID]
	}
	return out
}

// convert appends the adapter and lens slots of e after src.
func (l *linker) convert(e *tEdge, src int) int {
	owner := "edge:" + e.ID
	cur := src
	for _, step := range e.Chain {
		cur = l.addSlot(ir.Slot{
			Op:    ir.OpAdapt,
			Type:  step.To,
			Args:  []ir.SlotID{ir.ToSlot(cur)},
			Const: -1,
			State: -1,
			Str:   step.ID,
			Owner: owner,
		})
	}
	for _, lens := range e.Lenses {
		cur = l.addSlot(ir.Slot{
			Op:     ir.OpLens,
			Type:   e.ToT,
			Args:   []ir.SlotID{ir.ToSlot(cur)},
			Const:  -1,
			State:  -1,
			Params: lens.Params,
			Str:    lens.Kind,
			Owner:  owner,
		})
	}
	return cur
}

// bindIO records event inputs and sinks in block id order.
func (l *linker) bindIO() {
	for ix := range l.c.typed.blocks {
		frag := l.c.frags[ix]
		if frag == nil {
			continue
		}
		id := l.c.typed.blocks[ix].ID
		for i, n := range frag.Nodes {
			slot := ir.ToSlot(l.base[ix] + i)
			switch n.Op {
			case ir.OpEventInput:
				l.prog.EventInputs = append(l.prog.EventInputs, ir.EventBinding{Name: n.Str, Slot: slot})
			case ir.OpEventSink:
				l.prog.EventSinks = append(l.prog.EventSinks, ir.SinkBinding{Block: id, Slot: slot})
			}
		}
	}
	sort.SliceStable(l.prog.EventInputs, func(i, j int) bool {
		return l.prog.EventInputs[i].Name < l.prog.EventInputs[j].Name
	})
}

// resolveOutput picks the program output: the patch's explicit output, else
// the first output of the only render block.
func (l *linker) resolveOutput() {
	c := l.c
	if ref := c.norm.output; ref != nil {
		loc := diag.AtPort(ref.Block, ref.Port)
		ix, ok := c.norm.blockIx[ref.Block]
		if !ok {
			c.errorf(diag.UnresolvedPort, loc, "program output names missing block %s", ref.Block).Emit()
			return
		}
		if _, ok := c.typed.blocks[ix].Def.Output(ref.Port); !ok {
			c.errorf(diag.UnresolvedPort, loc, "program output %s is not an output port", ref).Emit()
			return
		}
		l.setOutput(l.output(ref.Block, ref.Port, nil))
		return
	}

	var renders []*tBlock
	for i := range c.typed.blocks {
		b := &c.typed.blocks[i]
		if b.Def.Capability == ir.CapRender && len(b.Def.Outputs) > 0 {
			renders = append(renders, b)
		}
	}
	switch len(renders) {
	case 0:
		c.warnf(diag.NoOutput, diag.Location{}, "patch has no render or sink block; the program outputs nothing").Emit()
	case 1:
		b := renders[0]
		l.setOutput(l.output(b.ID, b.Def.Outputs[0].ID, nil))
	default:
		ids := make([]string, len(renders))
		for i, b := range renders {
			ids[i] = b.ID
		}
		c.errorf(diag.AmbiguousOutput, diag.Location{}, "patch has %d output blocks (%s); name one as the program output",
			len(renders), strings.Join(ids, ", ")).Emit()
	}
}

func (l *linker) setOutput(slot int) {
	if slot == noSlot {
		return
	}
	l.prog.Output = ir.ToSlot(slot)
	l.prog.HasOutput = true
}
