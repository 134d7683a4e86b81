// Package program evaluates a linked IR program frame by frame.
//
// A Program keeps one register per slot and the state cells of its
// state-boundary blocks. Evaluating a frame runs the schedule once and then
// commits the state writes, so a state read always sees the previous frame.
package program

import (
	"fmt"

	"patchc/internal/adapter"
	"patchc/internal/artifact"
	"patchc/internal/bus"
	"patchc/internal/ir"
	"patchc/internal/types"
	"patchc/internal/value"
)

// register holds a slot's value for the current frame. Which field is used
// depends on the slot's world.
type register struct {
	v  value.Value
	f  []value.Value
	ev []value.Event
}

// Program is not safe for concurrent use; Live serialises access.
type Program struct {
	ir       *ir.Program
	adapters []*adapter.Adapter  // OpAdapt slots
	combine  []artifact.Artifact // OpBusCombine slots over signal, field and event buses
	fixed    [][]value.Value     // OpGrid and OpRandomField slots

	regs    []register
	cells   []value.Value
	pending []value.Value
	prevT   float64
	frames  uint64
}

// New prepares p for evaluation. Adapter steps are looked up in reg, which
// must contain every adapter the program was linked with.
func New(p *ir.Program, reg *adapter.Registry) (*Program, error) {
	if err := ir.Validate(p); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}
	prog := &Program{
		ir:       p,
		adapters: make([]*adapter.Adapter, len(p.Slots)),
		combine:  make([]artifact.Artifact, len(p.Slots)),
		fixed:    make([][]value.Value, len(p.Slots)),
		regs:     make([]register, len(p.Slots)),
	}
	for i := range p.Slots {
		s := &p.Slots[i]
		switch s.Op {
		case ir.OpAdapt:
			a, ok := reg.Lookup(s.Str)
			if !ok {
				return nil, fmt.Errorf("slot %d: unknown adapter %q", i, s.Str)
			}
			prog.adapters[i] = a
		case ir.OpBusCombine:
			if _, err := bus.ParseMode(s.Str); err != nil {
				return nil, fmt.Errorf("slot %d: %w", i, err)
			}
			if s.Type.World == types.WorldScalar {
				continue
			}
			art, err := prog.busArtifact(s)
			if err != nil {
				return nil, fmt.Errorf("slot %d (%s): %w", i, s.Owner, err)
			}
			prog.combine[i] = art
		case ir.OpGrid:
			prog.fixed[i] = grid(s.Params)
		case ir.OpRandomField:
			vals := make([]value.Value, len(s.Params))
			for j, x := range s.Params {
				vals[j] = value.Num(x)
			}
			prog.fixed[i] = vals
		}
	}
	prog.Reset()
	return prog, nil
}

// busArtifact wires the bus engine over the registers of the publishers.
// Operands are already in rank order; sort keys keep that order.
func (p *Program) busArtifact(s *ir.Slot) (artifact.Artifact, error) {
	mode, _ := bus.ParseMode(s.Str) //nolint:errcheck
	pubs := make([]bus.Publisher, len(s.Args))
	for i, a := range s.Args {
		pubs[i] = bus.Publisher{ID: s.Names[i], SortKey: i, Artifact: p.registerArtifact(a, s.Type)}
	}
	return bus.Combine(s.Type, pubs, mode, p.ir.Consts[s.Const])
}

func (p *Program) registerArtifact(id ir.SlotID, t types.TypeDesc) artifact.Artifact {
	switch t.World {
	case types.WorldField:
		return artifact.Field{T: t, Eval: func(float64, *artifact.RuntimeCtx) []value.Value { return p.regs[id].f }}
	case types.WorldEvent:
		return artifact.Events{T: t, Eval: func(float64, *artifact.RuntimeCtx) []value.Event { return p.regs[id].ev }}
	case types.WorldScalar:
		return artifact.Scalar{T: t, V: p.regs[id].v}
	}
	return artifact.Signal{T: t, Eval: func(float64, *artifact.RuntimeCtx) value.Value { return p.regs[id].v }}
}

// Reset restores every state cell to its initial value and forgets the
// previous frame.
func (p *Program) Reset() {
	p.cells = make([]value.Value, len(p.ir.States))
	for i, s := range p.ir.States {
		p.cells[i] = s.Init
	}
	p.pending = append([]value.Value(nil), p.cells...)
	p.prevT = 0
	p.frames = 0
}

// IR returns the program's linked IR.
func (p *Program) IR() *ir.Program { return p.ir }

// TimeModel returns the time model of the patch.
func (p *Program) TimeModel() ir.TimeModel { return p.ir.Time }

// Frames returns the number of frames evaluated since the last Reset.
func (p *Program) Frames() uint64 { return p.frames }

// Signal evaluates the frame at tMs and returns the program output. Without
// state blocks the result depends only on tMs; state blocks advance once per
// call, so calls must follow frame order.
func (p *Program) Signal(tMs float64, rc *artifact.RuntimeCtx) value.Value {
	var local artifact.RuntimeCtx
	if rc != nil {
		local = *rc
	}
	p.frame(tMs, &local)
	return p.output()
}

// Event delivers e to every event input named e.Name, evaluates the frame
// at e.TimeMs and returns the events that reached event sinks, in sink block
// id order.
func (p *Program) Event(e value.Event) []value.Event {
	rc := artifact.RuntimeCtx{Inbox: []value.Event{e}}
	p.frame(e.TimeMs, &rc)
	var out []value.Event
	for _, sink := range p.ir.EventSinks {
		out = append(out, p.regs[sink.Slot].ev...)
	}
	return out
}

func (p *Program) frame(t float64, rc *artifact.RuntimeCtx) {
	prev := t
	if p.frames > 0 {
		prev = p.prevT
	}
	rc.PrevTMs = prev
	rc.DeltaMs = t - prev
	rc.Frame = p.frames

	copy(p.pending, p.cells)
	for _, id := range p.ir.Schedule {
		p.eval(id, t, rc)
	}
	copy(p.cells, p.pending)
	p.prevT = t
	p.frames++
}

func (p *Program) output() value.Value {
	if !p.ir.HasOutput {
		return value.Unit()
	}
	r := &p.regs[p.ir.Output]
	switch p.ir.Slots[p.ir.Output].Type.World {
	case types.WorldField:
		if len(r.f) > 0 {
			return r.f[0]
		}
		return value.Unit()
	case types.WorldEvent:
		return value.Unit()
	}
	return r.v
}
