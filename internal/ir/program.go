package ir

import (
	"fmt"

	"fortio.org/safecast"

	"patchc/internal/types"
	"patchc/internal/value"
)

// SlotID indexes Program.Slots.
type SlotID uint32

// ToSlot narrows an index to a SlotID.
func ToSlot(i int) SlotID {
	id, err := safecast.Conv[SlotID](i)
	if err != nil {
		panic(fmt.Errorf("slot id overflow: %w", err))
	}
	return id
}

// Slot is one expression of the linked program.
type Slot struct {
	Op     Op             `msgpack:"op"`
	Type   types.TypeDesc `msgpack:"type"`
	Args   []SlotID       `msgpack:"args,omitempty"`
	Const  int32          `msgpack:"const"`
	State  int32          `msgpack:"state"`
	Params []float64      `msgpack:"params,omitempty"`
	Str    string         `msgpack:"str,omitempty"`
	Names  []string       `msgpack:"names,omitempty"`
	Owner  string         `msgpack:"owner"` // block id, "bus:<id>" or "edge:<id>"
}

// StateCell is frame-to-frame memory owned by a state-boundary block.
type StateCell struct {
	Owner string         `msgpack:"owner"`
	Type  types.TypeDesc `msgpack:"type"`
	Init  value.Value    `msgpack:"init"`
}

// EventBinding connects an external event name to an EventInput slot.
type EventBinding struct {
	Name string `msgpack:"name"`
	Slot SlotID `msgpack:"slot"`
}

// SinkBinding is an EventSink block and the slot it collects.
type SinkBinding struct {
	Block string `msgpack:"block"`
	Slot  SlotID `msgpack:"slot"`
}

// TimeKind selects the TimeModel variant.
type TimeKind uint8

const (
	TimeInfinite TimeKind = iota + 1
	TimeFinite
	TimeCyclic
)

func (k TimeKind) String() string {
	switch k {
	case TimeInfinite:
		return "infinite"
	case TimeFinite:
		return "finite"
	case TimeCyclic:
		return "cyclic"
	}
	return "none"
}

// TimeModel is the temporal topology derived from the time root.
type TimeModel struct {
	Kind       TimeKind  `msgpack:"kind"`
	DurationMs float64   `msgpack:"duration_ms,omitempty"`
	Cues       []float64 `msgpack:"cues,omitempty"`
	PeriodMs   float64   `msgpack:"period_ms,omitempty"`
	Mode       string    `msgpack:"mode,omitempty"`
	WindowMs   float64   `msgpack:"window_ms,omitempty"`
	Root       string    `msgpack:"root"`
}

func (m TimeModel) String() string {
	switch m.Kind {
	case TimeFinite:
		return fmt.Sprintf("finite(duration=%gms, cues=%d)", m.DurationMs, len(m.Cues))
	case TimeCyclic:
		return fmt.Sprintf("cyclic(period=%gms, mode=%s)", m.PeriodMs, m.Mode)
	case TimeInfinite:
		return fmt.Sprintf("infinite(window=%gms)", m.WindowMs)
	}
	return "none"
}

// Program is the linked, scheduled IR.
type Program struct {
	Format      uint32         `msgpack:"format"`
	Seed        uint64         `msgpack:"seed"`
	Consts      []value.Value  `msgpack:"consts"`
	Slots       []Slot         `msgpack:"slots"`
	States      []StateCell    `msgpack:"states,omitempty"`
	Schedule    []SlotID       `msgpack:"schedule"`
	Output      SlotID         `msgpack:"output"`
	HasOutput   bool           `msgpack:"has_output"`
	EventInputs []EventBinding `msgpack:"event_inputs,omitempty"`
	EventSinks  []SinkBinding  `msgpack:"event_sinks,omitempty"`
	Time        TimeModel      `msgpack:"time"`
	BlockOrder  []string       `msgpack:"block_order"`
}

// OutputType is the type of the program output, or signal:unit.
func (p *Program) OutputType() types.TypeDesc {
	if !p.HasOutput || int(p.Output) >= len(p.Slots) {
		return types.Make(types.WorldSignal, types.DomainUnit)
	}
	return p.Slots[p.Output].Type
}
