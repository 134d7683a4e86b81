// Package ir is the linked intermediate representation of a compiled patch.
//
// Lowering produces one Fragment per block; the linker flattens fragments
// into a Program: a constant table, a slot table with one expression per
// slot, state cells and an evaluation schedule. A Program holds no maps so
// its msgpack encoding is byte-stable.
package ir

import "fmt"

// Op is the operation computed by a slot.
type Op uint8

const (
	OpInvalid Op = iota

	OpConst // Consts[Const]

	// time roots
	OpTime       // tMs
	OpFiniteTime // clamp(tMs, 0, Params[0])
	OpProgress   // clamp(tMs/Params[0], 0, 1)
	OpEndEvent   // "end" once when tMs crosses Params[0]
	OpCycleTime  // tMs folded into [0, Params[0]) by Str (loop|pingpong)
	OpCyclePhase // OpCycleTime / Params[0]
	OpWrapEvent  // "wrap" when a period boundary is crossed

	// pure arithmetic; field operands broadcast when they have one element
	OpAdd
	OpMul
	OpClamp      // Params = [min, max]
	OpOscillator // Args = [phase, amplitude], Str = shape
	OpVec2
	OpHueColor

	// conversions along edges
	OpAdapt // Str = adapter id
	OpLens  // Str = lens kind, Params = lens parameters

	// Args in publisher rank order, Names = publisher edge ids, Const = default,
	// Str = combine mode.
	OpBusCombine

	OpStateRead  // value of State committed by the previous frame
	OpStateWrite // Str = integrate|delay|count, Args = [input]

	OpGrid        // Params = [rows, cols, spacing, x, y]
	OpRandomField // Params = element values, drawn at lowering time

	OpRender // Args = [positions, radius, color]
	OpSink

	OpEventInput // Str = input name
	OpEventSink

	opCount
)

var opNames = [...]string{
	OpInvalid:     "invalid",
	OpConst:       "const",
	OpTime:        "time",
	OpFiniteTime:  "time.finite",
	OpProgress:    "time.progress",
	OpEndEvent:    "time.end",
	OpCycleTime:   "time.cycle",
	OpCyclePhase:  "time.phase",
	OpWrapEvent:   "time.wrap",
	OpAdd:         "add",
	OpMul:         "mul",
	OpClamp:       "clamp",
	OpOscillator:  "osc",
	OpVec2:        "vec2",
	OpHueColor:    "hue",
	OpAdapt:       "adapt",
	OpLens:        "lens",
	OpBusCombine:  "bus",
	OpStateRead:   "state.read",
	OpStateWrite:  "state.write",
	OpGrid:        "grid",
	OpRandomField: "random",
	OpRender:      "render",
	OpSink:        "sink",
	OpEventInput:  "event.in",
	OpEventSink:   "event.sink",
}

func (o Op) String() string {
	if o < opCount {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Valid reports whether o is a known op.
func (o Op) Valid() bool { return o > OpInvalid && o < opCount }

// Capability is a kernel capability a block may declare. CapPure is the
// default and gates nothing.
type Capability uint8

const (
	CapPure Capability = iota
	CapTime
	CapIdentity
	CapState
	CapRender
	CapIO
)

func (c Capability) String() string {
	switch c {
	case CapPure:
		return "pure"
	case CapTime:
		return "time"
	case CapIdentity:
		return "identity"
	case CapState:
		return "state"
	case CapRender:
		return "render"
	case CapIO:
		return "io"
	}
	return fmt.Sprintf("capability(%d)", uint8(c))
}

// Capability returns the capability an op is gated by.
func (o Op) Capability() Capability {
	switch o {
	case OpTime, OpFiniteTime, OpProgress, OpEndEvent, OpCycleTime, OpCyclePhase, OpWrapEvent:
		return CapTime
	case OpGrid:
		return CapIdentity
	case OpStateRead, OpStateWrite:
		return CapState
	case OpRender, OpSink:
		return CapRender
	case OpEventInput, OpEventSink:
		return CapIO
	}
	return CapPure
}
