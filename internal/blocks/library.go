package blocks

import (
	"patchc/internal/ir"
	"patchc/internal/types"
)

func in(id string, t types.TypeDesc) PortDef  { return PortDef{ID: id, Type: t} }
func out(id string, t types.TypeDesc) PortDef { return PortDef{ID: id, Type: t} }

func optional(id string, t types.TypeDesc, def any) PortDef {
	return PortDef{ID: id, Type: t, Optional: true, Default: def}
}

// Default returns the built-in block library.
func Default() *Registry {
	return MustRegistry(Library()...)
}

// Library lists the built-in block definitions.
func Library() []Def {
	return []Def{
		// time roots
		{
			Type:       "InfiniteTimeRoot",
			Outputs:    []PortDef{out("time", types.SignalTime)},
			Capability: ir.CapTime,
			Lower:      lowerInfiniteTime,
			TimeModel:  infiniteTimeModel,
		},
		{
			Type: "FiniteTimeRoot",
			Outputs: []PortDef{
				out("time", types.SignalTime),
				out("progress", types.SignalPhase),
				out("end", types.EventTrigger),
			},
			Capability: ir.CapTime,
			Lower:      lowerFiniteTime,
			TimeModel:  finiteTimeModel,
		},
		{
			Type: "CycleTimeRoot",
			Outputs: []PortDef{
				out("time", types.SignalTime),
				out("phase", types.SignalPhase),
				out("wrap", types.EventTrigger),
			},
			Capability: ir.CapTime,
			Lower:      lowerCycleTime,
			TimeModel:  cycleTimeModel,
		},

		// sources
		{Type: "Constant", Outputs: []PortDef{out("out", types.SignalNumber)}, Lower: lowerConstant},
		{Type: "ConstVec2", Outputs: []PortDef{out("out", types.SignalVec2)}, Lower: lowerConstVec2},
		{Type: "ScalarConst", Outputs: []PortDef{out("out", types.ScalarNumber)}, Lower: lowerScalarConst},
		{
			Type:    "Param",
			Inputs:  []PortDef{optional("in", types.SignalNumber, nil)},
			Outputs: []PortDef{out("out", types.SignalNumber)},
			Lower:   lowerParam,
		},

		// signal math
		{
			Type:    "Add",
			Inputs:  []PortDef{in("a", types.SignalNumber), in("b", types.SignalNumber)},
			Outputs: []PortDef{out("out", types.SignalNumber)},
			Lower:   lowerBinary(ir.OpAdd),
		},
		{
			Type:    "Multiply",
			Inputs:  []PortDef{in("a", types.SignalNumber), in("b", types.SignalNumber)},
			Outputs: []PortDef{out("out", types.SignalNumber)},
			Lower:   lowerBinary(ir.OpMul),
		},
		{
			Type:    "Clamp",
			Inputs:  []PortDef{in("in", types.SignalNumber)},
			Outputs: []PortDef{out("out", types.SignalNumber)},
			Lower:   lowerClamp,
		},
		{
			Type: "Oscillator",
			Inputs: []PortDef{
				in("phase", types.SignalPhase),
				optional("amplitude", types.SignalNumber, 1.0),
			},
			Outputs: []PortDef{out("out", types.SignalNumber)},
			Lower:   lowerOscillator,
		},
		{
			Type:    "Vec2Compose",
			Inputs:  []PortDef{in("x", types.SignalNumber), in("y", types.SignalNumber)},
			Outputs: []PortDef{out("out", types.SignalVec2)},
			Lower:   lowerVec2,
		},
		{
			Type:    "HueColor",
			Inputs:  []PortDef{in("hue", types.SignalNumber)},
			Outputs: []PortDef{out("out", types.SignalColor)},
			Lower:   lowerHue,
		},

		// state boundaries
		{
			Type:          "Integrator",
			Inputs:        []PortDef{in("in", types.SignalNumber)},
			Outputs:       []PortDef{out("out", types.SignalNumber)},
			Capability:    ir.CapState,
			StateBoundary: true,
			Lower:         lowerStateful("in", "out", StateIntegrate),
		},
		{
			Type:          "Delay",
			Inputs:        []PortDef{in("in", types.SignalNumber)},
			Outputs:       []PortDef{out("out", types.SignalNumber)},
			Capability:    ir.CapState,
			StateBoundary: true,
			Lower:         lowerStateful("in", "out", StateDelay),
		},
		{
			Type:          "PulseCounter",
			Inputs:        []PortDef{in("trigger", types.EventTrigger)},
			Outputs:       []PortDef{out("count", types.SignalNumber)},
			Capability:    ir.CapState,
			StateBoundary: true,
			Lower:         lowerStateful("trigger", "count", StateCount),
		},

		// fields
		{
			Type:       "GridDomain",
			Outputs:    []PortDef{out("positions", types.FieldVec2)},
			Capability: ir.CapIdentity,
			Lower:      lowerGrid,
		},
		{Type: "RandomField", Outputs: []PortDef{out("out", types.FieldNumber)}, Lower: lowerRandomField},
		{
			Type:    "FieldScale",
			Inputs:  []PortDef{in("in", types.FieldNumber), in("factor", types.FieldNumber)},
			Outputs: []PortDef{out("out", types.FieldNumber)},
			Lower:   lowerFieldBinary(ir.OpMul, types.FieldNumber, "in", "factor"),
		},
		{
			Type:    "FieldOffset",
			Inputs:  []PortDef{in("in", types.FieldVec2), in("offset", types.FieldVec2)},
			Outputs: []PortDef{out("out", types.FieldVec2)},
			Lower:   lowerFieldBinary(ir.OpAdd, types.FieldVec2, "in", "offset"),
		},

		// outputs
		{
			Type: "RenderCircles",
			Inputs: []PortDef{
				in("positions", types.FieldVec2),
				optional("radius", types.FieldNumber, 5.0),
				optional("color", types.FieldColor, "#ffffff"),
			},
			Outputs:    []PortDef{out("out", types.SignalRender)},
			Capability: ir.CapRender,
			Lower:      lowerRenderCircles,
		},
		{
			Type:       "Sink",
			Inputs:     []PortDef{in("value", types.SignalNumber)},
			Outputs:    []PortDef{out("out", types.SignalNumber)},
			Capability: ir.CapRender,
			Lower:      lowerSink,
		},

		// external io
		{
			Type:       "EventInput",
			Outputs:    []PortDef{out("out", types.EventTrigger)},
			Capability: ir.CapIO,
			Lower:      lowerEventInput,
		},
		{
			Type:       "EventSink",
			Inputs:     []PortDef{in("in", types.EventTrigger)},
			Capability: ir.CapIO,
			Lower:      lowerEventSink,
		},
	}
}
