package program

import (
	"math"
	"testing"

	"patchc/internal/adapter"
	"patchc/internal/artifact"
	"patchc/internal/ir"
	"patchc/internal/types"
	"patchc/internal/value"
)

func slot(op ir.Op, t types.TypeDesc, args ...ir.SlotID) ir.Slot {
	return ir.Slot{Op: op, Type: t, Args: args, Const: -1, State: -1}
}

func constSlot(t types.TypeDesc, c int32) ir.Slot {
	return ir.Slot{Op: ir.OpConst, Type: t, Const: c, State: -1}
}

// linear builds a program whose schedule is the slot order.
func linear(consts []value.Value, slots []ir.Slot, out ir.SlotID) *ir.Program {
	sched := make([]ir.SlotID, len(slots))
	for i := range sched {
		sched[i] = ir.ToSlot(i)
	}
	return &ir.Program{
		Format:    1,
		Consts:    consts,
		Slots:     slots,
		Schedule:  sched,
		Output:    out,
		HasOutput: true,
		Time:      ir.TimeModel{Kind: ir.TimeInfinite, WindowMs: 10000, Root: "time"},
	}
}

func mustNew(t *testing.T, p *ir.Program) *Program {
	t.Helper()
	prog, err := New(p, adapter.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return prog
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDelayFeedbackSeesPreviousFrame(t *testing.T) {
	read := slot(ir.OpStateRead, types.SignalNumber)
	read.State = 0
	write := slot(ir.OpStateWrite, types.SignalNumber, 2)
	write.State, write.Str = 0, "delay"
	p := linear(
		[]value.Value{value.Num(42)},
		[]ir.Slot{constSlot(types.SignalNumber, 0), read, slot(ir.OpAdd, types.SignalNumber, 0, 1), write},
		2,
	)
	p.States = []ir.StateCell{{Owner: "d", Type: types.SignalNumber, Init: value.Num(0)}}
	prog := mustNew(t, p)

	for i, want := range []float64{42, 84, 126} {
		if got := prog.Signal(float64(i)*16, nil).Float(); got != want {
			t.Fatalf("frame %d: got %v, want %v", i, got, want)
		}
	}
	prog.Reset()
	if got := prog.Signal(0, nil).Float(); got != 42 {
		t.Fatalf("after reset: got %v, want 42", got)
	}
}

func TestIntegratorUsesFrameDelta(t *testing.T) {
	read := slot(ir.OpStateRead, types.SignalNumber)
	read.State = 0
	write := slot(ir.OpStateWrite, types.SignalNumber, 0)
	write.State, write.Str = 0, "integrate"
	p := linear([]value.Value{value.Num(2)}, []ir.Slot{constSlot(types.SignalNumber, 0), read, write}, 1)
	p.States = []ir.StateCell{{Owner: "i", Type: types.SignalNumber, Init: value.Num(0)}}
	prog := mustNew(t, p)

	for _, tc := range []struct{ t, want float64 }{{0, 0}, {500, 0}, {1000, 1}, {1000, 2}} {
		if got := prog.Signal(tc.t, nil).Float(); got != tc.want {
			t.Fatalf("t=%v: got %v, want %v", tc.t, got, tc.want)
		}
	}
	if prog.Frames() != 4 {
		t.Fatalf("frames = %d, want 4", prog.Frames())
	}
}

func TestOscillatorShapes(t *testing.T) {
	cases := []struct {
		shape string
		phase float64
		want  float64
	}{
		{"sine", 0.25, 1},
		{"sine", 0, 0},
		{"triangle", 0, -1},
		{"triangle", 0.5, 1},
		{"saw", 0, -1},
		{"saw", 0.5, 0},
		{"square", 0.25, 1},
		{"square", 0.75, -1},
		{"square", 1.25, 1},
	}
	for _, tc := range cases {
		if got := oscillate(tc.shape, tc.phase); !near(got, tc.want) {
			t.Errorf("%s(%v) = %v, want %v", tc.shape, tc.phase, got, tc.want)
		}
	}
}

func TestCycleTime(t *testing.T) {
	cases := []struct {
		mode      string
		t, period float64
		want      float64
	}{
		{"loop", 1200, 1000, 200},
		{"loop", 999, 1000, 999},
		{"pingpong", 1200, 1000, 800},
		{"pingpong", 300, 1000, 300},
	}
	for _, tc := range cases {
		if got := cycleTime(tc.t, tc.period, tc.mode); !near(got, tc.want) {
			t.Errorf("%s(%v) = %v, want %v", tc.mode, tc.t, got, tc.want)
		}
	}
}

func TestWrapAndEndEvents(t *testing.T) {
	wrap := slot(ir.OpWrapEvent, types.EventTrigger)
	wrap.Params = []float64{1000}
	end := slot(ir.OpEndEvent, types.EventTrigger)
	end.Params = []float64{1500}
	p := linear(nil, []ir.Slot{wrap, end}, 0)
	prog := mustNew(t, p)

	type frame struct {
		t          float64
		wraps, end int
	}
	for _, f := range []frame{{0, 0, 0}, {900, 0, 0}, {1100, 1, 0}, {1600, 0, 1}, {2100, 1, 0}} {
		prog.Signal(f.t, nil)
		if got := len(prog.regs[0].ev); got != f.wraps {
			t.Fatalf("t=%v: %d wrap events, want %d", f.t, got, f.wraps)
		}
		if got := len(prog.regs[1].ev); got != f.end {
			t.Fatalf("t=%v: %d end events, want %d", f.t, got, f.end)
		}
	}
}

func TestGridOffsetRender(t *testing.T) {
	g := slot(ir.OpGrid, types.FieldVec2)
	g.Params = []float64{2, 2, 10, 0, 0}
	p := linear(
		[]value.Value{value.Vec2(5, 5), value.Num(3), value.RGBA(1, 0, 0, 1)},
		[]ir.Slot{
			g,
			constSlot(types.FieldVec2, 0),
			slot(ir.OpAdd, types.FieldVec2, 0, 1),
			constSlot(types.FieldNumber, 1),
			constSlot(types.FieldColor, 2),
			slot(ir.OpRender, types.SignalRender, 2, 3, 4),
		},
		5,
	)
	prog := mustNew(t, p)

	out := prog.Signal(0, &artifact.RuntimeCtx{Viewport: artifact.Viewport{Width: 100, Height: 50}})
	if out.Kind != value.KindRender || out.Render == nil {
		t.Fatalf("output kind = %v, want render", out.Kind)
	}
	tree := out.Render
	if tree.Width != 100 || tree.Height != 50 {
		t.Fatalf("viewport = %vx%v, want 100x50", tree.Width, tree.Height)
	}
	if len(tree.Circles) != 4 {
		t.Fatalf("got %d circles, want 4", len(tree.Circles))
	}
	last := tree.Circles[3]
	want := value.Circle{X: 15, Y: 15, R: 3, Color: [4]float64{1, 0, 0, 1}}
	if last != want {
		t.Fatalf("circle 3 = %+v, want %+v", last, want)
	}
}

func TestFieldAddPadsShorterWithZero(t *testing.T) {
	r := register{}
	s := &ir.Slot{Op: ir.OpAdd, Type: types.FieldNumber, Args: []ir.SlotID{0, 1}}
	p := &Program{regs: []register{
		{f: []value.Value{value.Num(1), value.Num(2), value.Num(3)}},
		{f: []value.Value{value.Num(10), value.Num(20)}},
	}}
	p.binary(s, &r, value.Add)
	got := make([]float64, len(r.f))
	for i, v := range r.f {
		got[i] = v.Float()
	}
	if len(got) != 3 || got[0] != 11 || got[1] != 22 || got[2] != 3 {
		t.Fatalf("got %v, want [11 22 3]", got)
	}
}

func TestBusCombine(t *testing.T) {
	bus := func(tt types.TypeDesc, mode string) ir.Slot {
		s := slot(ir.OpBusCombine, tt, 0, 1)
		s.Const, s.Str, s.Names = 2, mode, []string{"a", "b"}
		return s
	}
	consts := []value.Value{value.Num(2), value.Num(3), value.Num(0)}
	cases := []struct {
		name string
		t    types.TypeDesc
		mode string
		want float64
	}{
		{"signal sum", types.SignalNumber, "sum", 5},
		{"signal last", types.SignalNumber, "last", 3},
		{"scalar sum", types.ScalarNumber, "sum", 5},
		{"scalar last", types.ScalarNumber, "last", 3},
		{"field average", types.FieldNumber, "average", 2.5},
		{"field min", types.FieldNumber, "min", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := linear(consts, []ir.Slot{constSlot(tc.t, 0), constSlot(tc.t, 1), bus(tc.t, tc.mode)}, 2)
			prog := mustNew(t, p)
			if got := prog.Signal(0, nil).Float(); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdaptAndLens(t *testing.T) {
	adapt := slot(ir.OpAdapt, types.SignalNumber, 0)
	adapt.Str = "PhaseToNumber/signal"
	lens := slot(ir.OpLens, types.SignalNumber, 1)
	lens.Str, lens.Params = "scale", []float64{4}
	p := linear([]value.Value{value.Num(0.25)}, []ir.Slot{constSlot(types.SignalPhase, 0), adapt, lens}, 2)
	prog := mustNew(t, p)
	if got := prog.Signal(0, nil).Float(); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}

	if got := applyLens("invert", nil, types.DomainPhase, value.Num(0.25)).Float(); got != 0.75 {
		t.Fatalf("invert phase = %v, want 0.75", got)
	}
	if got := applyLens("invert", nil, types.DomainNumber, value.Num(0.25)).Float(); got != -0.25 {
		t.Fatalf("invert number = %v, want -0.25", got)
	}
	if got := applyLens("quantize", []float64{0.5}, types.DomainNumber, value.Num(1.3)).Float(); got != 1.5 {
		t.Fatalf("quantize = %v, want 1.5", got)
	}
}

func TestNewRejectsUnknownAdapter(t *testing.T) {
	adapt := slot(ir.OpAdapt, types.SignalNumber, 0)
	adapt.Str = "NoSuchAdapter/signal"
	p := linear([]value.Value{value.Num(1)}, []ir.Slot{constSlot(types.SignalNumber, 0), adapt}, 1)
	if _, err := New(p, adapter.Default()); err == nil {
		t.Fatal("expected an error for an unknown adapter")
	}
}

func TestEventRouting(t *testing.T) {
	in := slot(ir.OpEventInput, types.EventTrigger)
	in.Str = "tap"
	p := linear(nil, []ir.Slot{in, slot(ir.OpEventSink, types.EventTrigger, 0)}, 0)
	p.HasOutput = false
	p.EventInputs = []ir.EventBinding{{Name: "tap", Slot: 0}}
	p.EventSinks = []ir.SinkBinding{{Block: "out", Slot: 1}}
	prog := mustNew(t, p)

	got := prog.Event(value.Event{Name: "tap", TimeMs: 5, Payload: value.Unit()})
	if len(got) != 1 || got[0].Name != "tap" || got[0].TimeMs != 5 {
		t.Fatalf("got %+v, want one tap event at 5ms", got)
	}
	if got := prog.Event(value.Event{Name: "other", TimeMs: 6}); len(got) != 0 {
		t.Fatalf("unrelated event reached the sink: %+v", got)
	}
	if got := prog.Signal(7, nil); got.Kind != value.KindUnit {
		t.Fatalf("output without output slot = %v, want unit", got)
	}
}

func TestLiveKeepsLastGoodProgram(t *testing.T) {
	first := mustNew(t, linear([]value.Value{value.Num(1)}, []ir.Slot{constSlot(types.SignalNumber, 0)}, 0))
	second := mustNew(t, linear([]value.Value{value.Num(2)}, []ir.Slot{constSlot(types.SignalNumber, 0)}, 0))

	l := NewLive(nil)
	if got := l.Signal(0, nil); got.Kind != value.KindUnit {
		t.Fatalf("empty live = %v, want unit", got)
	}
	if !l.Swap(first) {
		t.Fatal("Swap(first) = false")
	}
	if l.Swap(nil) {
		t.Fatal("Swap(nil) = true")
	}
	if got := l.Signal(0, nil).Float(); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}
	l.Swap(second)
	cur, gen := l.Current()
	if cur != second || gen != 2 {
		t.Fatalf("Current = %p gen %d, want second gen 2", cur, gen)
	}
}
