package compiler

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"patchc/internal/artifact"
	"patchc/internal/blocks"
	"patchc/internal/diag"
	"patchc/internal/ir"
	"patchc/internal/patch"
	"patchc/internal/program"
	"patchc/internal/testkit"
	"patchc/internal/types"
	"patchc/internal/value"
)

func port(block, p string) patch.PortRef { return patch.PortRef{Block: block, Port: p} }

func block(id, typ string, cfg map[string]any) patch.Block {
	return patch.Block{ID: id, Type: typ, Config: cfg}
}

func compile(t *testing.T, p *patch.CompilerPatch) *Result {
	t.Helper()
	return Compile(context.Background(), p, NewContext(7), Options{})
}

func codes(ds []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}

func mustCompile(t *testing.T, p *patch.CompilerPatch) *Result {
	t.Helper()
	res := compile(t, p)
	if !res.OK {
		for _, d := range res.Errors {
			t.Log(d.Error())
		}
		t.Fatalf("compile failed with %d errors", len(res.Errors))
	}
	return res
}

// constantThroughBus publishes a constant on a last-mode bus that a sink
// listens to.
func constantThroughBus() *patch.CompilerPatch {
	return &patch.CompilerPatch{
		Blocks: []patch.Block{
			block("time", "InfiniteTimeRoot", map[string]any{"windowMs": 10000.0}),
			block("k", "Constant", map[string]any{"value": 42.0}),
			block("out", "Sink", nil),
		},
		Buses: []patch.Bus{{ID: "level", Type: "signal:number", Combine: "last"}},
		Edges: []patch.Edge{
			patch.Publish("pub", port("k", "out"), "level", 0),
			patch.Listen("lis", "level", port("out", "value")),
		},
	}
}

func TestCompileConstantThroughBus(t *testing.T) {
	res := mustCompile(t, constantThroughBus())
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", codes(res.Warnings))
	}
	if got := res.Program.Signal(0, nil).Float(); got != 42 {
		t.Fatalf("signal(0) = %v, want 42", got)
	}
	if got := res.Program.Signal(5000, nil).Float(); got != 42 {
		t.Fatalf("signal(5000) = %v, want 42", got)
	}
	want := ir.TimeModel{Kind: ir.TimeInfinite, WindowMs: 10000, Root: "time"}
	if diff := cmp.Diff(want, *res.TimeModel); diff != "" {
		t.Fatalf("time model (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"k", "time", "out"}, res.IR.BlockOrder); diff != "" {
		t.Fatalf("block order (-want +got):\n%s", diff)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	first := mustCompile(t, constantThroughBus())
	a, err := ir.Encode(first.IR)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	shuffled := constantThroughBus()
	shuffled.Blocks[0], shuffled.Blocks[2] = shuffled.Blocks[2], shuffled.Blocks[0]
	shuffled.Edges[0], shuffled.Edges[1] = shuffled.Edges[1], shuffled.Edges[0]
	for _, p := range []*patch.CompilerPatch{constantThroughBus(), shuffled} {
		b, err := ir.Encode(mustCompile(t, p).IR)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Fatal("IR differs between compiles of the same patch")
		}
	}
}

func TestCycleWithoutStateBoundary(t *testing.T) {
	p := &patch.CompilerPatch{
		Blocks: []patch.Block{
			block("time", "InfiniteTimeRoot", nil),
			block("a", "Add", nil),
			block("b", "Add", nil),
		},
		Edges: []patch.Edge{
			patch.Wire("ab", port("a", "out"), port("b", "a")),
			patch.Wire("ba", port("b", "out"), port("a", "a")),
		},
	}
	res := compile(t, p)
	if res.OK || res.Program != nil {
		t.Fatal("cycle compiled")
	}
	if diff := cmp.Diff([]diag.Code{diag.CycleDetected}, codes(res.Errors)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	msg := res.Errors[0].Message
	if !strings.Contains(msg, "a, b") {
		t.Fatalf("message %q does not name both blocks", msg)
	}
}

func TestDelayMakesCycleLegal(t *testing.T) {
	p := &patch.CompilerPatch{
		Blocks: []patch.Block{
			block("time", "InfiniteTimeRoot", nil),
			block("a", "Add", nil),
			block("d", "Delay", nil),
			block("one", "Constant", map[string]any{"value": 1.0}),
		},
		Edges: []patch.Edge{
			patch.Wire("ad", port("a", "out"), port("d", "in")),
			patch.Wire("da", port("d", "out"), port("a", "a")),
			patch.Wire("oa", port("one", "out"), port("a", "b")),
		},
		Output: &patch.PortRef{Block: "a", Port: "out"},
	}
	res := mustCompile(t, p)
	for i, want := range []float64{1, 2, 3} {
		if got := res.Program.Signal(float64(i)*16, nil).Float(); got != want {
			t.Fatalf("frame %d: got %v, want %v", i, got, want)
		}
	}
}

func TestTimeRootCount(t *testing.T) {
	none := &patch.CompilerPatch{Blocks: []patch.Block{block("k", "Constant", nil)}}
	res := compile(t, none)
	if diff := cmp.Diff([]diag.Code{diag.MissingTimeRoot}, codes(res.Errors)); diff != "" {
		t.Fatalf("no root (-want +got):\n%s", diff)
	}

	two := &patch.CompilerPatch{Blocks: []patch.Block{
		block("t1", "InfiniteTimeRoot", nil),
		block("t2", "CycleTimeRoot", nil),
	}}
	res = compile(t, two)
	if diff := cmp.Diff([]diag.Code{diag.MultipleTimeRoots}, codes(res.Errors)); diff != "" {
		t.Fatalf("two roots (-want +got):\n%s", diff)
	}
	if got := len(res.Errors[0].Notes); got != 2 {
		t.Fatalf("got %d notes, want one per root", got)
	}
}

func TestEmptyPatch(t *testing.T) {
	res := compile(t, &patch.CompilerPatch{})
	if diff := cmp.Diff([]diag.Code{diag.EmptyPatch}, codes(res.Errors)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	res = Compile(context.Background(), nil, nil, Options{})
	if diff := cmp.Diff([]diag.Code{diag.EmptyPatch}, codes(res.Errors)); diff != "" {
		t.Fatalf("nil patch (-want +got):\n%s", diff)
	}
}

func TestUnsupportedCombineMode(t *testing.T) {
	for _, mode := range []string{"average", "bogus"} {
		p := constantThroughBus()
		p.Buses[0].Combine = mode
		res := compile(t, p)
		if diff := cmp.Diff([]diag.Code{diag.UnsupportedCombineMode}, codes(res.Errors)); diff != "" {
			t.Fatalf("%s (-want +got):\n%s", mode, diff)
		}
	}
}

func TestPortTypeMismatchSuggestsAdapter(t *testing.T) {
	p := &patch.CompilerPatch{
		Blocks: []patch.Block{
			block("time", "InfiniteTimeRoot", nil),
			block("v", "ConstVec2", nil),
			block("a", "Add", nil),
		},
		Edges: []patch.Edge{patch.Wire("va", port("v", "out"), port("a", "a"))},
	}
	res := compile(t, p)
	if diff := cmp.Diff([]diag.Code{diag.PortTypeMismatch}, codes(res.Errors)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	notes := res.Errors[0].Notes
	if len(notes) != 1 || !strings.Contains(notes[0].Msg, "Vec2Length/signal") {
		t.Fatalf("notes = %+v, want a Vec2Length suggestion", notes)
	}
}

func TestUnknownAdapterOnEdge(t *testing.T) {
	p := constantThroughBus()
	p.Edges[0] = p.Edges[0].WithAdapters("NoSuchAdapter/signal")
	res := compile(t, p)
	if diff := cmp.Diff([]diag.Code{diag.UnknownAdapter}, codes(res.Errors)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestAutoAdapterIsInserted(t *testing.T) {
	p := &patch.CompilerPatch{
		Blocks: []patch.Block{
			block("time", "CycleTimeRoot", map[string]any{"periodMs": 1000.0}),
			block("a", "Add", nil),
		},
		Edges: []patch.Edge{patch.Wire("pa", port("time", "phase"), port("a", "a"))},
		DefaultSources: map[string]any{
			"a.b": 10.0,
		},
		Output: &patch.PortRef{Block: "a", Port: "out"},
	}
	res := mustCompile(t, p)
	found := false
	for _, s := range res.IR.Slots {
		if s.Op == ir.OpAdapt && s.Str == "PhaseToNumber/signal" && s.Owner == "edge:pa" {
			found = true
		}
	}
	if !found {
		t.Fatal("no PhaseToNumber adapter slot on edge pa")
	}
	if got := res.Program.Signal(250, nil).Float(); got != 10.25 {
		t.Fatalf("signal(250) = %v, want 10.25", got)
	}
}

func TestPulseCounterCountsWraps(t *testing.T) {
	p := &patch.CompilerPatch{
		Blocks: []patch.Block{
			block("time", "CycleTimeRoot", map[string]any{"periodMs": 100.0}),
			block("n", "PulseCounter", nil),
		},
		Edges:  []patch.Edge{patch.Wire("w", port("time", "wrap"), port("n", "trigger"))},
		Output: &patch.PortRef{Block: "n", Port: "count"},
	}
	res := mustCompile(t, p)
	for _, f := range []struct{ t, want float64 }{{0, 0}, {50, 0}, {150, 0}, {250, 1}, {260, 2}} {
		if got := res.Program.Signal(f.t, nil).Float(); got != f.want {
			t.Fatalf("t=%v: count %v, want %v", f.t, got, f.want)
		}
	}
}

func TestGridRendersCircles(t *testing.T) {
	p := &patch.CompilerPatch{
		Blocks: []patch.Block{
			block("time", "InfiniteTimeRoot", nil),
			block("grid", "GridDomain", map[string]any{"rows": 2.0, "cols": 3.0, "spacing": 10.0}),
			block("draw", "RenderCircles", nil),
		},
		Edges: []patch.Edge{patch.Wire("g", port("grid", "positions"), port("draw", "positions"))},
	}
	res := mustCompile(t, p)
	out := res.Program.Signal(0, &artifact.RuntimeCtx{Viewport: artifact.Viewport{Width: 640, Height: 480}})
	if out.Kind != value.KindRender {
		t.Fatalf("output kind = %v, want render", out.Kind)
	}
	circles := out.Render.Circles
	if len(circles) != 6 {
		t.Fatalf("got %d circles, want 6", len(circles))
	}
	want := value.Circle{X: 20, Y: 10, R: 5, Color: [4]float64{1, 1, 1, 1}}
	if circles[5] != want {
		t.Fatalf("last circle = %+v, want %+v", circles[5], want)
	}
}

func TestEventsReachSinks(t *testing.T) {
	p := &patch.CompilerPatch{
		Blocks: []patch.Block{
			block("time", "InfiniteTimeRoot", nil),
			block("tap", "EventInput", map[string]any{"name": "tap"}),
			block("log", "EventSink", nil),
		},
		Edges: []patch.Edge{patch.Wire("e", port("tap", "out"), port("log", "in"))},
	}
	res := mustCompile(t, p)
	if diff := cmp.Diff([]diag.Code{diag.NoOutput}, codes(res.Warnings)); diff != "" {
		t.Fatalf("warnings (-want +got):\n%s", diff)
	}
	got := res.Program.Event(value.Event{Name: "tap", TimeMs: 12, Payload: value.Unit()})
	if len(got) != 1 || got[0].TimeMs != 12 {
		t.Fatalf("sink events = %+v, want one at 12ms", got)
	}
}

func TestPureBlockViolation(t *testing.T) {
	liar := blocks.Def{
		Type:    "Clock",
		Outputs: []blocks.PortDef{{ID: "out", Type: types.SignalTime}},
		Lower: func(_ *blocks.LowerCtx, b *ir.FragmentBuilder, _ blocks.Config) error {
			b.Output("out", b.Emit(ir.Node{Op: ir.OpTime, Type: types.SignalTime}))
			return nil
		},
	}
	cc := NewContext(0)
	cc.Blocks = blocks.MustRegistry(append(blocks.Library(), liar)...)
	p := &patch.CompilerPatch{Blocks: []patch.Block{
		block("time", "InfiniteTimeRoot", nil),
		block("c", "Clock", nil),
	}}
	res := Compile(context.Background(), p, cc, Options{})
	if diff := cmp.Diff([]diag.Code{diag.PureBlockViolation}, codes(res.Errors)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestInvalidBlockConfig(t *testing.T) {
	p := constantThroughBus()
	p.Blocks[1].Config = map[string]any{"value": "high"}
	res := compile(t, p)
	if diff := cmp.Diff([]diag.Code{diag.InvalidBlockConfig}, codes(res.Errors)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestMultipleWriters(t *testing.T) {
	p := &patch.CompilerPatch{
		Blocks: []patch.Block{
			block("time", "InfiniteTimeRoot", nil),
			block("x", "Constant", nil),
			block("y", "Constant", nil),
			block("out", "Sink", nil),
		},
		Edges: []patch.Edge{
			patch.Wire("xo", port("x", "out"), port("out", "value")),
			patch.Wire("yo", port("y", "out"), port("out", "value")),
		},
	}
	res := compile(t, p)
	if diff := cmp.Diff([]diag.Code{diag.MultipleWriters}, codes(res.Errors)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestBusSumOfPublishers(t *testing.T) {
	p := constantThroughBus()
	p.Buses[0].Combine = "sum"
	p.Blocks = append(p.Blocks, block("k2", "Constant", map[string]any{"value": 8.0}))
	p.Edges = append(p.Edges, patch.Publish("pub2", port("k2", "out"), "level", 1))
	res := mustCompile(t, p)
	if got := res.Program.Signal(0, nil).Float(); got != 50 {
		t.Fatalf("signal = %v, want 50", got)
	}
}

func TestLiveKeepsLastGoodProgram(t *testing.T) {
	live := program.NewLive(nil)
	good := mustCompile(t, constantThroughBus())
	live.Swap(good.Program)

	broken := constantThroughBus()
	broken.Buses[0].Combine = "bogus"
	res := compile(t, broken)
	if res.OK {
		t.Fatal("broken patch compiled")
	}
	if live.Swap(res.Program) {
		t.Fatal("failed compile replaced the running program")
	}
	if got := live.Signal(0, nil).Float(); got != 42 {
		t.Fatalf("live signal = %v, want 42", got)
	}
}

func TestCompiledProgramsHoldInvariants(t *testing.T) {
	patches := map[string]*patch.CompilerPatch{
		"bus": constantThroughBus(),
		"delay": {
			Blocks: []patch.Block{
				block("time", "InfiniteTimeRoot", nil),
				block("a", "Add", nil),
				block("d", "Delay", nil),
			},
			Edges: []patch.Edge{
				patch.Wire("ad", port("a", "out"), port("d", "in")),
				patch.Wire("da", port("d", "out"), port("a", "a")),
			},
			DefaultSources: map[string]any{"a.b": 1.0},
			Output:         &patch.PortRef{Block: "a", Port: "out"},
		},
		"adapter": {
			Blocks: []patch.Block{
				block("time", "CycleTimeRoot", map[string]any{"periodMs": 1000.0}),
				block("a", "Add", nil),
			},
			Edges:          []patch.Edge{patch.Wire("pa", port("time", "phase"), port("a", "a"))},
			DefaultSources: map[string]any{"a.b": 1.0},
			Output:         &patch.PortRef{Block: "a", Port: "out"},
		},
	}
	for name, p := range patches {
		t.Run(name, func(t *testing.T) {
			res := mustCompile(t, p)
			if err := testkit.CheckProgramInvariants(res.IR); err != nil {
				t.Fatalf("invariants: %v", err)
			}
		})
	}

	shuffled := constantThroughBus()
	slices.Reverse(shuffled.Blocks)
	diff, err := testkit.DiffPrograms(mustCompile(t, constantThroughBus()).IR, mustCompile(t, shuffled).IR)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if diff != "" {
		t.Fatalf("block order changed the program:\n%s", diff)
	}
}
