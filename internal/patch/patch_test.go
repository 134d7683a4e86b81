package patch

import (
	"errors"
	"testing"
)

func TestNewEdgeRejectsBusToBus(t *testing.T) {
	_, err := NewEdge("e1", AtBus("a"), AtBus("b"))
	if !errors.Is(err, ErrBusToBus) {
		t.Fatalf("got %v, want ErrBusToBus", err)
	}
}

func TestNewEdgeRejectsMalformedEndpoints(t *testing.T) {
	both := Endpoint{Port: &PortRef{Block: "a", Port: "out"}, Bus: "b"}
	cases := []struct {
		name     string
		from, to Endpoint
	}{
		{"empty from", Endpoint{}, AtPort("b", "in")},
		{"port and bus", both, AtPort("b", "in")},
		{"empty port name", AtPort("a", ""), AtPort("b", "in")},
	}
	for _, tc := range cases {
		if _, err := NewEdge("e", tc.from, tc.to); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
	if _, err := NewEdge("", AtPort("a", "out"), AtPort("b", "in")); err == nil {
		t.Errorf("empty id accepted")
	}
}

func TestEdgeKinds(t *testing.T) {
	a := PortRef{Block: "a", Port: "out"}
	b := PortRef{Block: "b", Port: "in"}
	cases := map[EdgeKind]Edge{
		EdgeWire:    Wire("w", a, b),
		EdgePublish: Publish("p", a, "bus", 3),
		EdgeListen:  Listen("l", "bus", b),
		EdgeInvalid: {ID: "x", From: AtBus("x"), To: AtBus("y")},
	}
	for want, e := range cases {
		if got := e.Kind(); got != want {
			t.Errorf("%s: kind %v, want %v", e.ID, got, want)
		}
	}
}

func TestParsePortRef(t *testing.T) {
	r, err := ParsePortRef("group.osc.out")
	if err != nil || r.Block != "group.osc" || r.Port != "out" {
		t.Fatalf("got %+v, %v", r, err)
	}
	for _, bad := range []string{"nodot", ".out", "block."} {
		if _, err := ParsePortRef(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestDigestIgnoresMapOrder(t *testing.T) {
	mk := func() *CompilerPatch {
		return &CompilerPatch{
			Blocks: []Block{{ID: "c", Type: "Constant", Config: map[string]any{"value": 1.5, "label": "x", "z": true}}},
			DefaultSources: map[string]any{
				"c.a": 1.0, "c.b": 2.0, "c.c": 3.0,
			},
		}
	}
	d1, err := Digest(mk())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		d2, err := Digest(mk())
		if err != nil {
			t.Fatal(err)
		}
		if d1 != d2 {
			t.Fatalf("digest not stable: %s vs %s", d1, d2)
		}
	}
}

func TestEncodeDecodeKeepsEdges(t *testing.T) {
	p := &CompilerPatch{
		Blocks: []Block{{ID: "a", Type: "Constant"}, {ID: "b", Type: "Sink"}},
		Edges: []Edge{
			Wire("e1", PortRef{Block: "a", Port: "out"}, PortRef{Block: "b", Port: "value"}).
				WithAdapters("PhaseToNumber/signal").
				WithLens("scale", map[string]float64{"factor": 2}),
		},
		Output: &PortRef{Block: "b", Port: "out"},
	}
	data, err := Encode(p)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	e := got.Edges[0]
	if e.Kind() != EdgeWire || e.To.Port.Port != "value" || e.Adapters[0] != "PhaseToNumber/signal" || e.Lenses[0].Params["factor"] != 2 {
		t.Fatalf("edge not preserved: %+v", e)
	}
	if got.Output == nil || got.Output.String() != "b.out" {
		t.Fatalf("output not preserved: %+v", got.Output)
	}
}
