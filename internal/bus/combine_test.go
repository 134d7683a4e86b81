package bus

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"patchc/internal/artifact"
	"patchc/internal/types"
	"patchc/internal/value"
)

func sig(x float64) artifact.Artifact {
	return artifact.Signal{T: types.SignalNumber, Eval: func(float64, *artifact.RuntimeCtx) value.Value { return value.Num(x) }}
}

func field(xs ...float64) artifact.Artifact {
	return artifact.Field{T: types.FieldNumber, Eval: func(float64, *artifact.RuntimeCtx) []value.Value {
		out := make([]value.Value, len(xs))
		for i, x := range xs {
			out[i] = value.Num(x)
		}
		return out
	}}
}

func sample(t *testing.T, a artifact.Artifact) float64 {
	t.Helper()
	s, ok := a.(artifact.Signal)
	if !ok {
		t.Fatalf("expected signal, got %T", a)
	}
	return s.Eval(0, &artifact.RuntimeCtx{}).Float()
}

func floats(t *testing.T, a artifact.Artifact) []float64 {
	t.Helper()
	f, ok := a.(artifact.Field)
	if !ok {
		t.Fatalf("expected field, got %T", a)
	}
	vals := f.Eval(0, &artifact.RuntimeCtx{})
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v.Float()
	}
	return out
}

func TestLastModeTieBreaksByID(t *testing.T) {
	pubs := []Publisher{
		{ID: "pub_z", SortKey: 10, Artifact: sig(1)},
		{ID: "pub_a", SortKey: 10, Artifact: sig(2)},
	}
	got, err := Combine(types.SignalNumber, pubs, ModeLast, value.Num(0))
	if err != nil {
		t.Fatal(err)
	}
	if v := sample(t, got); v != 1 {
		t.Fatalf("winner value = %v, want pub_z's 1", v)
	}

	// swap only the ids: the winner must follow the id, not the position
	pubs[0].ID, pubs[1].ID = "pub_a", "pub_z"
	got, err = Combine(types.SignalNumber, pubs, ModeLast, value.Num(0))
	if err != nil {
		t.Fatal(err)
	}
	if v := sample(t, got); v != 2 {
		t.Fatalf("after swapping ids winner value = %v, want 2", v)
	}
}

func TestLastModeHighestSortKeyWins(t *testing.T) {
	pubs := []Publisher{
		{ID: "a", SortKey: 5, Artifact: sig(50)},
		{ID: "b", SortKey: 1, Artifact: sig(10)},
	}
	got, err := Combine(types.SignalNumber, pubs, ModeLast, value.Num(0))
	if err != nil {
		t.Fatal(err)
	}
	if v := sample(t, got); v != 50 {
		t.Fatalf("got %v, want 50", v)
	}
}

func TestSumIsOrderIndependent(t *testing.T) {
	orders := [][]Publisher{
		{{ID: "a", Artifact: sig(10)}, {ID: "b", Artifact: sig(20)}, {ID: "c", Artifact: sig(30)}},
		{{ID: "c", Artifact: sig(30)}, {ID: "a", Artifact: sig(10)}, {ID: "b", Artifact: sig(20)}},
		{{ID: "b", Artifact: sig(20)}, {ID: "c", Artifact: sig(30)}, {ID: "a", Artifact: sig(10)}},
	}
	for i, pubs := range orders {
		got, err := Combine(types.SignalNumber, pubs, ModeSum, value.Num(0))
		if err != nil {
			t.Fatal(err)
		}
		if v := sample(t, got); v != 60 {
			t.Fatalf("order %d: sum = %v, want 60", i, v)
		}
	}
}

func TestSumVec2ComponentWise(t *testing.T) {
	v2 := func(x, y float64) artifact.Artifact {
		return artifact.Signal{T: types.SignalVec2, Eval: func(float64, *artifact.RuntimeCtx) value.Value { return value.Vec2(x, y) }}
	}
	got, err := Combine(types.SignalVec2, []Publisher{{ID: "a", Artifact: v2(1, 2)}, {ID: "b", Artifact: v2(10, 20)}}, ModeSum, value.Vec2(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	v := got.(artifact.Signal).Eval(0, nil)
	if !value.Equal(v, value.Vec2(11, 22)) {
		t.Fatalf("got %v", v)
	}
}

func TestFieldSumRagged(t *testing.T) {
	got, err := Combine(types.FieldNumber, []Publisher{{ID: "a", Artifact: field(1, 2)}, {ID: "b", Artifact: field(10, 20, 30)}}, ModeSum, value.Num(0))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{11, 22, 30}, floats(t, got)); diff != "" {
		t.Fatalf("ragged sum (-want +got):\n%s", diff)
	}
}

func TestFieldAverageDividesByFieldCount(t *testing.T) {
	pubs := []Publisher{
		{ID: "a", Artifact: field(2, 3, 4)},
		{ID: "b", Artifact: field(4, 6, 8)},
		{ID: "c", Artifact: field(6, 9, 12)},
	}
	got, err := Combine(types.FieldNumber, pubs, ModeAverage, value.Num(0))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{4, 6, 8}, floats(t, got)); diff != "" {
		t.Fatalf("average (-want +got):\n%s", diff)
	}

	ragged, err := Combine(types.FieldNumber, []Publisher{{ID: "a", Artifact: field(4, 4)}, {ID: "b", Artifact: field(2)}}, ModeAverage, value.Num(0))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{3, 2}, floats(t, ragged)); diff != "" {
		t.Fatalf("ragged average (-want +got):\n%s", diff)
	}
}

func TestFieldMinMaxSkipMissing(t *testing.T) {
	pubs := []Publisher{{ID: "a", Artifact: field(5, -1)}, {ID: "b", Artifact: field(3)}}
	lo, err := Combine(types.FieldNumber, pubs, ModeMin, value.Num(0))
	if err != nil {
		t.Fatal(err)
	}
	hi, err := Combine(types.FieldNumber, pubs, ModeMax, value.Num(0))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{3, -1}, floats(t, lo)); diff != "" {
		t.Fatalf("min (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{5, -1}, floats(t, hi)); diff != "" {
		t.Fatalf("max (-want +got):\n%s", diff)
	}
}

func TestEmptyCombineReturnsDefault(t *testing.T) {
	defaults := []struct {
		td  types.TypeDesc
		def value.Value
	}{
		{types.SignalNumber, value.Num(7)},
		{types.SignalVec2, value.Vec2(3, 4)},
	}
	for _, tc := range defaults {
		for _, mode := range []Mode{ModeLast, ModeSum} {
			got, err := CombineSignalArtifacts(tc.td, nil, mode, tc.def)
			if err != nil {
				t.Fatal(err)
			}
			s := got.(artifact.Signal)
			for _, tMs := range []float64{0, 16.7, -250, 1e9} {
				if v := s.Eval(tMs, nil); !value.Equal(v, tc.def) {
					t.Fatalf("%s/%s at %v: got %v, want %v", tc.td.Key(), mode, tMs, v, tc.def)
				}
			}
		}
	}
}

func TestSinglePublisherPassesThrough(t *testing.T) {
	only := sig(42)
	got, err := Combine(types.SignalNumber, []Publisher{{ID: "p", Artifact: only}}, ModeSum, value.Num(0))
	if err != nil {
		t.Fatal(err)
	}
	if sample(t, got) != 42 {
		t.Fatalf("single publisher not passed through")
	}
}

func TestUnsupportedModeNamesSupportedSet(t *testing.T) {
	_, err := Combine(types.SignalNumber, []Publisher{{ID: "a", Artifact: sig(1)}, {ID: "b", Artifact: sig(2)}}, ModeAverage, value.Num(0))
	var um *UnsupportedModeError
	if !errors.As(err, &um) {
		t.Fatalf("expected UnsupportedModeError, got %v", err)
	}
	if diff := cmp.Diff([]Mode{ModeLast, ModeSum}, um.Supported); diff != "" {
		t.Fatalf("supported modes (-want +got):\n%s", diff)
	}
	want := `combine mode "average" is not supported for signal buses (supported: last, sum)`
	if err.Error() != want {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestSumRequiresAdditiveDomain(t *testing.T) {
	td := types.Make(types.WorldSignal, types.DomainBoolean)
	if err := CheckMode(td, ModeSum); err == nil {
		t.Fatalf("sum accepted for boolean bus")
	}
	if err := CheckMode(td, ModeLast); err != nil {
		t.Fatalf("last rejected for boolean bus: %v", err)
	}
}

func TestEventSumMergesInRankOrder(t *testing.T) {
	ev := func(name string) artifact.Artifact {
		return artifact.Events{T: types.EventTrigger, Eval: func(tMs float64, _ *artifact.RuntimeCtx) []value.Event {
			return []value.Event{{Name: name, TimeMs: tMs}}
		}}
	}
	got, err := Combine(types.EventTrigger, []Publisher{{ID: "b", Artifact: ev("b")}, {ID: "a", Artifact: ev("a")}}, ModeSum, value.Unit())
	if err != nil {
		t.Fatal(err)
	}
	evs := got.(artifact.Events).Eval(5, nil)
	if len(evs) != 2 || evs[0].Name != "a" || evs[1].Name != "b" {
		t.Fatalf("events = %+v", evs)
	}
}
