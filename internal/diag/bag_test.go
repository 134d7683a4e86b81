package diag

import "testing"

func TestBagLimitAndErrors(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(CycleDetected, AtBlock("a"), "cycle")) {
		t.Fatalf("first add rejected")
	}
	if !b.Add(New(SevWarning, NoOutput, Location{}, "no output")) {
		t.Fatalf("second add rejected")
	}
	if b.Add(NewError(CycleDetected, AtBlock("b"), "cycle")) {
		t.Fatalf("limit not enforced")
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("expected errors and warnings")
	}
	if got := len(b.Errors()); got != 1 {
		t.Fatalf("errors: got %d, want 1", got)
	}
	if got := len(b.Warnings()); got != 1 {
		t.Fatalf("warnings: got %d, want 1", got)
	}
}

func TestBagSortIsDeterministic(t *testing.T) {
	b := NewBag(0)
	b.Add(NewError(UnresolvedPort, AtPort("z", "in"), "z"))
	b.Add(New(SevWarning, AdapterSuggested, AtPort("a", "in"), "a warn"))
	b.Add(NewError(PortTypeMismatch, AtPort("a", "in"), "a err"))
	b.Sort()

	items := b.Items()
	if items[0].Code != PortTypeMismatch || items[1].Code != AdapterSuggested || items[2].Location.Block != "z" {
		t.Fatalf("unexpected order: %v", items)
	}
}

func TestBagDedupAndMerge(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(MultipleWriters, AtPort("b", "x"), "two writers"))
	other := NewBag(4)
	other.Add(NewError(MultipleWriters, AtPort("b", "x"), "two writers"))
	other.Add(NewError(CycleDetected, AtBlock("c"), "cycle"))

	a.Merge(other)
	if a.Len() != 3 {
		t.Fatalf("merge: got %d items, want 3", a.Len())
	}
	a.Dedup()
	if a.Len() != 2 {
		t.Fatalf("dedup: got %d items, want 2", a.Len())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(8)
	counting := &CountingReporter{Next: BagReporter{Bag: bag}}
	rep := NewDedupReporter(counting)

	b := ReportError(rep, PortTypeMismatch, AtPort("osc", "rate"), "mismatch").
		WithNote(AtEdge("e1"), "suggested: NumberToPhase")
	b.Emit()
	b.Emit()
	ReportError(rep, PortTypeMismatch, AtPort("osc", "rate"), "mismatch").Emit()
	ReportWarning(rep, NoOutput, Location{}, "no output").Emit()

	if bag.Len() != 2 {
		t.Fatalf("got %d diagnostics, want 2", bag.Len())
	}
	if counting.Errors != 1 || counting.Warnings != 1 {
		t.Fatalf("counts: errors=%d warnings=%d", counting.Errors, counting.Warnings)
	}
	if got := bag.Items()[0].Notes; len(got) != 1 || got[0].Loc.Edge != "e1" {
		t.Fatalf("note not recorded: %+v", got)
	}
}

func TestCodeIDPrefixes(t *testing.T) {
	cases := map[Code]string{
		EmptyPatch:         "STR1001",
		PortTypeMismatch:   "TYP2001",
		CycleDetected:      "GRF3001",
		MissingTimeRoot:    "TIM4001",
		PureBlockViolation: "LOW5001",
		IOParseError:       "IO6002",
		ObsTimings:         "OBS7001",
		UnknownCode:        "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d: got %s, want %s", code, got, want)
		}
	}
}
