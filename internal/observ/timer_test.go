package observ

import (
	"strings"
	"testing"
)

func TestTimerReportKeepsOrder(t *testing.T) {
	tm := NewTimer()
	a := tm.Begin("normalize")
	tm.End(a, "3 blocks")
	tm.Time("typegraph", func() string { return "" })
	tm.End(99, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "normalize" || r.Phases[1].Name != "typegraph" {
		t.Fatalf("unexpected phases: %+v", r.Phases)
	}
	if r.Phases[0].Note != "3 blocks" {
		t.Fatalf("note = %q", r.Phases[0].Note)
	}
	if !strings.Contains(tm.Summary(), "total") {
		t.Fatalf("summary lacks total:\n%s", tm.Summary())
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer reported phases")
	}
}
