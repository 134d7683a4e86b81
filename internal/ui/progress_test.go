package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"patchc/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	m := NewProgressModel("check", []string{"a.hcl", "b.hcl"}, nil).(*progressModel)

	m.applyEvent(driver.Event{File: "a.hcl", Stage: driver.StageCompile, Status: driver.StatusWorking})
	if got := m.items[0].status; got != "compiling" {
		t.Fatalf("status = %q, want compiling", got)
	}
	m.applyEvent(driver.Event{File: "a.hcl", Stage: driver.StageCompile, Status: driver.StatusDone, Elapsed: 12 * time.Millisecond})
	m.applyEvent(driver.Event{File: "b.hcl", Stage: driver.StageCache, Status: driver.StatusDone})
	m.applyEvent(driver.Event{File: "unknown.hcl", Stage: driver.StageLoad, Status: driver.StatusError})
	m.applyEvent(driver.Event{Stage: driver.StageCompile, Status: driver.StatusDone})

	if got := m.fraction(); got != 1.0 {
		t.Fatalf("fraction = %v, want 1", got)
	}
	if m.items[1].status != "cached" {
		t.Fatalf("status = %q, want cached", m.items[1].status)
	}

	m.done = true
	view := m.View()
	for _, want := range []string{"done: check (done)", "a.hcl  12ms", "cached"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q, want short", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Fatalf("got %q, want abc", got)
	}
	got := truncate("patches/very/long/name.hcl", 10)
	if !strings.HasPrefix(got, "pat") || !strings.HasSuffix(got, "...") {
		t.Fatalf("got %q, want a prefix ending in ...", got)
	}
	if w := runewidth.StringWidth(got); w > 10 {
		t.Fatalf("width %d exceeds 10 for %q", w, got)
	}
}
