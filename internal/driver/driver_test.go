package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"patchc/internal/diag"
	"patchc/internal/ir"
	"patchc/internal/patchfile"
	"patchc/internal/testkit"
)

const constantPatch = `
block "time" {
  type = "InfiniteTimeRoot"
}
block "k" {
  type   = "Constant"
  config = { value = 42 }
}
block "out" {
  type = "Sink"
}
bus "level" {
  type = "signal:number"
}
publish "p" {
  from = "k.out"
  bus  = "level"
}
listen "l" {
  bus = "level"
  to  = "out.value"
}
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileFileUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "k.hcl", constantPatch)
	cache, err := NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Seed: 3, Cache: cache}

	first := CompileFile(context.Background(), path, opts)
	if !first.OK() || first.Cached {
		t.Fatalf("first compile: ok=%v cached=%v errors=%v", first.OK(), first.Cached, first.Bag.Errors())
	}
	second := CompileFile(context.Background(), path, opts)
	if !second.OK() || !second.Cached {
		t.Fatalf("second compile: ok=%v cached=%v", second.OK(), second.Cached)
	}
	if got := second.Result.Program.Signal(0, nil).Float(); got != 42 {
		t.Fatalf("cached program signal = %v, want 42", got)
	}
	a, _ := ir.Encode(first.Result.IR)
	b, _ := ir.Encode(second.Result.IR)
	if !bytes.Equal(a, b) {
		t.Fatal("cached IR differs from compiled IR")
	}

	reseeded := CompileFile(context.Background(), path, Options{Seed: 4, Cache: cache})
	if reseeded.Cached {
		t.Fatal("a different seed hit the cache")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if again := CompileFile(context.Background(), path, opts); again.Cached {
		t.Fatal("cache hit after DropAll")
	}
}

func TestCompileFileReportsLoadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		path string
		code diag.Code
	}{
		{"missing", filepath.Join(dir, "missing.hcl"), diag.IOLoadFileError},
		{"syntax", writeFile(t, dir, "bad.hcl", "block \"a\" {"), diag.IOParseError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fr := CompileFile(context.Background(), tc.path, Options{})
			if fr.OK() || fr.Result != nil {
				t.Fatal("load failure produced a result")
			}
			errs := fr.Bag.Errors()
			if len(errs) == 0 || errs[0].Code != tc.code {
				t.Fatalf("errors = %v, want %s", errs, tc.code.ID())
			}
		})
	}
}

func TestCompileFileTimings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "k.hcl", constantPatch)
	fr := CompileFile(context.Background(), path, Options{Timings: true})
	var found *diag.Diagnostic
	for _, d := range fr.Bag.Items() {
		if d.Code == diag.ObsTimings {
			found = &d
		}
	}
	if found == nil {
		t.Fatal("no timings diagnostic")
	}
	if len(found.Notes) != 1 || !strings.Contains(found.Notes[0].Msg, `"name":"typegraph"`) {
		t.Fatalf("timings note = %+v, want per-pass phases", found.Notes)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func TestCompileAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.hcl", constantPatch)
	broken := writeFile(t, dir, "b.hcl", strings.Replace(constantPatch, "InfiniteTimeRoot", "Constant", 1))
	other := writeFile(t, dir, "c.hcl", constantPatch)

	sink := &recordingSink{}
	results, err := CompileAll(context.Background(), []string{good, broken, other}, Options{Jobs: 2, Sink: sink})
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []bool{true, false, true} {
		if results[i].OK() != want {
			t.Fatalf("result %d (%s): ok=%v, want %v", i, results[i].Path, results[i].OK(), want)
		}
	}
	errs := results[1].Bag.Errors()
	if len(errs) != 1 || errs[0].Code != diag.MissingTimeRoot {
		t.Fatalf("broken file errors = %v, want MissingTimeRoot", errs)
	}

	var failed, batch int
	for _, e := range sink.events {
		if e.File == broken && e.Stage == StageCompile && e.Status == StatusError {
			failed++
		}
		if e.File == "" {
			batch++
		}
	}
	if failed != 1 || batch != 1 {
		t.Fatalf("got %d compile errors and %d batch events, want 1 and 1", failed, batch)
	}
}

func TestCompileAllCancelled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "k.hcl", constantPatch)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CompileAll(ctx, []string{path}, Options{}); err == nil {
		t.Fatal("expected a cancellation error")
	}
}

func TestCompileTestdataPatches(t *testing.T) {
	files, err := patchfile.Find(filepath.Join("..", "..", "testdata", "patches"))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("found %d patches, want 3: %v", len(files), files)
	}
	results, err := CompileAll(context.Background(), files, Options{Jobs: 2})
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	for _, fr := range results {
		wantOK := filepath.Base(fr.Path) != "cycle.hcl"
		if fr.OK() != wantOK {
			for _, d := range fr.Bag.Items() {
				t.Log(d.Error())
			}
			t.Fatalf("%s: ok = %v, want %v", fr.Path, fr.OK(), wantOK)
		}
		if !wantOK {
			found := false
			for _, d := range fr.Bag.Errors() {
				found = found || d.Code == diag.CycleDetected
			}
			if !found {
				t.Fatalf("%s: errors %v, want a cycle", fr.Path, fr.Bag.Errors())
			}
			continue
		}
		if err := testkit.CheckProgramInvariants(fr.Result.IR); err != nil {
			t.Fatalf("%s: %v", fr.Path, err)
		}
	}
}
