package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"patchc/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	d := diag.New(diag.SevError, diag.CycleDetected, diag.AtBlock("a"), "cycle through a, b")
	d.Notes = append(d.Notes, diag.Note{Loc: diag.AtBlock("b"), Msg: "b reads a"})
	bag.Add(d)
	bag.Add(diag.New(diag.SevWarning, diag.NoOutput, diag.Location{}, "patch has no output"))
	return bag
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	bag := sampleBag()
	tests := []struct {
		name     string
		mode     PathMode
		base     string
		contains string
	}{
		{name: "As given", mode: PathModeAuto, contains: "/home/user/patches/osc.hcl:"},
		{name: "Relative path", mode: PathModeRelative, base: "/home/user", contains: "patches/osc.hcl:"},
		{name: "Basename only", mode: PathModeBasename, contains: "osc.hcl:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, "/home/user/patches/osc.hcl", bag, PrettyOpts{PathMode: tt.mode, BaseDir: tt.base})
			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, output)
			}
			if !strings.Contains(output, "ERROR") || !strings.Contains(output, "GRF3001") {
				t.Errorf("Expected severity and code in output, got:\n%s", output)
			}
		})
	}
}

func TestPrettyNotesAndColor(t *testing.T) {
	bag := sampleBag()

	var plain bytes.Buffer
	Pretty(&plain, "p.hcl", bag, PrettyOpts{})
	if strings.Contains(plain.String(), "note:") {
		t.Fatalf("notes printed without ShowNotes:\n%s", plain.String())
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("escape codes with colour disabled:\n%s", plain.String())
	}

	var full bytes.Buffer
	Pretty(&full, "p.hcl", bag, PrettyOpts{ShowNotes: true, ShowTitle: true})
	out := full.String()
	for _, want := range []string{
		"p.hcl: ERROR GRF3001 (Combinational cycle detected): cycle through a, b",
		"  --> block a",
		"  = note: block b: b reads a",
		"p.hcl: WARNING GRF3006",
		"  --> <patch>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	var colored bytes.Buffer
	Pretty(&colored, "p.hcl", bag, PrettyOpts{Color: true})
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("expected escape codes with colour enabled:\n%s", colored.String())
	}
}

func TestPrettyAlwaysShowsTimingNotes(t *testing.T) {
	bag := diag.NewBag(0)
	d := diag.New(diag.SevInfo, diag.ObsTimings, diag.Location{}, "timings")
	d.Notes = []diag.Note{{Msg: `{"kind":"compile"}`}}
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, "p.hcl", bag, PrettyOpts{})
	if !strings.Contains(buf.String(), `= note: {"kind":"compile"}`) {
		t.Fatalf("timing note missing:\n%s", buf.String())
	}
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	if err := Short(&buf, "dir/p.hcl", sampleBag(), ShortOpts{PathMode: PathModeBasename, IncludeNotes: true}); err != nil {
		t.Fatalf("Short: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "p.hcl: ") {
			t.Errorf("line %q lacks path prefix", line)
		}
	}
	if !strings.Contains(buf.String(), "p.hcl: error GRF3001 a cycle through a, b") {
		t.Errorf("unexpected short output:\n%s", buf.String())
	}
}

func TestShortEmptyBag(t *testing.T) {
	var buf bytes.Buffer
	if err := Short(&buf, "p.hcl", diag.NewBag(0), ShortOpts{}); err != nil {
		t.Fatalf("Short: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("got %q, want empty output", buf.String())
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, sampleBag(), false)
	if got, want := buf.String(), "1 error, 1 warning\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
