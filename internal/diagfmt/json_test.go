package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"patchc/internal/diag"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	var buf bytes.Buffer
	err := JSON(&buf, []string{"a.hcl", "b.hcl"}, []*diag.Bag{sampleBag(), diag.NewBag(0)}, JSONOpts{IncludeNotes: true})
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Errors != 1 {
		t.Errorf("Expected errors=1, got %d", output.Errors)
	}
	if len(output.Files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(output.Files))
	}
	if output.Files[1].Count != 0 || len(output.Files[1].Diagnostics) != 0 {
		t.Errorf("Expected empty second file, got %+v", output.Files[1])
	}

	want := DiagnosticJSON{
		Severity: "ERROR",
		Code:     "GRF3001",
		Title:    "Combinational cycle detected",
		Message:  "cycle through a, b",
		Location: LocationJSON{Block: "a"},
		Notes:    []NoteJSON{{Message: "b reads a", Location: LocationJSON{Block: "b"}}},
	}
	if diff := cmp.Diff(want, output.Files[0].Diagnostics[0]); diff != "" {
		t.Fatalf("diagnostic mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONMaxAndNotes(t *testing.T) {
	got := BuildFileDiagnostics("a.hcl", sampleBag(), JSONOpts{Max: 1})
	if got.Count != 1 {
		t.Fatalf("got count %d, want 1", got.Count)
	}
	if len(got.Diagnostics[0].Notes) != 0 {
		t.Fatalf("notes included without IncludeNotes: %+v", got.Diagnostics[0].Notes)
	}

	bag := diag.NewBag(0)
	d := diag.New(diag.SevInfo, diag.ObsTimings, diag.Location{}, "timings")
	d.Notes = []diag.Note{{Msg: "{}"}}
	bag.Add(d)
	got = BuildFileDiagnostics("a.hcl", bag, JSONOpts{})
	if len(got.Diagnostics[0].Notes) != 1 {
		t.Fatalf("timing notes must always be included, got %+v", got.Diagnostics[0])
	}
}

func TestJSONNilBag(t *testing.T) {
	got := BuildFileDiagnostics("", nil, JSONOpts{})
	if got.File != "<patch>" || got.Diagnostics == nil {
		t.Fatalf("unexpected output %+v", got)
	}
}
