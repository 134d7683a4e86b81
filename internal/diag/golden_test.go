package diag

import "testing"

func TestFormatGoldenDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     NoOutput,
			Message:  "no output",
		},
		{
			Severity: SevError,
			Code:     PortTypeMismatch,
			Message:  "first line\nsecond",
			Location: AtPort("osc", "phase"),
			Notes: []Note{
				{Loc: AtEdge("e1"), Msg: "suggested: PhaseToNumber"},
			},
		},
		{
			Severity: SevError,
			Code:     UnsupportedCombineMode,
			Message:  "mode min",
			Location: AtBus("energy"),
		},
	}

	expected := "note TYP2001 #e1 suggested: PhaseToNumber\n" +
		"warning GRF3006 <patch> no output\n" +
		"error TYP2002 @energy mode min\n" +
		"error TYP2001 osc.phase first line second"

	if got := FormatGoldenDiagnostics(diags, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatGoldenDiagnosticsEmpty(t *testing.T) {
	if got := FormatGoldenDiagnostics(nil, true); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
