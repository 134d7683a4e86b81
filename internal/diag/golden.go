package diag

import (
	"fmt"
	"sort"
	"strings"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Where    string
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden files and CLI short output. Entries are
// sorted by location, severity, code and message; notes follow as "note" lines
// when includeNotes is set.
func FormatGoldenDiagnostics(diags []Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendDiagnostic(rendered, &diags[i], includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Where != dj.Where {
			return di.Where < dj.Where
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s %s", d.Severity, d.Code, d.Where, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []goldenDiagnostic, d *Diagnostic, includeNotes bool) []goldenDiagnostic {
	out = append(out, goldenDiagnostic{
		Severity: SeverityLabel(d.Severity),
		Code:     d.Code.ID(),
		Where:    compactLocation(d.Location),
		Message:  sanitizeMessage(d.Message),
	})
	if includeNotes {
		for _, note := range d.Notes {
			out = append(out, goldenDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Where:    compactLocation(note.Loc),
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}
	return out
}

// compactLocation renders a location without spaces: block.port, @bus, #edge.
func compactLocation(l Location) string {
	if l.IsZero() {
		return "<patch>"
	}
	var b strings.Builder
	if l.Block != "" {
		b.WriteString(l.Block)
		if l.Port != "" {
			b.WriteByte('.')
			b.WriteString(l.Port)
		}
	}
	if l.Bus != "" {
		b.WriteByte('@')
		b.WriteString(l.Bus)
	}
	if l.Edge != "" {
		b.WriteByte('#')
		b.WriteString(l.Edge)
	}
	return b.String()
}

// SeverityLabel is the lower-case severity name used by short formats.
func SeverityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
