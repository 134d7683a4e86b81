package diagfmt

import (
	"encoding/json"
	"io"

	"patchc/internal/diag"
)

// LocationJSON представляет элемент патча, на который указывает диагностика
type LocationJSON struct {
	Block string `json:"block,omitempty"`
	Port  string `json:"port,omitempty"`
	Edge  string `json:"edge,omitempty"`
	Bus   string `json:"bus,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// FileDiagnostics groups diagnostics of one patch file.
type FileDiagnostics struct {
	File        string           `json:"file"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Files  []FileDiagnostics `json:"files"`
	Errors int               `json:"errors"`
}

func makeLocation(l diag.Location) LocationJSON {
	return LocationJSON{Block: l.Block, Port: l.Port, Edge: l.Edge, Bus: l.Bus}
}

// BuildFileDiagnostics формирует JSON-представление одного Bag без сериализации.
func BuildFileDiagnostics(path string, bag *diag.Bag, opts JSONOpts) FileDiagnostics {
	out := FileDiagnostics{
		File:        formatPath(path, opts.PathMode, opts.BaseDir),
		Diagnostics: []DiagnosticJSON{},
	}
	if bag == nil {
		return out
	}
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}
	for i := range maxItems {
		d := items[i]
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: makeLocation(d.Location),
		}
		includeNotes := opts.IncludeNotes || d.Code == diag.ObsTimings
		if includeNotes && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{Message: note.Msg, Location: makeLocation(note.Loc)}
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON форматирует диагностики нескольких файлов в один JSON документ.
// paths и bags сопоставляются по индексу.
func JSON(w io.Writer, paths []string, bags []*diag.Bag, opts JSONOpts) error {
	output := DiagnosticsOutput{Files: make([]FileDiagnostics, 0, len(paths))}
	for i, path := range paths {
		var bag *diag.Bag
		if i < len(bags) {
			bag = bags[i]
		}
		output.Files = append(output.Files, BuildFileDiagnostics(path, bag, opts))
		if bag != nil {
			output.Errors += len(bag.Errors())
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
