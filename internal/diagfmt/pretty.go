package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"patchc/internal/diag"
)

type palette struct {
	err, warn, info *color.Color
	code, loc, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgBlue, color.Bold),
		code: color.New(color.Bold),
		loc:  color.New(color.FgCyan),
		note: color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.loc, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
//
//	<path>: <SEV> <CODE>: <Message>
//	  --> <location>
//	  = note: <location>: <msg>
//
// Цвет включается опцией.
func Pretty(w io.Writer, path string, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	shown := formatPath(path, opts.PathMode, opts.BaseDir)
	for _, d := range bag.Items() {
		code := d.Code.ID()
		if opts.ShowTitle {
			code += " (" + d.Code.Title() + ")"
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			shown,
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(code),
			d.Message,
		)
		fmt.Fprintf(w, "  --> %s\n", p.loc.Sprint(d.Location.String()))
		// таймингам заметки нужны всегда, иначе диагностика пустая
		if !opts.ShowNotes && d.Code != diag.ObsTimings {
			continue
		}
		for _, n := range d.Notes {
			if n.Loc.IsZero() {
				fmt.Fprintf(w, "  = %s %s\n", p.note.Sprint("note:"), n.Msg)
				continue
			}
			fmt.Fprintf(w, "  = %s %s: %s\n", p.note.Sprint("note:"), p.loc.Sprint(n.Loc.String()), n.Msg)
		}
	}
}

// Summary печатает итоговую строку вида "2 errors, 1 warning".
func Summary(w io.Writer, bag *diag.Bag, useColor bool) {
	p := newPalette(useColor)
	errs, warns := 0, 0
	if bag != nil {
		errs, warns = len(bag.Errors()), len(bag.Warnings())
	}
	fmt.Fprintf(w, "%s, %s\n",
		p.err.Sprint(plural(errs, "error")),
		p.warn.Sprint(plural(warns, "warning")),
	)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
