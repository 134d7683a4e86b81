package diagfmt

import (
	"io"
	"strings"

	"patchc/internal/diag"
)

// Short prints one line per diagnostic prefixed with the patch path, in the
// stable order used by golden files.
func Short(w io.Writer, path string, bag *diag.Bag, opts ShortOpts) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	body := diag.FormatGoldenDiagnostics(bag.Items(), opts.IncludeNotes)
	prefix := formatPath(path, opts.PathMode, opts.BaseDir) + ": "
	var b strings.Builder
	for line := range strings.SplitSeq(body, "\n") {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
