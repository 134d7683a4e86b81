package diagfmt

// PathMode specifies how patch file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints the path as given.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	BaseDir   string // для PathModeRelative
	ShowNotes bool
	ShowTitle bool // печатать Code.Title() рядом с кодом
}

// ShortOpts configures the one-line-per-diagnostic format.
type ShortOpts struct {
	PathMode     PathMode
	BaseDir      string
	IncludeNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	BaseDir      string
	Max          int // обрезка вывода, не Bag
	IncludeNotes bool
}
