package version

import "github.com/fatih/color"

// Version information for the patchc CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// IRFormat is bumped whenever the encoded program layout changes. Cached
// programs with a different format are ignored.
const IRFormat uint32 = 1

var (
	nameColor   = color.New(color.FgCyan, color.Bold)
	numberColor = color.New(color.FgGreen, color.Bold)
	dimColor    = color.New(color.Faint)
)

// Banner renders the one-line version banner. Colours follow color.NoColor.
func Banner() string {
	s := nameColor.Sprint("patchc") + " " + numberColor.Sprint(Version)
	if GitCommit != "" {
		s += dimColor.Sprint(" (" + GitCommit + ")")
	}
	if BuildDate != "" {
		s += dimColor.Sprint(" built " + BuildDate)
	}
	return s
}
