package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"patchc/internal/diag"
	"patchc/internal/diagfmt"
	"patchc/internal/driver"
)

type outputFormat string

const (
	formatPretty outputFormat = "pretty"
	formatShort  outputFormat = "short"
	formatJSON   outputFormat = "json"
)

func readOutputFormat(value string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case formatPretty, formatShort, formatJSON:
		return f, nil
	case "":
		return formatPretty, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected pretty|short|json)", value)
	}
}

func addDiagnosticFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "pretty", "diagnostic format (pretty|short|json)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	cmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	cmd.Flags().Uint64("seed", 0, "compile seed (overrides patchc.toml)")
	cmd.Flags().Bool("no-cache", false, "bypass the compiled program cache")
}

type diagnosticFlags struct {
	format           outputFormat
	withNotes        bool
	pathMode         diagfmt.PathMode
	warningsAsErrors bool
}

func readDiagnosticFlags(cmd *cobra.Command) (diagnosticFlags, error) {
	var out diagnosticFlags
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return out, fmt.Errorf("failed to get format flag: %w", err)
	}
	if out.format, err = readOutputFormat(formatStr); err != nil {
		return out, err
	}
	if out.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return out, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return out, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if fullPath {
		out.pathMode = diagfmt.PathModeAbsolute
	}
	if out.warningsAsErrors, err = cmd.Flags().GetBool("warnings-as-errors"); err != nil {
		return out, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	return out, nil
}

func driverOptions(cmd *cobra.Command, s compileSettings) driver.Options {
	opts := driver.Options{
		Seed:           s.Seed,
		MaxDiagnostics: s.MaxDiagnostics,
		Timings:        s.Timings,
	}
	if s.Cache {
		cache, err := driver.OpenDiskCache("patchc")
		if err != nil {
			if !s.Quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: compile cache disabled: %v\n", err)
			}
		} else {
			opts.Cache = cache
		}
	}
	return opts
}

// renderDiagnostics prints every file's diagnostics and reports whether any
// file failed under the given flags.
func renderDiagnostics(out io.Writer, results []*driver.FileResult, flags diagnosticFlags, quiet bool) (failed bool, err error) {
	for _, fr := range results {
		if fr.Bag.HasErrors() || (flags.warningsAsErrors && fr.Bag.HasWarnings()) {
			failed = true
		}
		fr.Bag.Sort()
	}

	switch flags.format {
	case formatJSON:
		paths := make([]string, len(results))
		bags := make([]*diag.Bag, len(results))
		for i, fr := range results {
			paths[i], bags[i] = fr.Path, fr.Bag
		}
		err = diagfmt.JSON(out, paths, bags, diagfmt.JSONOpts{PathMode: flags.pathMode, IncludeNotes: flags.withNotes})
	case formatShort:
		for _, fr := range results {
			if err = diagfmt.Short(out, fr.Path, fr.Bag, diagfmt.ShortOpts{PathMode: flags.pathMode, IncludeNotes: flags.withNotes}); err != nil {
				break
			}
		}
	default:
		total := diag.NewBag(0)
		for _, fr := range results {
			diagfmt.Pretty(out, fr.Path, fr.Bag, diagfmt.PrettyOpts{
				Color:     useColor,
				PathMode:  flags.pathMode,
				ShowNotes: flags.withNotes,
			})
			total.Merge(fr.Bag)
		}
		if !quiet && total.Len() > 0 {
			diagfmt.Summary(out, total, useColor)
		}
	}
	return failed, err
}
