package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"patchc/internal/driver"
	"patchc/internal/patchfile"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [paths...]",
	Short: "Compile every patch under the given paths",
	Long: `Check compiles every *.hcl and *.patch.mp file found under the given paths in
parallel and reports their diagnostics. Without paths the [paths].patches
directory of patchc.toml is used.`,
	RunE: runCheck,
}

func init() {
	addDiagnosticFlags(checkCmd)
	checkCmd.Flags().Int("jobs", 0, "max parallel compiles (0=auto)")
	checkCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	checkCmd.Flags().Bool("clear-cache", false, "drop the compiled program cache first")
}

func runCheck(cmd *cobra.Command, args []string) error {
	flags, err := readDiagnosticFlags(cmd)
	if err != nil {
		return err
	}
	settings, err := resolveCompileSettings(cmd)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiStr)
	if err != nil {
		return err
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return fmt.Errorf("failed to get clear-cache flag: %w", err)
	}

	roots := args
	if len(roots) == 0 {
		dir := settings.Manifest.PatchesDir()
		if dir == "" {
			return errors.New("no paths given and no [paths].patches in patchc.toml")
		}
		roots = []string{dir}
	}
	files, err := patchfile.Find(roots...)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		if !settings.Quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "no patch files found")
		}
		return nil
	}

	opts := driverOptions(cmd, settings)
	opts.Jobs = jobs
	if clearCache && opts.Cache != nil {
		if err := opts.Cache.DropAll(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}

	var results []*driver.FileResult
	if shouldUseTUI(mode, len(files)) && flags.format == formatPretty {
		results, err = runCheckWithUI(cmd.Context(), "patchc check", files, opts)
	} else {
		results, err = driver.CompileAll(cmd.Context(), files, opts)
	}
	if err != nil {
		return err
	}

	failed, err := renderDiagnostics(cmd.OutOrStdout(), results, flags, settings.Quiet)
	if err != nil {
		return err
	}
	if settings.Timings {
		printFileTimings(cmd.ErrOrStderr(), results)
	}
	if !settings.Quiet && flags.format == formatPretty {
		ok := 0
		for _, fr := range results {
			if fr.OK() {
				ok++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d/%d patches compiled\n", ok, len(results))
	}
	if failed {
		exitWith(1)
	}
	return nil
}
