package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"patchc/internal/driver"
	"patchc/internal/ir"
	"patchc/internal/patchfile"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <patch.hcl|patch.patch.mp>",
	Short: "Compile one patch file into a program",
	Long: `Compile type-checks, schedules and lowers a patch file. With --output the
linked program is written as msgpack; --dump prints it as text.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	addDiagnosticFlags(compileCmd)
	compileCmd.Flags().StringP("output", "o", "", "write the encoded program to this file")
	compileCmd.Flags().Bool("dump", false, "print the linked program")
	compileCmd.Flags().String("emit-patch", "", "write the parsed patch as msgpack (*.patch.mp)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	path := args[0]
	flags, err := readDiagnosticFlags(cmd)
	if err != nil {
		return err
	}
	settings, err := resolveCompileSettings(cmd)
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	dump, err := cmd.Flags().GetBool("dump")
	if err != nil {
		return fmt.Errorf("failed to get dump flag: %w", err)
	}
	emitPatch, err := cmd.Flags().GetString("emit-patch")
	if err != nil {
		return fmt.Errorf("failed to get emit-patch flag: %w", err)
	}

	fr := driver.CompileFile(cmd.Context(), path, driverOptions(cmd, settings))
	failed, err := renderDiagnostics(cmd.ErrOrStderr(), []*driver.FileResult{fr}, flags, settings.Quiet)
	if err != nil {
		return err
	}
	if settings.Timings {
		printFileTimings(cmd.ErrOrStderr(), []*driver.FileResult{fr})
	}
	if emitPatch != "" && fr.Patch != nil {
		if err := patchfile.WriteMsgpack(emitPatch, fr.Patch); err != nil {
			return err
		}
	}
	if failed || !fr.OK() {
		exitWith(1)
		return nil
	}

	prog := fr.Result.IR
	if output != "" {
		data, err := ir.Encode(prog)
		if err != nil {
			return fmt.Errorf("encode program: %w", err)
		}
		if err := os.WriteFile(output, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	}
	if dump {
		if err := ir.Dump(cmd.OutOrStdout(), prog); err != nil {
			return err
		}
	}
	if !settings.Quiet && output == "" && !dump {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d slots, %s, output %s)\n",
			path, len(prog.Slots), prog.Time, prog.OutputType())
	}
	return nil
}
