package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"patchc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "patchc",
	Short:         "Patch compiler for node-graph animation programs",
	Long:          `patchc type-checks, schedules and lowers patch files into executable programs`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyColorFlag(cmd); err != nil {
			return err
		}
		if err := startProfiling(cmd); err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		runCleanup()
	},
}

// main registers subcommands and persistent flags, then executes the root
// command. A returned error exits with status 1; commands that found
// diagnostics exit through exitWith.
func main() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(adaptersCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.String("trace", "", "trace output file (\"-\" for stderr, *.ndjson for NDJSON)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	pf.String("otlp-endpoint", "", "export trace spans over OTLP/gRPC to host:port")
	pf.Bool("otlp-insecure", true, "disable TLS for the OTLP exporter")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")

	if err := rootCmd.Execute(); err != nil {
		runCleanup()
		os.Exit(1)
	}
}

// exitWith flushes tracing and profiles before leaving with code.
func exitWith(code int) {
	runCleanup()
	os.Exit(code)
}

func runCleanup() {
	runTraceCleanup()
	stopProfiling()
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
