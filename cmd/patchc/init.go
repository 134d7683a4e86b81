package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a new patch project",
	Long: `Initialize a patch project by creating a manifest (patchc.toml) and an example
patch (patches/pulse.hcl). If [path] is omitted, initializes the current
directory. A non-existing path is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// runInit refuses to overwrite an existing patchc.toml; an existing example
// patch is left as is.
func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	created, err := initProject(target)
	if err != nil {
		return err
	}
	printInitSummary(cmd.OutOrStdout(), target, created)
	return nil
}

func initProject(target string) ([]string, error) {
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, manifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return nil, fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(defaultManifest), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	created := []string{manifestName}

	patchDir := filepath.Join(target, "patches")
	if err := os.MkdirAll(patchDir, 0o755); err != nil {
		return created, fmt.Errorf("failed to create patches directory: %w", err)
	}
	examplePath := filepath.Join(patchDir, "pulse.hcl")
	if _, err := os.Stat(examplePath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(examplePath, []byte(defaultPatch), 0o600); err != nil {
			return created, fmt.Errorf("failed to write example patch: %w", err)
		}
		created = append(created, filepath.Join("patches", "pulse.hcl"))
	}
	return created, nil
}

func printInitSummary(out io.Writer, target string, created []string) {
	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err := filepath.Rel(wd, target); err == nil {
			rel = r
		}
	}
	fmt.Fprintf(out, "Initialized patch project in %s\n", rel)
	for _, f := range created {
		fmt.Fprintf(out, "  - %s\n", f)
	}
}

const defaultManifest = `# patchc project manifest
[compile]
seed = 0
max_diagnostics = 100
cache = true

[paths]
patches = "patches"
`

// defaultPatch draws a 4x4 grid whose circles pulse with a one second cycle.
const defaultPatch = `output = "draw.out"

block "time" {
  type   = "CycleTimeRoot"
  config = { periodMs = 1000 }
}

block "osc" {
  type   = "Oscillator"
  config = { shape = "sine" }
}

block "grid" {
  type   = "GridDomain"
  config = { rows = 4, cols = 4, spacing = 40 }
}

block "draw" {
  type = "RenderCircles"
}

bus "pulse" {
  type    = "signal:number"
  combine = "sum"
}

wire "phase" {
  from = "time.phase"
  to   = "osc.phase"
}

wire "points" {
  from = "grid.positions"
  to   = "draw.positions"
}

publish "osc_pulse" {
  from = "osc.out"
  bus  = "pulse"

  lens "scale" {
    factor = 4
  }
  lens "offset" {
    amount = 8
  }
}

listen "radius" {
  bus = "pulse"
  to  = "draw.radius"
}
`
