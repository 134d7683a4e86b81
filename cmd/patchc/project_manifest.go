package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

const manifestName = "patchc.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
	meta   toml.MetaData
}

type projectConfig struct {
	Compile compileConfig `toml:"compile"`
	Paths   pathsConfig   `toml:"paths"`
}

type compileConfig struct {
	Seed           uint64 `toml:"seed"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	Cache          bool   `toml:"cache"`
}

type pathsConfig struct {
	Patches string `toml:"patches"`
}

// findManifest walks up from startDir looking for patchc.toml.
func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, meta, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
		meta:   meta,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, toml.MetaData, error) {
	cfg := projectConfig{Compile: compileConfig{Cache: true}}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, meta, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return projectConfig{}, meta, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Compile.MaxDiagnostics < 0 {
		return projectConfig{}, meta, fmt.Errorf("%s: [compile].max_diagnostics must not be negative", path)
	}
	return cfg, meta, nil
}

// PatchesDir is the absolute patches directory, or "" when unset.
func (m *projectManifest) PatchesDir() string {
	if m == nil || strings.TrimSpace(m.Config.Paths.Patches) == "" {
		return ""
	}
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Paths.Patches))
}

// compileSettings are the effective knobs after merging the manifest with
// command-line flags. Flags win whenever they were set explicitly.
type compileSettings struct {
	Seed           uint64
	MaxDiagnostics int
	Cache          bool
	Timings        bool
	Quiet          bool
	Manifest       *projectManifest
}

func resolveCompileSettings(cmd *cobra.Command) (compileSettings, error) {
	s := compileSettings{Cache: true}
	manifest, _, err := loadProjectManifest(".")
	if err != nil {
		return s, err
	}
	s.Manifest = manifest

	pf := cmd.Root().PersistentFlags()
	if s.MaxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
		return s, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if s.Timings, err = pf.GetBool("timings"); err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.Quiet, err = pf.GetBool("quiet"); err != nil {
		return s, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	if manifest != nil {
		s.Seed = manifest.Config.Compile.Seed
		s.Cache = manifest.Config.Compile.Cache
		if manifest.meta.IsDefined("compile", "max_diagnostics") && !pf.Changed("max-diagnostics") {
			s.MaxDiagnostics = manifest.Config.Compile.MaxDiagnostics
		}
	}

	flags := cmd.Flags()
	if flags.Lookup("seed") != nil && flags.Changed("seed") {
		if s.Seed, err = flags.GetUint64("seed"); err != nil {
			return s, fmt.Errorf("failed to get seed flag: %w", err)
		}
	}
	if flags.Lookup("no-cache") != nil {
		noCache, err := flags.GetBool("no-cache")
		if err != nil {
			return s, fmt.Errorf("failed to get no-cache flag: %w", err)
		}
		if noCache {
			s.Cache = false
		}
	}
	return s, nil
}
