// Package patchfile reads patches from disk: HCL source (.hcl) and the
// msgpack encoding of a CompilerPatch (.patch.mp).
package patchfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"patchc/internal/patch"
)

const (
	ExtHCL     = ".hcl"
	ExtMsgpack = ".patch.mp"
)

// ParseError is a patch file that could not be decoded. Diags is set for
// HCL sources.
type ParseError struct {
	Path  string
	Diags hcl.Diagnostics
	Err   error
}

func (e *ParseError) Error() string {
	if len(e.Diags) > 0 {
		return e.Diags.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Supported reports whether path has a patch extension.
func Supported(path string) bool {
	return strings.HasSuffix(path, ExtHCL) || strings.HasSuffix(path, ExtMsgpack)
}

// Load reads and decodes one patch file. Read failures are returned as is;
// decode failures as *ParseError.
func Load(path string) (*patch.CompilerPatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse decodes data, choosing the format by the extension of path.
func Parse(path string, data []byte) (*patch.CompilerPatch, error) {
	switch {
	case strings.HasSuffix(path, ExtMsgpack):
		p, err := patch.Decode(data)
		if err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		return p, nil
	case strings.HasSuffix(path, ExtHCL):
		p, diags := ParseHCL(data, path)
		if diags.HasErrors() {
			return nil, &ParseError{Path: path, Diags: diags, Err: errors.New("invalid HCL patch")}
		}
		return p, nil
	}
	return nil, fmt.Errorf("%s: unsupported patch file (want %s or %s)", path, ExtHCL, ExtMsgpack)
}

// WriteMsgpack stores p in the msgpack patch format.
func WriteMsgpack(path string, p *patch.CompilerPatch) error {
	data, err := patch.Encode(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Find expands paths into patch files. Directories are walked; missing
// paths are skipped. The result is sorted and free of duplicates.
func Find(paths ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			if Supported(root) {
				add(filepath.Clean(root))
			}
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && Supported(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(out)
	return out, nil
}
