package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
	maxFuzzInput = 16 << 10
)

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.hcl файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".hcl" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

var inlineSeeds = []string{
	"",
	"output = \"k.out\"\n",
	`block "time" {
  type = "InfiniteTimeRoot"
}
block "k" {
  type   = "Constant"
  config = { value = 1 }
}
`,
	`block "time" {
  type = "InfiniteTimeRoot"
}
block "a" {
  type = "Add"
}
wire "loop" {
  from = "a.out"
  to   = "a.a"
}
`,
	`bus "b" {
  type    = "field:number"
  combine = "average"
}
`,
	`block "x" { type = "Nope" }`,
	`wire "w" { from = "a" to = "b" }`,
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
