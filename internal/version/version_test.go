package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestBannerIncludesOverrides(t *testing.T) {
	origNoColor := color.NoColor
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		color.NoColor = origNoColor
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})

	color.NoColor = true
	Version = "1.2.3"
	GitCommit = "abc123"
	BuildDate = "2024-01-15"

	got := Banner()
	want := "patchc 1.2.3 (abc123) built 2024-01-15"
	if got != want {
		t.Fatalf("Banner() = %q, want %q", got, want)
	}
}

func TestBannerOmitsEmptyFields(t *testing.T) {
	origNoColor := color.NoColor
	origCommit, origDate := GitCommit, BuildDate
	t.Cleanup(func() {
		color.NoColor = origNoColor
		GitCommit, BuildDate = origCommit, origDate
	})

	color.NoColor = true
	GitCommit, BuildDate = "", ""
	if got := Banner(); strings.Contains(got, "(") || strings.Contains(got, "built") {
		t.Fatalf("unexpected banner %q", got)
	}
}
