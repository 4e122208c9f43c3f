package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origV, origC, origD := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = origV, origC, origD })
}

func TestLine(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		want    string
	}{
		{"plain", "1.2.3", "", "", "dnt 1.2.3"},
		{"commit is shortened", "1.2.3", "abc123def4567890", "", "dnt 1.2.3 (abc123def456)"},
		{"commit and date", "1.2.3", "abc123", "2024-01-15T10:30:00Z", "dnt 1.2.3 (abc123, 2024-01-15T10:30:00Z)"},
		{"date only", "0.1.0-dev", "", "2024-01-15", "dnt 0.1.0-dev (2024-01-15)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVersion(t, tt.version, tt.commit, tt.date)
			if got := Line(false); got != tt.want {
				t.Fatalf("Line = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColoredKeepsSuffix(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	withVersion(t, "0.1.0-dev", "", "")
	if got := Colored(); got != "0.1.0-dev" {
		t.Fatalf("Colored = %q", got)
	}
	withVersion(t, "nightly", "", "")
	if got := Colored(); !strings.HasPrefix(got, "nightly") {
		t.Fatalf("Colored = %q", got)
	}
}
