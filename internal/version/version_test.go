package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
	// GitCommit и BuildDate необязательны
	_ = GitCommit
	_ = BuildDate
}

func TestColoredKeepsText(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	for _, v := range []string{"0.1.0-dev", "1.2.3", "2.0.0-rc.1", "7"} {
		Version = v
		if got := Colored(); got != v {
			t.Errorf("Colored() = %q, want %q", got, v)
		}
	}
	Version = "0.1.0-dev"
}

func TestInfo(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() {
		color.NoColor = orig
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	}()

	Version = "1.2.3"
	GitCommit = "1234567890abcdef1234567890abcdef12345678"
	BuildDate = "2024-01-15T10:30:00Z"
	if got, want := Info(), "lantern 1.2.3 (1234567890ab) built 2024-01-15T10:30:00Z"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	GitCommit, BuildDate = "", ""
	if got := Info(); strings.Contains(got, "(") || strings.Contains(got, "built") {
		t.Errorf("Info() without build data = %q", got)
	}
}
