package version

import (
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	if Version != "dev" {
		t.Errorf("default Version = %q, want %q", Version, "dev")
	}
	if GitCommit != "unknown" {
		t.Errorf("default GitCommit = %q, want %q", GitCommit, "unknown")
	}
}

func TestBanner(t *testing.T) {
	if got := Banner("vtg"); !strings.HasPrefix(got, "vtg dev build") {
		t.Errorf("Banner() = %q", got)
	}

	old := Version
	Version = "v1.2.0"
	defer func() { Version = old }()

	if got, want := Banner("vtg"), "vtg v1.2.0 (unknown) built unknown"; got != want {
		t.Errorf("Banner() = %q, want %q", got, want)
	}
}
