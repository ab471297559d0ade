package version

import (
	"strings"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("expected version %q, got %q", Version, info.Version)
	}
	if Version == "dev" && info.IsRelease {
		t.Error("expected dev build not to be a release")
	}
}

func TestShortContainsVersion(t *testing.T) {
	if got := Short(); !strings.HasPrefix(got, Version) {
		t.Errorf("expected short version to start with %q, got %q", Version, got)
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("a1b2c3d4e5f6"); got != "a1b2c3d" {
		t.Errorf("expected truncated commit, got %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("expected short revision unchanged, got %q", got)
	}
}
