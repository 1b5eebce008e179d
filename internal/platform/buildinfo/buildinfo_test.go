package buildinfo

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info("server")

	if info.Name != "personnel-core server" {
		t.Fatalf("unexpected name: %q", info.Name)
	}
	if info.GitVersion != Version {
		t.Fatalf("expected git version %q, got %q", Version, info.GitVersion)
	}
	if info.GoVersion == "" {
		t.Fatalf("expected go version to be set")
	}
	if !strings.Contains(info.String(), "personnel-core server") {
		t.Fatalf("banner does not mention the command:\n%s", info.String())
	}
}
