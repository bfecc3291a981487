package toolpath_test

import (
	"runtime"
	"testing"

	"devlaunch/internal/platform/toolpath"
)

func TestAlternatives(t *testing.T) {
	t.Parallel()
	got := toolpath.Alternatives(" docker-compose | docker ||")
	if len(got) != 2 || got[0] != "docker-compose" || got[1] != "docker" {
		t.Fatalf("unexpected alternatives: %v", got)
	}
}

func TestLookupFallsBackToLaterAlternative(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	name, path, ok := toolpath.Lookup("devlaunch-definitely-missing|sh")
	if !ok {
		t.Fatalf("expected sh to resolve")
	}
	if name != "sh" || path == "" {
		t.Fatalf("unexpected lookup result: %s %s", name, path)
	}
	if _, _, ok := toolpath.Lookup("devlaunch-definitely-missing"); ok {
		t.Fatalf("expected missing tool")
	}
}
