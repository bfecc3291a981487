package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pluginout "devlaunch/internal/modules/plugin/adapter/out"
)

func writeManifests(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugins.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write plugins.json: %v", err)
	}
	return path
}

func TestFileManifestStoreLoadMissingReturnsEmpty(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	store := pluginout.NewFileManifestStore(filepath.Join(root, "plugins.json"), root)
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 0 {
		t.Fatalf("expected empty manifests, got %d", len(manifests))
	}
}

func TestFileManifestStoreResolvesRelativeBinary(t *testing.T) {
	t.Parallel()
	path := writeManifests(t, `[
  {
    "name": "reference",
    "version": "1.0.0",
    "binary": "bin/reference-plugin",
    "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
    "enabled": true,
    "capabilities": ["actions"]
  }
]`)
	root := t.TempDir()
	store := pluginout.NewFileManifestStore(path, root)
	manifests, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 1 {
		t.Fatalf("expected one manifest, got %d", len(manifests))
	}
	want := filepath.Join(root, "bin", "reference-plugin")
	if manifests[0].Binary != want {
		t.Fatalf("expected binary %s, got %s", want, manifests[0].Binary)
	}
}

func TestFileManifestStoreRejectsUnknownField(t *testing.T) {
	t.Parallel()
	path := writeManifests(t, `[
  {
    "name": "reference",
    "version": "1.0.0",
    "binary": "/tmp/reference-plugin",
    "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
    "enabled": true,
    "capabilities": ["actions"],
    "unknown_field": true
  }
]`)
	store := pluginout.NewFileManifestStore(path, t.TempDir())
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestFileManifestStoreEmptyFile(t *testing.T) {
	t.Parallel()
	path := writeManifests(t, "\n")
	manifests, err := pluginout.NewFileManifestStore(path, t.TempDir()).Load(context.Background())
	if err != nil {
		t.Fatalf("load manifests: %v", err)
	}
	if len(manifests) != 0 {
		t.Fatalf("expected no manifests, got %d", len(manifests))
	}
}
