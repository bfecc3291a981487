package usecase_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"devlaunch/internal/modules/plugin/domain"
	"devlaunch/internal/modules/plugin/service"
	"devlaunch/internal/modules/plugin/usecase"
)

type fakeManifestStore struct {
	manifests []domain.Manifest
}

func (s fakeManifestStore) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type fakeHost struct{}

func (fakeHost) CheckLifecycle(context.Context, domain.Manifest) error { return nil }
func (fakeHost) GetMetadata(context.Context, domain.Manifest) (domain.Metadata, error) {
	return domain.Metadata{Name: "p1", Version: "1"}, nil
}
func (fakeHost) ListActions(context.Context, domain.Manifest) ([]domain.ActionDescriptor, error) {
	return []domain.ActionDescriptor{
		{ID: "lint", Title: "Lint", Argv: []string{"golangci-lint", "run"}},
		{ID: "serve", Argv: []string{"python3", "-m", "http.server"}, Background: true},
	}, nil
}

func TestUsecaseListDoctorAndActions(t *testing.T) {
	t.Parallel()
	manifest := manifestWithBinary(t)
	uc := usecase.NewInteractor(service.NewPluginService(fakeManifestStore{manifests: []domain.Manifest{manifest}}, fakeHost{}))

	list, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "p1" {
		t.Fatalf("unexpected list: %+v", list)
	}

	docs, err := uc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(docs) != 1 || !docs[0].ChecksumValid || !docs[0].LifecycleOK {
		t.Fatalf("unexpected doctor result: %+v", docs)
	}

	actions, err := uc.ListActions(context.Background(), "p1")
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("unexpected action count: %d", len(actions))
	}
	if actions[0].PluginName != "p1" || actions[1].ID != "serve" || !actions[1].Background {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func manifestWithBinary(t *testing.T) domain.Manifest {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "p1-plugin")
	payload := []byte("plugin-binary")
	if err := os.WriteFile(binPath, payload, 0o755); err != nil {
		t.Fatalf("write plugin binary: %v", err)
	}
	hash := sha256.Sum256(payload)
	return domain.Manifest{
		Name:         "p1",
		Version:      "1.0.0",
		Binary:       binPath,
		SHA256:       hex.EncodeToString(hash[:]),
		Enabled:      true,
		Capabilities: []domain.Capability{domain.CapabilityActions},
	}
}
