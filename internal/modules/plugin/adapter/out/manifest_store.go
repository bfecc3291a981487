package out

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"devlaunch/internal/modules/plugin/domain"
	pluginout "devlaunch/internal/modules/plugin/port/out"
)

type FileManifestStore struct {
	path string
	root string
}

// NewFileManifestStore reads manifests from path. Relative binary paths are
// resolved against root, the project directory.
func NewFileManifestStore(path, root string) pluginout.ManifestStore {
	return &FileManifestStore{path: path, root: root}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("read plugin manifests: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []domain.Manifest{}, nil
	}
	var manifests []domain.Manifest
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifests); err != nil {
		return nil, fmt.Errorf("decode plugin manifests %s: %w", filepath.Base(s.path), err)
	}
	for i := range manifests {
		if manifests[i].Binary != "" && !filepath.IsAbs(manifests[i].Binary) {
			manifests[i].Binary = filepath.Clean(filepath.Join(s.root, manifests[i].Binary))
		}
	}
	return manifests, nil
}
