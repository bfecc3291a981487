package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"devlaunch/internal/modules/plugin/domain"
	"devlaunch/internal/modules/plugin/dto"
	pluginout "devlaunch/internal/modules/plugin/port/out"
)

type PluginService struct {
	store pluginout.ManifestStore
	host  pluginout.Host
}

func NewPluginService(store pluginout.ManifestStore, host pluginout.Host) *PluginService {
	return &PluginService{store: store, host: host}
}

func (s *PluginService) List(ctx context.Context) ([]dto.PluginInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PluginInfo, 0, len(manifests))
	for _, m := range manifests {
		caps := make([]string, 0, len(m.Capabilities))
		for _, c := range m.Capabilities {
			caps = append(caps, string(c))
		}
		out = append(out, dto.PluginInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary, Capabilities: caps})
	}
	return out, nil
}

func (s *PluginService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		binaryOK := fileExists(m.Binary)
		result.BinaryReachable = binaryOK
		checksumOK := false
		if binaryOK {
			checksumOK = checksumMatches(m.Binary, m.SHA256) == nil
		}
		result.ChecksumValid = checksumOK
		if binaryOK && checksumOK && m.Enabled && s.host != nil {
			if err := s.host.CheckLifecycle(ctx, m); err != nil {
				result.Error = err.Error()
			} else {
				result.LifecycleOK = true
			}
		}
		if !binaryOK {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		}
		if binaryOK && !checksumOK {
			result.Error = "checksum mismatch"
		}
		results = append(results, result)
	}
	return results, nil
}

// ListActions asks one plugin for its action descriptors. Descriptors that
// fail validation reject the whole answer so a broken plugin never
// contributes half a table.
func (s *PluginService) ListActions(ctx context.Context, pluginName string) ([]dto.ActionInfo, error) {
	manifest, err := s.getRunnableManifest(ctx, pluginName, domain.CapabilityActions)
	if err != nil {
		return nil, err
	}
	actions, err := s.host.ListActions(ctx, manifest)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := make([]dto.ActionInfo, 0, len(actions))
	for _, action := range actions {
		if err := action.Validate(); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", pluginName, err)
		}
		if _, ok := seen[action.ID]; ok {
			return nil, fmt.Errorf("plugin %s: duplicate action id %s", pluginName, action.ID)
		}
		seen[action.ID] = struct{}{}
		out = append(out, toActionInfo(manifest.Name, action))
	}
	return out, nil
}

func toActionInfo(pluginName string, action domain.ActionDescriptor) dto.ActionInfo {
	info := dto.ActionInfo{
		PluginName:  pluginName,
		ID:          action.ID,
		Title:       action.Title,
		Category:    action.Category,
		Description: action.Description,
		Argv:        append([]string(nil), action.Argv...),
		Dir:         action.Dir,
		Requires:    append([]string(nil), action.Requires...),
		Background:  action.Background,
		Destructive: action.Destructive,
	}
	if len(action.Env) > 0 {
		info.Env = make(map[string]string, len(action.Env))
		for k, v := range action.Env {
			info.Env[k] = v
		}
	}
	if p := action.Parameter; p != nil {
		info.Parameter = &dto.ParameterInfo{
			Label:              p.Label,
			Choices:            append([]string(nil), p.Choices...),
			Default:            p.Default,
			DestructiveChoices: append([]string(nil), p.DestructiveChoices...),
		}
	}
	return info
}

func (s *PluginService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seenNames := map[string]struct{}{}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seenNames[manifest.Name]; ok {
			return nil, fmt.Errorf("duplicate plugin name: %s", manifest.Name)
		}
		seenNames[manifest.Name] = struct{}{}
	}
	return manifests, nil
}

func (s *PluginService) getRunnableManifest(ctx context.Context, pluginName string, requiredCapability domain.Capability) (domain.Manifest, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return domain.Manifest{}, err
	}
	manifest := domain.Manifest{}
	found := false
	for _, item := range manifests {
		if item.Name == pluginName {
			manifest = item
			found = true
			break
		}
	}
	if !found {
		return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrPluginNotFound, pluginName)
	}
	if !manifest.Enabled {
		return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrPluginDisabled, pluginName)
	}
	if requiredCapability != "" && !manifest.HasCapability(requiredCapability) {
		return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrCapabilityMissing, requiredCapability)
	}
	if err := checksumMatches(manifest.Binary, manifest.SHA256); err != nil {
		return domain.Manifest{}, err
	}
	if s.host == nil {
		return domain.Manifest{}, fmt.Errorf("plugin host is not configured")
	}
	if err := s.host.CheckLifecycle(ctx, manifest); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return domain.Manifest{}, fmt.Errorf("%w: %s", domain.ErrPluginTimeout, pluginName)
		}
		return domain.Manifest{}, err
	}
	return manifest, nil
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read plugin binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	actual := hex.EncodeToString(hash[:])
	if actual != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
