package domain

import (
	"errors"
	"fmt"
	"regexp"
)

type Capability string

const (
	CapabilityActions Capability = "actions"
)

var (
	ErrPluginDisabled    = errors.New("plugin is disabled")
	ErrPluginNotFound    = errors.New("plugin not found")
	ErrChecksumMismatch  = errors.New("plugin checksum mismatch")
	ErrCapabilityMissing = errors.New("plugin capability missing")
	ErrPluginTimeout     = errors.New("plugin timeout")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

type Manifest struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Binary       string       `json:"binary"`
	SHA256       string       `json:"sha256"`
	Enabled      bool         `json:"enabled"`
	Capabilities []Capability `json:"capabilities"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("plugin binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("plugin sha256 must be lowercase 64-char hex")
	}
	if len(m.Capabilities) == 0 {
		return fmt.Errorf("plugin capabilities are required")
	}
	seen := map[Capability]struct{}{}
	for _, capability := range m.Capabilities {
		if err := capability.Validate(); err != nil {
			return err
		}
		if _, ok := seen[capability]; ok {
			return fmt.Errorf("duplicate capability: %s", capability)
		}
		seen[capability] = struct{}{}
	}
	return nil
}

func (c Capability) Validate() error {
	switch c {
	case CapabilityActions:
		return nil
	default:
		return fmt.Errorf("unknown capability: %s", c)
	}
}

func (m Manifest) HasCapability(capability Capability) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

type Metadata struct {
	Name         string
	Version      string
	Capabilities []Capability
}

type ParameterDescriptor struct {
	Label              string
	Choices            []string
	Default            string
	DestructiveChoices []string
}

// ActionDescriptor is an action contributed by a plugin. Dir is relative to
// the project root.
type ActionDescriptor struct {
	ID          string
	Title       string
	Category    string
	Description string
	Argv        []string
	Dir         string
	Env         map[string]string
	Requires    []string
	Background  bool
	Destructive bool
	Parameter   *ParameterDescriptor
}

func (d ActionDescriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("action id is required")
	}
	if len(d.Argv) == 0 {
		return fmt.Errorf("action %s: argv is required", d.ID)
	}
	return nil
}
