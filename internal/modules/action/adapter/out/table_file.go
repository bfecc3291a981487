package out

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"devlaunch/internal/modules/action/domain"
)

type tableFile struct {
	Actions   []tableAction            `yaml:"actions"`
	Overrides map[string]tableOverride `yaml:"overrides"`
}

type tableAction struct {
	Key         string            `yaml:"key"`
	Label       string            `yaml:"label"`
	Category    string            `yaml:"category"`
	Description string            `yaml:"description"`
	Argv        []string          `yaml:"argv"`
	Options     []tableOption     `yaml:"options"`
	Dir         string            `yaml:"dir"`
	Env         map[string]string `yaml:"env"`
	Requires    []string          `yaml:"requires"`
	Mode        string            `yaml:"mode"`
	Check       *bool             `yaml:"check"`
	Destructive bool              `yaml:"destructive"`
	Parameter   *tableParameter   `yaml:"parameter"`
}

type tableOption struct {
	Label string   `yaml:"label"`
	Argv  []string `yaml:"argv"`
}

type tableParameter struct {
	Label              string   `yaml:"label"`
	Choices            []string `yaml:"choices"`
	Default            string   `yaml:"default"`
	DestructiveChoices []string `yaml:"destructive_choices"`
}

type tableOverride struct {
	Label       string            `yaml:"label"`
	Category    string            `yaml:"category"`
	Description string            `yaml:"description"`
	Destructive *bool             `yaml:"destructive"`
	Parameter   *tableParameter   `yaml:"parameter"`
	Requires    []string          `yaml:"requires"`
	Mode        string            `yaml:"mode"`
	Check       *bool             `yaml:"check"`
	Env         map[string]string `yaml:"env"`
}

func readTableFile(path string) (tableFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tableFile{}, nil
		}
		return tableFile{}, fmt.Errorf("read action table: %w", err)
	}
	doc := tableFile{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return tableFile{}, fmt.Errorf("decode action table: %w", err)
	}
	return doc, nil
}

func (p *tableParameter) toDomain() *domain.Parameter {
	if p == nil {
		return nil
	}
	return &domain.Parameter{
		Label:              p.Label,
		Choices:            p.Choices,
		Default:            p.Default,
		DestructiveChoices: p.DestructiveChoices,
	}
}

func parseMode(raw string, fallback domain.Mode) domain.Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return fallback
	case "bg":
		return domain.ModeBackground
	default:
		return domain.Mode(strings.ToLower(strings.TrimSpace(raw)))
	}
}

func resolveDir(root, dir string) string {
	if dir == "" {
		return root
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

// matchOverride picks the override naming one of the given relative paths
// most specifically: an exact path, then an exact stem, then the longest
// trailing path. Equal ranks resolve to the first key in sorted order.
func matchOverride(overrides map[string]tableOverride, rels []string) (tableOverride, bool) {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	best, bestRank := "", 0
	for _, key := range keys {
		if rank := overrideRank(key, rels); rank > bestRank {
			best, bestRank = key, rank
		}
	}
	if bestRank == 0 {
		return tableOverride{}, false
	}
	return overrides[best], true
}

const (
	rankExactStem = 1 << 16
	rankExactPath = 2 << 16
)

func overrideRank(key string, rels []string) int {
	want := strings.ToLower(strings.TrimSuffix(filepath.ToSlash(key), "/"))
	if want == "" {
		return 0
	}
	rank := 0
	for _, rel := range rels {
		low := strings.ToLower(rel)
		stem := strings.TrimSuffix(low, filepath.Ext(low))
		r := 0
		switch {
		case low == want:
			r = rankExactPath
		case stem == want:
			r = rankExactStem
		case strings.HasSuffix(low, "/"+want), strings.HasSuffix(stem, "/"+want):
			r = len(want)
		}
		if r > rank {
			rank = r
		}
	}
	return rank
}
