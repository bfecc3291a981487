package out

import (
	"context"
	"fmt"
	"strings"

	"devlaunch/internal/modules/action/domain"
	actionout "devlaunch/internal/modules/action/port/out"
)

const defaultTableCategory = "actions"

// YAMLTableStore reads the configured actions of devlaunch.yaml.
type YAMLTableStore struct {
	path string
	root string
}

func NewYAMLTableStore(path, root string) actionout.Source {
	return &YAMLTableStore{path: path, root: root}
}

func (s *YAMLTableStore) Name() string {
	return domain.SourceTable
}

func (s *YAMLTableStore) Load(_ context.Context) ([]domain.Action, error) {
	doc, err := readTableFile(s.path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Action, 0, len(doc.Actions))
	for i, raw := range doc.Actions {
		action, err := s.toDomain(raw)
		if err != nil {
			return nil, fmt.Errorf("action #%d: %w", i+1, err)
		}
		out = append(out, action)
	}
	return out, nil
}

func (s *YAMLTableStore) toDomain(raw tableAction) (domain.Action, error) {
	key := strings.TrimSpace(raw.Key)
	if key == "" {
		return domain.Action{}, fmt.Errorf("key is required")
	}
	options := make([]domain.Option, 0, len(raw.Options)+1)
	if len(raw.Argv) > 0 {
		options = append(options, domain.Option{Label: "default", Argv: raw.Argv})
	}
	for _, o := range raw.Options {
		label := o.Label
		if label == "" {
			label = fmt.Sprintf("option %d", len(options)+1)
		}
		options = append(options, domain.Option{Label: label, Argv: o.Argv})
	}
	label := raw.Label
	if label == "" {
		label = key
	}
	category := raw.Category
	if category == "" {
		category = defaultTableCategory
	}
	check := true
	if raw.Check != nil {
		check = *raw.Check
	}
	return domain.Action{
		Key:         key,
		Label:       label,
		Category:    category,
		Description: raw.Description,
		Source:      domain.SourceTable,
		Destructive: raw.Destructive,
		Options:     options,
		Parameter:   raw.Parameter.toDomain(),
		Requires:    raw.Requires,
		Mode:        parseMode(raw.Mode, domain.ModeBlocking),
		Check:       check,
		Env:         raw.Env,
		Dir:         resolveDir(s.root, raw.Dir),
	}, nil
}
