package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"devlaunch/internal/modules/action/domain"
	actionout "devlaunch/internal/modules/action/port/out"
)

type ScriptCatalogOptions struct {
	ScriptsDir string
	RootDir    string
	ConfigPath string
	Discovery  DiscoveryOptions
}

// FSScriptCatalog turns helper scripts on disk into actions. Overrides in
// the action table can attach parameters or adjust flags per script.
type FSScriptCatalog struct {
	opts ScriptCatalogOptions
}

func NewFSScriptCatalog(opts ScriptCatalogOptions) actionout.Source {
	if opts.RootDir == "" {
		opts.RootDir = filepath.Dir(opts.ScriptsDir)
	}
	return &FSScriptCatalog{opts: opts}
}

func (c *FSScriptCatalog) Name() string {
	return domain.SourceScript
}

func (c *FSScriptCatalog) Load(_ context.Context) ([]domain.Action, error) {
	info, err := os.Stat(c.opts.ScriptsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Action{}, nil
		}
		return nil, fmt.Errorf("stat scripts dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scripts dir is not a directory: %s", c.opts.ScriptsDir)
	}
	discovered, err := Discover(os.DirFS(c.opts.ScriptsDir), c.opts.Discovery)
	if err != nil {
		return nil, fmt.Errorf("discover scripts: %w", err)
	}
	overrides := map[string]tableOverride{}
	if c.opts.ConfigPath != "" {
		doc, err := readTableFile(c.opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		overrides = doc.Overrides
	}
	out := make([]domain.Action, 0, len(discovered))
	for _, d := range discovered {
		out = append(out, c.toDomain(d, overrides))
	}
	return out, nil
}

func (c *FSScriptCatalog) toDomain(d DiscoveredAction, overrides map[string]tableOverride) domain.Action {
	options := make([]domain.Option, 0, len(d.Scripts))
	rels := make([]string, 0, len(d.Scripts))
	for _, s := range d.Scripts {
		abs := filepath.Join(c.opts.ScriptsDir, filepath.FromSlash(s.RelPath))
		options = append(options, domain.Option{
			Label:       s.Label,
			File:        abs,
			RelPath:     s.RelPath,
			Argv:        ScriptArgv(s.Suffix, abs),
			AppendParam: true,
		})
		rels = append(rels, s.RelPath)
	}
	action := domain.Action{
		Key:         d.Key,
		Label:       d.Label,
		Category:    d.Category,
		Description: d.Key,
		Source:      domain.SourceScript,
		Destructive: d.Destructive,
		Options:     options,
		Mode:        domain.ModeBlocking,
		Dir:         c.opts.RootDir,
	}
	o, ok := matchOverride(overrides, rels)
	if !ok {
		return action
	}
	if o.Label != "" {
		action.Label = o.Label
	}
	if o.Category != "" {
		action.Category = o.Category
	}
	if o.Description != "" {
		action.Description = o.Description
	}
	if o.Destructive != nil {
		action.Destructive = *o.Destructive
	}
	if o.Parameter != nil {
		action.Parameter = o.Parameter.toDomain()
	}
	if o.Check != nil {
		action.Check = *o.Check
	}
	action.Requires = o.Requires
	action.Env = o.Env
	action.Mode = parseMode(o.Mode, domain.ModeBlocking)
	return action
}
