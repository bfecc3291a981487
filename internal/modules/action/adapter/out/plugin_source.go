package out

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	"devlaunch/internal/modules/action/domain"
	actionout "devlaunch/internal/modules/action/port/out"
	plugindto "devlaunch/internal/modules/plugin/dto"
	pluginin "devlaunch/internal/modules/plugin/port/in"
	"devlaunch/internal/platform/slug"
)

const pluginCapabilityActions = "actions"

// PluginSource turns the actions advertised by enabled plugins into table
// entries keyed "plugin/<plugin>/<id>". A plugin that fails to answer is
// logged and skipped so one broken binary does not hide the rest.
type PluginSource struct {
	plugins pluginin.Usecase
	root    string
	logger  hclog.Logger
}

func NewPluginSource(plugins pluginin.Usecase, root string, logger hclog.Logger) actionout.Source {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PluginSource{plugins: plugins, root: root, logger: logger}
}

func (s *PluginSource) Name() string {
	return "plugins"
}

func (s *PluginSource) Load(ctx context.Context) ([]domain.Action, error) {
	infos, err := s.plugins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plugins: %w", err)
	}
	out := []domain.Action{}
	for _, info := range infos {
		if !info.Enabled || !hasCapability(info.Capabilities, pluginCapabilityActions) {
			continue
		}
		actions, err := s.plugins.ListActions(ctx, info.Name)
		if err != nil {
			s.logger.Warn("plugin actions unavailable", "plugin", info.Name, "error", err)
			continue
		}
		for _, a := range actions {
			out = append(out, s.toDomain(a))
		}
	}
	return out, nil
}

func (s *PluginSource) toDomain(a plugindto.ActionInfo) domain.Action {
	title := a.Title
	if title == "" {
		title = slug.Words(a.ID)
	}
	category := a.Category
	if category == "" {
		category = a.PluginName
	}
	mode := domain.ModeBlocking
	if a.Background {
		mode = domain.ModeBackground
	}
	action := domain.Action{
		Key:         "plugin/" + a.PluginName + "/" + slug.Make(a.ID),
		Label:       title,
		Category:    "plugins/" + category,
		Description: a.Description,
		Source:      domain.PluginSource(a.PluginName),
		Destructive: a.Destructive,
		Options:     []domain.Option{{Label: "default", Argv: a.Argv}},
		Requires:    a.Requires,
		Mode:        mode,
		Check:       true,
		Env:         a.Env,
		Dir:         resolveDir(s.root, a.Dir),
	}
	if p := a.Parameter; p != nil {
		action.Parameter = &domain.Parameter{
			Label:              p.Label,
			Choices:            p.Choices,
			Default:            p.Default,
			DestructiveChoices: p.DestructiveChoices,
		}
	}
	return action
}

func hasCapability(capabilities []string, want string) bool {
	for _, c := range capabilities {
		if c == want {
			return true
		}
	}
	return false
}
