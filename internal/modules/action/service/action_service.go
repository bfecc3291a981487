package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	hclog "github.com/hashicorp/go-hclog"

	"devlaunch/internal/modules/action/domain"
	"devlaunch/internal/modules/action/dto"
	actionout "devlaunch/internal/modules/action/port/out"
	apperrors "devlaunch/internal/platform/errors"
)

type ActionService struct {
	sources []actionout.Source
	tools   actionout.ToolLocator
	files   actionout.FileChecker
	logger  hclog.Logger

	mu      sync.Mutex
	loaded  bool
	actions []domain.Action
	byKey   map[string]int
}

func NewActionService(tools actionout.ToolLocator, files actionout.FileChecker, logger hclog.Logger, sources ...actionout.Source) *ActionService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ActionService{
		sources: sources,
		tools:   tools,
		files:   files,
		logger:  logger.Named("action"),
	}
}

func (s *ActionService) List(ctx context.Context) ([]dto.ActionInfo, error) {
	actions, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActionInfo, 0, len(actions))
	for _, a := range actions {
		out = append(out, s.info(a))
	}
	return out, nil
}

// Reload drops the cached table and reads every source again.
func (s *ActionService) Reload(ctx context.Context) ([]dto.ActionInfo, error) {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
	return s.List(ctx)
}

func (s *ActionService) Get(ctx context.Context, key string) (dto.ActionInfo, error) {
	action, err := s.find(ctx, key)
	if err != nil {
		return dto.ActionInfo{}, err
	}
	return s.info(action), nil
}

func (s *ActionService) Resolve(ctx context.Context, input dto.ResolveInput) (dto.ResolvedCommand, error) {
	action, err := s.find(ctx, input.Key)
	if err != nil {
		return dto.ResolvedCommand{}, err
	}
	param := ""
	if action.Parameter != nil {
		if param, err = action.Parameter.Effective(input.Param); err != nil {
			return dto.ResolvedCommand{}, fmt.Errorf("%s: %w", action.Key, err)
		}
	} else if strings.TrimSpace(input.Param) != "" {
		return dto.ResolvedCommand{}, fmt.Errorf("%w: %s takes no parameter", domain.ErrInvalidParameter, action.Key)
	}
	option, err := s.pickOption(action, input.Option)
	if err != nil {
		return dto.ResolvedCommand{}, err
	}
	for _, tool := range action.Requires {
		if _, ok := s.tools.Lookup(tool); !ok {
			return dto.ResolvedCommand{}, fmt.Errorf("%w: %s requires %s", apperrors.ErrConfigurationMissing, action.Key, tool)
		}
	}
	return dto.ResolvedCommand{
		Key:         action.Key,
		Label:       action.Label,
		Category:    action.Category,
		Option:      option.Label,
		Param:       param,
		Argv:        option.Command(param),
		Dir:         action.Dir,
		Env:         action.ExpandEnv(param),
		Destructive: action.IsDestructive(param),
		Background:  action.Mode == domain.ModeBackground,
		Check:       action.Check,
	}, nil
}

// pickOption returns the option named label, or the first runnable option
// when label is empty. Only options whose file exists are runnable.
func (s *ActionService) pickOption(action domain.Action, label string) (domain.Option, error) {
	label = strings.TrimSpace(label)
	available := make([]domain.Option, 0, len(action.Options))
	for _, o := range action.Options {
		if s.runnable(o) {
			available = append(available, o)
		}
	}
	if len(available) == 0 {
		return domain.Option{}, fmt.Errorf("%w: %s", domain.ErrNoRunnableOption, action.Key)
	}
	if label == "" {
		return available[0], nil
	}
	for _, o := range available {
		if strings.EqualFold(o.Label, label) {
			return o, nil
		}
	}
	return domain.Option{}, fmt.Errorf("%w: %s has no runnable option %q", domain.ErrNoRunnableOption, action.Key, label)
}

func (s *ActionService) runnable(o domain.Option) bool {
	return o.File == "" || s.files.Exists(o.File)
}

func (s *ActionService) find(ctx context.Context, key string) (domain.Action, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Action{}, fmt.Errorf("%w: action key is required", apperrors.ErrInvalidInput)
	}
	if _, err := s.snapshot(ctx); err != nil {
		return domain.Action{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byKey[key]
	if !ok {
		return domain.Action{}, fmt.Errorf("%w: %s", domain.ErrActionNotFound, key)
	}
	return s.actions[idx], nil
}

func (s *ActionService) snapshot(ctx context.Context) ([]domain.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.actions, nil
	}
	actions := []domain.Action{}
	byKey := map[string]int{}
	for _, source := range s.sources {
		loaded, err := source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load %s actions: %w", source.Name(), err)
		}
		for _, a := range loaded {
			if err := a.Validate(); err != nil {
				s.logger.Warn("skipping invalid action", "source", source.Name(), "error", err)
				continue
			}
			if _, dup := byKey[a.Key]; dup {
				s.logger.Warn("duplicate action key, keeping first", "source", source.Name(), "key", a.Key)
				continue
			}
			byKey[a.Key] = len(actions)
			actions = append(actions, a)
		}
		s.logger.Debug("loaded actions", "source", source.Name(), "count", len(loaded))
	}
	s.actions = actions
	s.byKey = byKey
	s.loaded = true
	return actions, nil
}

func (s *ActionService) info(a domain.Action) dto.ActionInfo {
	info := dto.ActionInfo{
		Key:         a.Key,
		Label:       a.Label,
		Category:    a.Category,
		Description: a.Description,
		Source:      a.Source,
		Destructive: a.MayBeDestructive(),
		Background:  a.Mode == domain.ModeBackground,
		Requires:    append([]string(nil), a.Requires...),
	}
	for _, o := range a.Options {
		path := o.RelPath
		if path == "" {
			path = o.File
		}
		info.Options = append(info.Options, dto.OptionInfo{
			Label:   o.Label,
			Path:    path,
			Exists:  s.runnable(o),
			Command: strings.Join(o.Command(""), " "),
		})
	}
	if a.Parameter != nil {
		info.Parameter = &dto.ParameterInfo{
			Label:              a.Parameter.Label,
			Choices:            append([]string(nil), a.Parameter.Choices...),
			Default:            a.Parameter.Default,
			DestructiveChoices: append([]string(nil), a.Parameter.DestructiveChoices...),
		}
	}
	return info
}
