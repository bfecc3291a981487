package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"devlaunch/internal/modules/action/domain"
	"devlaunch/internal/modules/action/dto"
	actionout "devlaunch/internal/modules/action/port/out"
	"devlaunch/internal/modules/action/service"
	apperrors "devlaunch/internal/platform/errors"
)

type staticSource struct {
	name    string
	actions []domain.Action
	err     error
	loads   int
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Load(context.Context) ([]domain.Action, error) {
	s.loads++
	return s.actions, s.err
}

type fakeTools map[string]bool

func (f fakeTools) Lookup(spec string) (string, bool) {
	return "/usr/bin/" + spec, f[spec]
}

type fakeFiles map[string]bool

func (f fakeFiles) Exists(path string) bool {
	return f[path]
}

func dockerAction() domain.Action {
	return domain.Action{
		Key:         "docker/gerenciar-docker.sh",
		Label:       "Gerenciar Docker",
		Category:    "docker",
		Source:      domain.SourceScript,
		Destructive: true,
		Options: []domain.Option{
			{Label: "PowerShell", File: "/s/docker/gerenciar-docker.ps1", Argv: []string{"powershell", "-File", "/s/docker/gerenciar-docker.ps1"}, AppendParam: true},
			{Label: "Bash", File: "/s/docker/gerenciar-docker.sh", Argv: []string{"bash", "/s/docker/gerenciar-docker.sh"}, AppendParam: true},
		},
		Parameter: &domain.Parameter{
			Label:              "Command",
			Choices:            []string{"start", "stop", "restart", "status", "logs", "clean"},
			DestructiveChoices: []string{"clean"},
		},
		Requires: []string{"docker"},
		Mode:     domain.ModeBlocking,
	}
}

func newService(tools fakeTools, files fakeFiles, sources ...*staticSource) *service.ActionService {
	wrapped := make([]actionout.Source, 0, len(sources))
	for _, s := range sources {
		wrapped = append(wrapped, s)
	}
	return service.NewActionService(tools, files, nil, wrapped...)
}

func TestResolvePicksFirstExistingOption(t *testing.T) {
	t.Parallel()
	svc := newService(fakeTools{"docker": true}, fakeFiles{"/s/docker/gerenciar-docker.sh": true},
		&staticSource{name: "script", actions: []domain.Action{dockerAction()}})
	resolved, err := svc.Resolve(context.Background(), dto.ResolveInput{Key: "docker/gerenciar-docker.sh", Param: "logs"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Option != "Bash" {
		t.Fatalf("expected Bash option, got %s", resolved.Option)
	}
	if got := strings.Join(resolved.Argv, " "); got != "bash /s/docker/gerenciar-docker.sh logs" {
		t.Fatalf("unexpected argv: %s", got)
	}
	if resolved.Destructive {
		t.Fatalf("logs must not be destructive")
	}
}

func TestResolveDefaultsAndDestructiveChoice(t *testing.T) {
	t.Parallel()
	files := fakeFiles{"/s/docker/gerenciar-docker.ps1": true, "/s/docker/gerenciar-docker.sh": true}
	svc := newService(fakeTools{"docker": true}, files, &staticSource{name: "script", actions: []domain.Action{dockerAction()}})
	resolved, err := svc.Resolve(context.Background(), dto.ResolveInput{Key: "docker/gerenciar-docker.sh"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Param != "start" || resolved.Option != "PowerShell" {
		t.Fatalf("expected first choice and first option, got %+v", resolved)
	}
	clean, err := svc.Resolve(context.Background(), dto.ResolveInput{Key: "docker/gerenciar-docker.sh", Option: "bash", Param: "clean"})
	if err != nil {
		t.Fatalf("resolve clean: %v", err)
	}
	if !clean.Destructive || clean.Option != "Bash" {
		t.Fatalf("expected destructive bash resolution, got %+v", clean)
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()
	plain := domain.Action{Key: "build", Label: "Build", Options: []domain.Option{{Label: "default", Argv: []string{"make"}}}, Mode: domain.ModeBlocking}
	svc := newService(fakeTools{}, fakeFiles{}, &staticSource{name: "table", actions: []domain.Action{dockerAction(), plain}})
	ctx := context.Background()

	if _, err := svc.Resolve(ctx, dto.ResolveInput{Key: "nope"}); !errors.Is(err, domain.ErrActionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Resolve(ctx, dto.ResolveInput{Key: "docker/gerenciar-docker.sh", Param: "explode"}); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
	if _, err := svc.Resolve(ctx, dto.ResolveInput{Key: "build", Param: "x"}); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter for parameterless action, got %v", err)
	}
	if _, err := svc.Resolve(ctx, dto.ResolveInput{Key: "docker/gerenciar-docker.sh", Param: "start"}); !errors.Is(err, domain.ErrNoRunnableOption) {
		t.Fatalf("expected no runnable option, got %v", err)
	}
	if _, err := svc.Resolve(ctx, dto.ResolveInput{Key: " "}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestResolveMissingTool(t *testing.T) {
	t.Parallel()
	svc := newService(fakeTools{}, fakeFiles{"/s/docker/gerenciar-docker.sh": true},
		&staticSource{name: "script", actions: []domain.Action{dockerAction()}})
	_, err := svc.Resolve(context.Background(), dto.ResolveInput{Key: "docker/gerenciar-docker.sh", Param: "status"})
	if !errors.Is(err, apperrors.ErrConfigurationMissing) {
		t.Fatalf("expected configuration missing, got %v", err)
	}
}

func TestListMergesSourcesFirstKeyWins(t *testing.T) {
	t.Parallel()
	first := domain.Action{Key: "dev", Label: "Dev (table)", Options: []domain.Option{{Label: "default", Argv: []string{"npm", "run", "dev"}}}, Mode: domain.ModeBackground}
	dup := domain.Action{Key: "dev", Label: "Dev (script)", Options: []domain.Option{{Label: "Bash", Argv: []string{"bash", "dev.sh"}}}, Mode: domain.ModeBlocking}
	invalid := domain.Action{Key: "broken", Label: "Broken", Mode: domain.ModeBlocking}
	table := &staticSource{name: "table", actions: []domain.Action{first}}
	scripts := &staticSource{name: "script", actions: []domain.Action{dup, invalid}}
	svc := newService(fakeTools{}, fakeFiles{}, table, scripts)

	actions, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(actions) != 1 || actions[0].Label != "Dev (table)" || !actions[0].Background {
		t.Fatalf("unexpected merge result: %+v", actions)
	}
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if table.loads != 1 {
		t.Fatalf("expected cached table, loaded %d times", table.loads)
	}
	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if table.loads != 2 {
		t.Fatalf("expected reload to read sources again, loaded %d times", table.loads)
	}
}

func TestListSourceError(t *testing.T) {
	t.Parallel()
	svc := newService(fakeTools{}, fakeFiles{}, &staticSource{name: "table", err: errors.New("bad yaml")})
	if _, err := svc.List(context.Background()); err == nil {
		t.Fatalf("expected source error")
	}
}
