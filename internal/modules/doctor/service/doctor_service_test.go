package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	actiondto "devlaunch/internal/modules/action/dto"
	"devlaunch/internal/modules/doctor/dto"
	doctorout "devlaunch/internal/modules/doctor/port/out"
	"devlaunch/internal/modules/doctor/service"
	plugindto "devlaunch/internal/modules/plugin/dto"
	runnerin "devlaunch/internal/modules/runner/port/in"
)

type fakeTools map[string]string

func (f fakeTools) Lookup(spec string) (string, string, bool) {
	for _, alt := range strings.Split(spec, "|") {
		if path, ok := f[alt]; ok {
			return alt, path, true
		}
	}
	return "", "", false
}

type fakeFiles map[string]bool

func (f fakeFiles) Exists(path string) bool { return f[path] }

type fakePorts struct {
	listeners []doctorout.Listener
	err       error
}

func (f fakePorts) Listening(context.Context) ([]doctorout.Listener, error) {
	return f.listeners, f.err
}

type fakePlugins struct {
	results []plugindto.DoctorResult
}

func (f fakePlugins) List(context.Context) ([]plugindto.PluginInfo, error) { return nil, nil }

func (f fakePlugins) Doctor(context.Context) ([]plugindto.DoctorResult, error) {
	return f.results, nil
}

func (f fakePlugins) ListActions(context.Context, string) ([]plugindto.ActionInfo, error) {
	return nil, nil
}

type fakeActions struct {
	err error
}

func (f fakeActions) List(context.Context) ([]actiondto.ActionInfo, error) {
	return []actiondto.ActionInfo{{Key: "dev"}}, f.err
}

func (f fakeActions) Reload(ctx context.Context) ([]actiondto.ActionInfo, error) { return f.List(ctx) }

func (f fakeActions) Get(context.Context, string) (actiondto.ActionInfo, error) {
	return actiondto.ActionInfo{}, nil
}

func (f fakeActions) Resolve(context.Context, actiondto.ResolveInput) (actiondto.ResolvedCommand, error) {
	return actiondto.ResolvedCommand{}, nil
}

func (f fakeActions) Dispatch(context.Context, actiondto.DispatchInput, runnerin.LogSink) (actiondto.DispatchResult, error) {
	return actiondto.DispatchResult{}, nil
}

func find(report dto.Report, group, name string) (dto.CheckResult, bool) {
	for _, c := range report.Checks {
		if c.Group == group && c.Name == name {
			return c, true
		}
	}
	return dto.CheckResult{}, false
}

func TestSelfCheckHealthy(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	svc := service.NewDoctorService(
		service.Options{Root: root, RequiredTools: []string{"docker-compose|docker", "pnpm"}, RequiredFiles: []string{".env.example"}, Ports: []int{5432, 3000}},
		service.Dependencies{
			Tools:   fakeTools{"docker": "/usr/bin/docker", "pnpm": "/usr/bin/pnpm"},
			Files:   fakeFiles{filepath.Join(root, ".env.example"): true},
			Ports:   fakePorts{listeners: []doctorout.Listener{{Port: 5432, PID: 42, Process: "postgres"}}},
			Actions: fakeActions{},
			Plugins: fakePlugins{results: []plugindto.DoctorResult{{Name: "git", LifecycleOK: true, ChecksumValid: true, BinaryReachable: true}}},
		},
	)
	report, err := svc.SelfCheck(context.Background())
	if err != nil {
		t.Fatalf("self-check: %v", err)
	}
	if !report.OK {
		t.Fatalf("expected healthy report, got %+v", report.Failures)
	}
	docker, ok := find(report, "tool", "docker-compose|docker")
	if !ok || docker.Status != "OK" || docker.Detail != "docker at /usr/bin/docker" {
		t.Fatalf("unexpected tool check: %+v", docker)
	}
	busy, _ := find(report, "port", "5432")
	if busy.Status != "WARN" || busy.Line != "[WARN] port: 5432 (in use by postgres (pid 42))" {
		t.Fatalf("unexpected port check: %+v", busy)
	}
	free, _ := find(report, "port", "3000")
	if free.Status != "OK" {
		t.Fatalf("expected free port, got %+v", free)
	}
	if plugin, _ := find(report, "plugin", "git"); plugin.Status != "OK" {
		t.Fatalf("expected plugin ok, got %+v", plugin)
	}
}

func TestSelfCheckFailures(t *testing.T) {
	t.Parallel()
	svc := service.NewDoctorService(
		service.Options{Root: t.TempDir(), RequiredTools: []string{"docker-compose|docker"}, RequiredFiles: []string{".env.example"}, Ports: []int{8080}},
		service.Dependencies{
			Tools:   fakeTools{},
			Files:   fakeFiles{},
			Ports:   fakePorts{err: errors.New("permission denied")},
			Actions: fakeActions{err: errors.New("decode action table")},
			Plugins: fakePlugins{results: []plugindto.DoctorResult{{Name: "broken", Error: "checksum mismatch"}}},
		},
	)
	report, err := svc.SelfCheck(context.Background())
	if err != nil {
		t.Fatalf("self-check: %v", err)
	}
	if report.OK {
		t.Fatalf("expected failing report")
	}
	if len(report.Failures) != 4 {
		t.Fatalf("expected four failures, got %q", report.Failures)
	}
	tool, _ := find(report, "tool", "docker-compose|docker")
	if !strings.Contains(tool.Detail, "docker-compose, docker") {
		t.Fatalf("expected alternatives in detail, got %s", tool.Detail)
	}
	if port, _ := find(report, "port", "8080"); port.Status != "WARN" {
		t.Fatalf("probe failure must only warn, got %+v", port)
	}
}
