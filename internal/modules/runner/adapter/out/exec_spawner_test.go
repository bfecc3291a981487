package out_test

import (
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"

	runneroutadapter "devlaunch/internal/modules/runner/adapter/out"
	"devlaunch/internal/modules/runner/domain"
)

func TestExecSpawnerMergesOutputAndEnv(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}
	dir := t.TempDir()
	cmd, err := domain.NewCommand([]string{"sh", "-c", `echo "$DEVLAUNCH_TEST"; pwd; echo err 1>&2; exit 4`}, dir, map[string]string{"DEVLAUNCH_TEST": "overlay"})
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	proc, err := runneroutadapter.NewExecSpawner().Spawn(context.Background(), cmd)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	raw, err := io.ReadAll(proc.Output())
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	status, err := proc.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 || lines[0] != "overlay" || lines[2] != "err" {
		t.Fatalf("unexpected output: %q", lines)
	}
	if !strings.HasSuffix(lines[1], strings.TrimPrefix(dir, "/private")) {
		t.Fatalf("unexpected working dir: %s", lines[1])
	}
	if status.Code != 4 || status.State != domain.RunStateExited {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestExecSpawnerMissingBinary(t *testing.T) {
	t.Parallel()
	cmd, err := domain.NewCommand([]string{"devlaunch-no-such-binary"}, "", nil)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	_, err = runneroutadapter.NewExecSpawner().Spawn(context.Background(), cmd)
	if !errors.Is(err, domain.ErrSpawnFailed) {
		t.Fatalf("expected spawn failed, got %v", err)
	}
}
