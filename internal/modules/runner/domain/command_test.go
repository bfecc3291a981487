package domain_test

import (
	"errors"
	"os/exec"
	"testing"

	"devlaunch/internal/modules/runner/domain"
	apperrors "devlaunch/internal/platform/errors"
)

func TestNewCommandRejectsEmptyArgv(t *testing.T) {
	t.Parallel()
	if _, err := domain.NewCommand(nil, "", nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := domain.NewCommand([]string{" "}, "", nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank program, got %v", err)
	}
}

func TestCommandIsImmutable(t *testing.T) {
	t.Parallel()
	argv := []string{"bash", "run.sh"}
	env := map[string]string{"MODE": "dev"}
	cmd, err := domain.NewCommand(argv, "/repo", env)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	argv[0] = "sh"
	env["MODE"] = "prod"
	got := cmd.Argv()
	got[1] = "other.sh"
	cmd.Env()["MODE"] = "test"

	if cmd.Program() != "bash" || cmd.Argv()[1] != "run.sh" {
		t.Fatalf("argv was mutated: %v", cmd.Argv())
	}
	if cmd.Env()["MODE"] != "dev" {
		t.Fatalf("env was mutated: %v", cmd.Env())
	}
}

func TestEnvironOverlaysBase(t *testing.T) {
	t.Parallel()
	cmd, err := domain.NewCommand([]string{"node"}, "", map[string]string{"PORT": "4000", "NODE_ENV": "test"})
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	got := cmd.Environ([]string{"PATH=/bin", "PORT=3000"})
	want := []string{"PATH=/bin", "NODE_ENV=test", "PORT=4000"}
	if len(got) != len(want) {
		t.Fatalf("unexpected environ: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("environ[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()
	spawnErr := error(&domain.SpawnFailedError{Argv: []string{"nope"}, Err: exec.ErrNotFound})
	if !errors.Is(spawnErr, domain.ErrSpawnFailed) || !errors.Is(spawnErr, exec.ErrNotFound) {
		t.Fatalf("spawn error should match sentinel and cause: %v", spawnErr)
	}
	if errors.Is(spawnErr, domain.ErrCommandFailed) {
		t.Fatalf("spawn error must not match command failed")
	}
	failed := error(&domain.CommandFailedError{ExitCode: 3, Argv: []string{"make", "test"}})
	var typed *domain.CommandFailedError
	if !errors.As(failed, &typed) || typed.ExitCode != 3 {
		t.Fatalf("expected typed command failure, got %v", failed)
	}
	if failed.Error() != "command failed (exit_code=3): make test" {
		t.Fatalf("unexpected message: %s", failed.Error())
	}
}
