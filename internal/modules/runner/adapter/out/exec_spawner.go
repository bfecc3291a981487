package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"devlaunch/internal/modules/runner/domain"
	runnerout "devlaunch/internal/modules/runner/port/out"
)

type ExecSpawner struct{}

func NewExecSpawner() runnerout.Spawner {
	return &ExecSpawner{}
}

// Spawn starts the command in its own process group with stdout and stderr
// sharing one pipe, so the reader sees lines in the order they were written.
func (s *ExecSpawner) Spawn(ctx context.Context, command domain.Command) (runnerout.Process, error) {
	argv := command.Argv()
	if err := ctx.Err(); err != nil {
		return nil, &domain.SpawnFailedError{Argv: argv, Err: err}
	}
	cmd := exec.Command(command.Program(), command.Args()...)
	cmd.Dir = command.Dir()
	cmd.Env = command.Environ(os.Environ())
	setProcessGroup(cmd)

	r, w, err := os.Pipe()
	if err != nil {
		return nil, &domain.SpawnFailedError{Argv: argv, Err: fmt.Errorf("create output pipe: %w", err)}
	}
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, &domain.SpawnFailedError{Argv: argv, Err: err}
	}
	_ = w.Close()
	return &execProcess{cmd: cmd, output: r}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	output io.ReadCloser
}

func (p *execProcess) PID() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Output() io.ReadCloser {
	return p.output
}

func (p *execProcess) Wait() (domain.ExitStatus, error) {
	err := p.cmd.Wait()
	if err == nil {
		return domain.ExitStatus{Code: 0, State: domain.RunStateExited}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			return domain.ExitStatus{Code: -1, State: domain.RunStateKilled}, nil
		}
		return domain.ExitStatus{Code: code, State: domain.RunStateExited}, nil
	}
	return domain.ExitStatus{Code: -1, State: domain.RunStateFailed}, fmt.Errorf("wait process: %w", err)
}

func (p *execProcess) Kill() error {
	return killGroup(p.cmd)
}

func (p *execProcess) Terminate() error {
	return terminateGroup(p.cmd)
}
