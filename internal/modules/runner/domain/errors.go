package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSpawnFailed   = errors.New("spawn failed")
	ErrCommandFailed = errors.New("command failed")
	ErrRunNotFound   = errors.New("run not found")
	ErrRunActive     = errors.New("run still active")
)

type SpawnFailedError struct {
	Argv []string
	Err  error
}

func (e *SpawnFailedError) Error() string {
	return fmt.Sprintf("spawn %q: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *SpawnFailedError) Unwrap() error {
	return e.Err
}

func (e *SpawnFailedError) Is(target error) bool {
	return target == ErrSpawnFailed
}

type CommandFailedError struct {
	ExitCode int
	Argv     []string
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command failed (exit_code=%d): %s", e.ExitCode, strings.Join(e.Argv, " "))
}

func (e *CommandFailedError) Is(target error) bool {
	return target == ErrCommandFailed
}
