package domain

import "time"

type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateExited    RunState = "exited"
	RunStateKilled    RunState = "killed"
	RunStateCancelled RunState = "cancelled"
	RunStateFailed    RunState = "failed"
)

type Mode string

const (
	ModeBlocking   Mode = "blocking"
	ModeBackground Mode = "background"
)

// ExitStatus is written once per run. Code is -1 when the process ended by signal.
type ExitStatus struct {
	Code  int
	State RunState
}

type LineKind string

const (
	LineOutput     LineKind = "output"
	LineDiagnostic LineKind = "diagnostic"
	LineExit       LineKind = "exit"
)

type LogLine struct {
	HandleID string
	Label    string
	Seq      int64
	Kind     LineKind
	Text     string
	ExitCode int
	At       time.Time
}

type HistoryEntry struct {
	ID         string
	Label      string
	Argv       []string
	Dir        string
	Mode       Mode
	State      RunState
	ExitCode   int
	StartedAt  time.Time
	FinishedAt time.Time
}
