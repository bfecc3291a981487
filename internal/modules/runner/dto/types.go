package dto

import "time"

type RunInput struct {
	Label string
	Argv  []string
	Dir   string
	Env   map[string]string
	Check bool
}

type RunResult struct {
	HandleID string
	ExitCode int
	State    string
}

type HandleInfo struct {
	ID        string
	Label     string
	Argv      []string
	Mode      string
	PID       int
	Running   bool
	ExitCode  int
	State     string
	StartedAt time.Time
}

type ExitStatus struct {
	HandleID string
	Running  bool
	ExitCode int
	State    string
}

type LogLine struct {
	HandleID string
	Seq      int64
	Kind     string
	Text     string
	ExitCode int
}

type HistoryEntry struct {
	ID         string
	Label      string
	Command    string
	Dir        string
	Mode       string
	State      string
	ExitCode   int
	StartedAt  time.Time
	FinishedAt time.Time
}
