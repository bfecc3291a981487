package service

import (
	"sync"
	"sync/atomic"
	"time"

	"devlaunch/internal/modules/runner/domain"
	"devlaunch/internal/modules/runner/dto"
	runnerout "devlaunch/internal/modules/runner/port/out"
)

// RunHandle tracks one spawned process. The stop flag is cooperative: the
// reader checks it between lines.
type RunHandle struct {
	ID        string
	Label     string
	Mode      domain.Mode
	Command   domain.Command
	StartedAt time.Time

	proc runnerout.Process
	stop atomic.Bool
	seq  atomic.Int64

	mu     sync.Mutex
	status *domain.ExitStatus
	exited chan struct{}
	done   chan struct{}
}

func newRunHandle(handleID, label string, mode domain.Mode, command domain.Command, proc runnerout.Process, startedAt time.Time) *RunHandle {
	return &RunHandle{
		ID:        handleID,
		Label:     label,
		Mode:      mode,
		Command:   command,
		StartedAt: startedAt,
		proc:      proc,
		exited:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Status reports the exit status once the process has been reaped.
func (h *RunHandle) Status() (domain.ExitStatus, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status == nil {
		return domain.ExitStatus{}, false
	}
	return *h.status, true
}

func (h *RunHandle) setStatus(status domain.ExitStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status != nil {
		return
	}
	h.status = &status
	close(h.exited)
}

func (h *RunHandle) line(kind domain.LineKind, text string, at time.Time) domain.LogLine {
	return domain.LogLine{
		HandleID: h.ID,
		Label:    h.Label,
		Seq:      h.seq.Add(1),
		Kind:     kind,
		Text:     text,
		At:       at,
	}
}

func (h *RunHandle) info() dto.HandleInfo {
	info := dto.HandleInfo{
		ID:        h.ID,
		Label:     h.Label,
		Argv:      h.Command.Argv(),
		Mode:      string(h.Mode),
		PID:       h.proc.PID(),
		Running:   true,
		State:     string(domain.RunStateRunning),
		StartedAt: h.StartedAt,
	}
	if status, ok := h.Status(); ok {
		info.Running = false
		info.ExitCode = status.Code
		info.State = string(status.State)
	}
	return info
}
