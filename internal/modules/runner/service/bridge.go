package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"devlaunch/internal/modules/runner/domain"
	"devlaunch/internal/modules/runner/dto"
	runnerin "devlaunch/internal/modules/runner/port/in"
	runnerout "devlaunch/internal/modules/runner/port/out"
	"devlaunch/internal/platform/clock"
	apperrors "devlaunch/internal/platform/errors"
	"devlaunch/internal/platform/id"
)

const historyTimeout = 2 * time.Second

type Options struct {
	// GracePeriod is the wait between the graceful terminate and the hard
	// kill issued by Cancel. Zero disables the escalation.
	GracePeriod time.Duration
}

// Bridge connects spawned processes to log consumers. Blocking runs stream to
// a caller-provided sink; background runs feed a shared queue drained by Poll.
type Bridge struct {
	spawner runnerout.Spawner
	history runnerout.HistoryStore
	clock   clock.Clock
	ids     id.Generator
	logger  hclog.Logger
	grace   time.Duration

	queue *lineQueue

	mu      sync.Mutex
	handles map[string]*RunHandle
	order   []string
}

func NewBridge(spawner runnerout.Spawner, history runnerout.HistoryStore, clk clock.Clock, ids id.Generator, logger hclog.Logger, opts Options) *Bridge {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Bridge{
		spawner: spawner,
		history: history,
		clock:   clk,
		ids:     ids,
		logger:  logger.Named("runner"),
		grace:   opts.GracePeriod,
		queue:   &lineQueue{},
		handles: map[string]*RunHandle{},
	}
}

func (b *Bridge) RunBlocking(ctx context.Context, input dto.RunInput, sink runnerin.LogSink) (dto.RunResult, error) {
	if sink == nil {
		return dto.RunResult{}, fmt.Errorf("%w: log sink is required", apperrors.ErrInvalidInput)
	}
	h, err := b.start(ctx, input, domain.ModeBlocking)
	if err != nil {
		return dto.RunResult{}, err
	}

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := b.cancel(h); err != nil {
				b.logger.Warn("cancel on context done", "id", h.ID, "error", err)
			}
		case <-finished:
		}
	}()
	b.pump(h, func(line domain.LogLine) {
		sink.AppendLine(line.Text)
	})
	close(finished)
	close(h.done)

	status, _ := h.Status()
	result := dto.RunResult{HandleID: h.ID, ExitCode: status.Code, State: string(status.State)}
	if status.State == domain.RunStateCancelled && ctx.Err() != nil {
		return result, fmt.Errorf("run %s: %w", h.Label, ctx.Err())
	}
	if input.Check && status.Code != 0 {
		return result, &domain.CommandFailedError{ExitCode: status.Code, Argv: h.Command.Argv()}
	}
	return result, nil
}

func (b *Bridge) RunBackground(ctx context.Context, input dto.RunInput) (dto.HandleInfo, error) {
	h, err := b.start(ctx, input, domain.ModeBackground)
	if err != nil {
		return dto.HandleInfo{}, err
	}
	prefix := "[" + h.Label + "] "
	go func() {
		b.pump(h, func(line domain.LogLine) {
			line.Text = prefix + line.Text
			b.queue.push(line)
		})
		status, _ := h.Status()
		exit := h.line(domain.LineExit, fmt.Sprintf("%s[process finished] exit_code=%d", prefix, status.Code), b.clock.Now())
		exit.ExitCode = status.Code
		b.queue.push(exit)
		close(h.done)
	}()
	return h.info(), nil
}

func (b *Bridge) Poll(_ context.Context) []dto.LogLine {
	lines := b.queue.drain()
	out := make([]dto.LogLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, dto.LogLine{
			HandleID: line.HandleID,
			Seq:      line.Seq,
			Kind:     string(line.Kind),
			Text:     line.Text,
			ExitCode: line.ExitCode,
		})
	}
	return out
}

func (b *Bridge) Cancel(_ context.Context, handleID string) error {
	h, err := b.lookup(handleID)
	if err != nil {
		return err
	}
	return b.cancel(h)
}

func (b *Bridge) ExitStatus(_ context.Context, handleID string) (dto.ExitStatus, error) {
	h, err := b.lookup(handleID)
	if err != nil {
		return dto.ExitStatus{}, err
	}
	status, ok := h.Status()
	if !ok {
		return dto.ExitStatus{HandleID: h.ID, Running: true, State: string(domain.RunStateRunning)}, nil
	}
	return dto.ExitStatus{HandleID: h.ID, ExitCode: status.Code, State: string(status.State)}, nil
}

func (b *Bridge) Handles(_ context.Context) []dto.HandleInfo {
	b.mu.Lock()
	handles := make([]*RunHandle, 0, len(b.order))
	for i := len(b.order) - 1; i >= 0; i-- {
		handles = append(handles, b.handles[b.order[i]])
	}
	b.mu.Unlock()

	out := make([]dto.HandleInfo, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.info())
	}
	return out
}

func (b *Bridge) Forget(_ context.Context, handleID string) error {
	h, err := b.lookup(handleID)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
	default:
		return fmt.Errorf("%w: %s", domain.ErrRunActive, handleID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handles, handleID)
	for i, existing := range b.order {
		if existing == handleID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (b *Bridge) History(ctx context.Context, limit int) ([]dto.HistoryEntry, error) {
	if b.history == nil {
		return []dto.HistoryEntry{}, nil
	}
	entries, err := b.history.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.HistoryEntry{
			ID:         e.ID,
			Label:      e.Label,
			Command:    strings.Join(e.Argv, " "),
			Dir:        e.Dir,
			Mode:       string(e.Mode),
			State:      string(e.State),
			ExitCode:   e.ExitCode,
			StartedAt:  e.StartedAt,
			FinishedAt: e.FinishedAt,
		})
	}
	return out, nil
}

func (b *Bridge) QueueSink(label string) runnerin.LogSink {
	return &queueSink{bridge: b, label: label}
}

// Shutdown cancels every live process and waits for their readers to finish.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	handles := make([]*RunHandle, 0, len(b.handles))
	for _, h := range b.handles {
		handles = append(handles, h)
	}
	b.mu.Unlock()

	for _, h := range handles {
		if err := b.cancel(h); err != nil {
			b.logger.Warn("cancel on shutdown", "id", h.ID, "error", err)
		}
	}
	for _, h := range handles {
		select {
		case <-h.done:
		case <-ctx.Done():
			return fmt.Errorf("shutdown: %w", ctx.Err())
		}
	}
	return nil
}

func (b *Bridge) start(ctx context.Context, input dto.RunInput, mode domain.Mode) (*RunHandle, error) {
	command, err := domain.NewCommand(input.Argv, input.Dir, input.Env)
	if err != nil {
		return nil, err
	}
	proc, err := b.spawner.Spawn(ctx, command)
	if err != nil {
		b.logger.Error("spawn failed", "command", command.String(), "dir", command.Dir(), "error", err)
		if !errors.Is(err, domain.ErrSpawnFailed) {
			err = &domain.SpawnFailedError{Argv: command.Argv(), Err: err}
		}
		return nil, err
	}
	label := strings.TrimSpace(input.Label)
	if label == "" {
		label = filepath.Base(command.Program())
	}
	h := newRunHandle(b.ids.New(), label, mode, command, proc, b.clock.Now())
	b.mu.Lock()
	b.handles[h.ID] = h
	b.order = append(b.order, h.ID)
	b.mu.Unlock()

	b.logger.Info("process started", "id", h.ID, "label", label, "mode", mode, "pid", proc.PID(), "command", command.String())
	b.record(h, domain.ExitStatus{State: domain.RunStateRunning}, time.Time{})
	go b.wait(h)
	return h, nil
}

func (b *Bridge) wait(h *RunHandle) {
	status, err := h.proc.Wait()
	if err != nil {
		b.logger.Warn("wait process", "id", h.ID, "error", err)
	}
	if h.stop.Load() && status.State != domain.RunStateFailed {
		status.State = domain.RunStateCancelled
	}
	b.logger.Info("process exited", "id", h.ID, "label", h.Label, "exit_code", status.Code, "state", status.State)
	b.record(h, status, b.clock.Now())
	h.setStatus(status)
}

// pump copies output lines to emit until EOF or cancellation, then blocks
// until the exit status is known. Emission order is read order.
func (b *Bridge) pump(h *RunHandle, emit func(domain.LogLine)) {
	out := h.proc.Output()
	reader := bufio.NewReader(out)
	for {
		text, err := reader.ReadString('\n')
		if text != "" {
			if h.stop.Load() {
				break
			}
			emit(h.line(domain.LineOutput, strings.TrimRight(text, "\r\n"), b.clock.Now()))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !h.stop.Load() {
				b.logger.Warn("read output", "id", h.ID, "error", err)
				emit(h.line(domain.LineDiagnostic, "[ERROR] reading output: "+err.Error(), b.clock.Now()))
			}
			break
		}
	}
	_ = out.Close()
	<-h.exited
}

// cancel stops a run until its reader is done, not just its leader. A leader
// that was already reaped may leave children in its group holding the pipe.
func (b *Bridge) cancel(h *RunHandle) error {
	select {
	case <-h.done:
		return nil
	default:
	}
	if !h.stop.CompareAndSwap(false, true) {
		return nil
	}
	b.logger.Info("cancelling process", "id", h.ID, "label", h.Label, "pid", h.proc.PID())
	if _, reaped := h.Status(); reaped {
		if err := h.proc.Terminate(); err != nil {
			b.logger.Debug("terminate leftover group", "id", h.ID, "error", err)
		}
		_ = h.proc.Output().Close()
		return nil
	}
	if err := h.proc.Terminate(); err != nil {
		if _, reaped := h.Status(); reaped {
			_ = h.proc.Output().Close()
			return nil
		}
		b.logger.Warn("terminate failed, killing", "id", h.ID, "error", err)
		if err := h.proc.Kill(); err != nil {
			return fmt.Errorf("cancel %s: %w", h.ID, err)
		}
		return nil
	}
	if b.grace > 0 {
		go b.escalate(h)
	}
	return nil
}

// escalate kills the group when the reader is still open after the grace
// period, then closes the pipe so a child that survived cannot hold it.
func (b *Bridge) escalate(h *RunHandle) {
	timer := time.NewTimer(b.grace)
	defer timer.Stop()
	select {
	case <-h.done:
		return
	case <-timer.C:
	}
	b.logger.Warn("process ignored terminate, killing", "id", h.ID, "grace", b.grace)
	if err := h.proc.Kill(); err != nil {
		if _, reaped := h.Status(); !reaped {
			b.logger.Error("kill failed", "id", h.ID, "error", err)
		}
	}
	_ = h.proc.Output().Close()
}

func (b *Bridge) lookup(handleID string) (*RunHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.handles[handleID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, handleID)
	}
	return h, nil
}

func (b *Bridge) record(h *RunHandle, status domain.ExitStatus, finishedAt time.Time) {
	if b.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	entry := domain.HistoryEntry{
		ID:         h.ID,
		Label:      h.Label,
		Argv:       h.Command.Argv(),
		Dir:        h.Command.Dir(),
		Mode:       h.Mode,
		State:      status.State,
		ExitCode:   status.Code,
		StartedAt:  h.StartedAt,
		FinishedAt: finishedAt,
	}
	if err := b.history.Record(ctx, entry); err != nil {
		b.logger.Warn("record history", "id", h.ID, "error", err)
	}
}

type queueSink struct {
	bridge *Bridge
	label  string
	mu     sync.Mutex
	seq    int64
}

func (s *queueSink) AppendLine(text string) {
	if s.label != "" {
		text = "[" + s.label + "] " + text
	}
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()
	s.bridge.queue.push(domain.LogLine{
		Label: s.label,
		Seq:   seq,
		Kind:  domain.LineOutput,
		Text:  text,
		At:    s.bridge.clock.Now(),
	})
}
