package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	runnerinadapter "devlaunch/internal/modules/runner/adapter/in"
	runneroutadapter "devlaunch/internal/modules/runner/adapter/out"
	"devlaunch/internal/modules/runner/domain"
	"devlaunch/internal/modules/runner/dto"
	runnerout "devlaunch/internal/modules/runner/port/out"
	"devlaunch/internal/modules/runner/service"
	"devlaunch/internal/platform/clock"
	"devlaunch/internal/platform/id"
)

func newBridge(t *testing.T, grace time.Duration, history *memoryHistory) *service.Bridge {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process tests rely on sh")
	}
	var store runnerout.HistoryStore
	if history != nil {
		store = history
	}
	return service.NewBridge(runneroutadapter.NewExecSpawner(), store, clock.SystemClock{}, id.UUID{}, nil, service.Options{GracePeriod: grace})
}

func sh(script string) []string {
	return []string{"sh", "-c", script}
}

// drainUntilExit polls until the exit line of handleID shows up.
func drainUntilExit(t *testing.T, bridge *service.Bridge, handleID string) []dto.LogLine {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	collected := []dto.LogLine{}
	for time.Now().Before(deadline) {
		for _, line := range bridge.Poll(context.Background()) {
			if line.HandleID != handleID {
				continue
			}
			collected = append(collected, line)
			if line.Kind == string(domain.LineExit) {
				return collected
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for exit of %s; got %d lines", handleID, len(collected))
	return nil
}

func TestRunBlockingExitZero(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, time.Second, nil)
	sink := runnerinadapter.NewBufferSink()
	result, err := bridge.RunBlocking(context.Background(), dto.RunInput{Argv: sh("echo hello; echo oops 1>&2"), Check: true}, sink)
	if err != nil {
		t.Fatalf("run blocking: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", result.ExitCode)
	}
	lines := sink.Lines()
	if len(lines) != 2 || lines[0] != "hello" || lines[1] != "oops" {
		t.Fatalf("unexpected sink lines: %q", lines)
	}
}

func TestRunBlockingNonZeroExit(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, time.Second, nil)

	_, err := bridge.RunBlocking(context.Background(), dto.RunInput{Argv: sh("exit 3"), Check: true}, runnerinadapter.NewBufferSink())
	var failed *domain.CommandFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected command failed error, got %v", err)
	}
	if failed.ExitCode != 3 || !errors.Is(err, domain.ErrCommandFailed) {
		t.Fatalf("unexpected failure: %+v", failed)
	}
	if failed.Argv[0] != "sh" {
		t.Fatalf("expected argv on failure, got %v", failed.Argv)
	}

	result, err := bridge.RunBlocking(context.Background(), dto.RunInput{Argv: sh("exit 3")}, runnerinadapter.NewBufferSink())
	if err != nil {
		t.Fatalf("unchecked run should not fail: %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", result.ExitCode)
	}
}

func TestRunBlockingSpawnFailure(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, time.Second, nil)
	_, err := bridge.RunBlocking(context.Background(), dto.RunInput{Argv: []string{"devlaunch-no-such-binary"}, Check: true}, runnerinadapter.NewBufferSink())
	if !errors.Is(err, domain.ErrSpawnFailed) {
		t.Fatalf("expected spawn failed, got %v", err)
	}
	if errors.Is(err, domain.ErrCommandFailed) {
		t.Fatalf("spawn failure must not look like a command failure")
	}

	_, err = bridge.RunBlocking(context.Background(), dto.RunInput{Argv: sh("true"), Dir: "/devlaunch/missing/dir"}, runnerinadapter.NewBufferSink())
	if !errors.Is(err, domain.ErrSpawnFailed) {
		t.Fatalf("expected spawn failed for bad dir, got %v", err)
	}
}

func TestRunBlockingContextCancel(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, time.Second, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	started := time.Now()
	result, err := bridge.RunBlocking(ctx, dto.RunInput{Argv: sh("sleep 30")}, runnerinadapter.NewBufferSink())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if result.State != string(domain.RunStateCancelled) {
		t.Fatalf("expected cancelled state, got %s", result.State)
	}
	if time.Since(started) > 5*time.Second {
		t.Fatalf("cancel took too long: %s", time.Since(started))
	}
}

func TestRunBackgroundPreservesOrder(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, time.Second, nil)
	script := `i=1; while [ $i -le 100 ]; do echo $i; i=$((i+1)); done`
	handle, err := bridge.RunBackground(context.Background(), dto.RunInput{Label: "seq", Argv: sh(script)})
	if err != nil {
		t.Fatalf("run background: %v", err)
	}
	lines := drainUntilExit(t, bridge, handle.ID)
	if len(lines) != 101 {
		t.Fatalf("expected 100 output lines and one exit line, got %d", len(lines))
	}
	for i := 0; i < 100; i++ {
		want := "[seq] " + strconv.Itoa(i+1)
		if lines[i].Text != want {
			t.Fatalf("line %d = %q, want %q", i, lines[i].Text, want)
		}
		if lines[i].Seq != int64(i+1) {
			t.Fatalf("line %d has seq %d", i, lines[i].Seq)
		}
	}
	exit := lines[100]
	if exit.ExitCode != 0 || exit.Text != "[seq] [process finished] exit_code=0" {
		t.Fatalf("unexpected exit line: %+v", exit)
	}
}

func TestRunBackgroundReportsExitOnce(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, time.Second, nil)
	handle, err := bridge.RunBackground(context.Background(), dto.RunInput{Argv: sh("echo done; exit 7")})
	if err != nil {
		t.Fatalf("run background: %v", err)
	}
	lines := drainUntilExit(t, bridge, handle.ID)
	if lines[len(lines)-1].ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %+v", lines[len(lines)-1])
	}
	time.Sleep(50 * time.Millisecond)
	for _, line := range bridge.Poll(context.Background()) {
		if line.HandleID == handle.ID && line.Kind == string(domain.LineExit) {
			t.Fatalf("exit reported twice")
		}
	}
	status, err := bridge.ExitStatus(context.Background(), handle.ID)
	if err != nil {
		t.Fatalf("exit status: %v", err)
	}
	if status.Running || status.ExitCode != 7 || status.State != string(domain.RunStateExited) {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestPollEmptyQueueReturnsPromptly(t *testing.T) {
	t.Parallel()
	bridge := service.NewBridge(&spySpawner{}, nil, clock.SystemClock{}, id.UUID{}, nil, service.Options{})
	started := time.Now()
	lines := bridge.Poll(context.Background())
	if elapsed := time.Since(started); elapsed > 10*time.Millisecond {
		t.Fatalf("poll blocked for %s", elapsed)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty poll, got %d lines", len(lines))
	}
}

func TestCancelAfterExitIsNoop(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, time.Second, nil)
	handle, err := bridge.RunBackground(context.Background(), dto.RunInput{Argv: sh("exit 0")})
	if err != nil {
		t.Fatalf("run background: %v", err)
	}
	drainUntilExit(t, bridge, handle.ID)
	for i := 0; i < 2; i++ {
		if err := bridge.Cancel(context.Background(), handle.ID); err != nil {
			t.Fatalf("cancel after exit: %v", err)
		}
	}
	status, err := bridge.ExitStatus(context.Background(), handle.ID)
	if err != nil {
		t.Fatalf("exit status: %v", err)
	}
	if status.ExitCode != 0 || status.State != string(domain.RunStateExited) {
		t.Fatalf("cancel changed a finished run: %+v", status)
	}
}

func TestCancelStopsRunningProcess(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, 2*time.Second, nil)
	handle, err := bridge.RunBackground(context.Background(), dto.RunInput{Argv: sh("echo started; sleep 30")})
	if err != nil {
		t.Fatalf("run background: %v", err)
	}
	status, err := bridge.ExitStatus(context.Background(), handle.ID)
	if err != nil || !status.Running {
		t.Fatalf("expected running status, got %+v err=%v", status, err)
	}
	if err := bridge.Cancel(context.Background(), handle.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := bridge.Cancel(context.Background(), handle.ID); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	drainUntilExit(t, bridge, handle.ID)
	status, err = bridge.ExitStatus(context.Background(), handle.ID)
	if err != nil {
		t.Fatalf("exit status: %v", err)
	}
	if status.State != string(domain.RunStateCancelled) {
		t.Fatalf("expected cancelled, got %+v", status)
	}
}

func TestCancelReachesChildrenAfterLeaderExit(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, time.Second, nil)
	script := `(while true; do echo tick; sleep 0.1; done) & echo parent-done`
	handle, err := bridge.RunBackground(context.Background(), dto.RunInput{Label: "dev", Argv: sh(script)})
	if err != nil {
		t.Fatalf("run background: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := bridge.ExitStatus(context.Background(), handle.ID)
		if err != nil {
			t.Fatalf("exit status: %v", err)
		}
		if !status.Running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("leader did not exit")
		}
		time.Sleep(10 * time.Millisecond)
	}
	waitForText(t, bridge, handle.ID, "tick")

	if err := bridge.Forget(context.Background(), handle.ID); !errors.Is(err, domain.ErrRunActive) {
		t.Fatalf("expected run to stay active while its output is open, got %v", err)
	}
	if err := bridge.Cancel(context.Background(), handle.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	drainUntilExit(t, bridge, handle.ID)
	time.Sleep(300 * time.Millisecond)
	for _, line := range bridge.Poll(context.Background()) {
		if line.HandleID == handle.ID {
			t.Fatalf("output after exit line: %q", line.Text)
		}
	}
	if err := bridge.Forget(context.Background(), handle.ID); err != nil {
		t.Fatalf("forget after cancel: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := bridge.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestReadErrorBecomesOneDiagnosticLine(t *testing.T) {
	t.Parallel()
	output := io.MultiReader(strings.NewReader("one\ntwo\n"), iotest.ErrReader(errors.New("pipe broken")))
	spawner := &fakeSpawner{proc: &fakeProcess{output: io.NopCloser(output)}}
	bridge := service.NewBridge(spawner, nil, clock.SystemClock{}, id.UUID{}, nil, service.Options{})
	handle, err := bridge.RunBackground(context.Background(), dto.RunInput{Label: "gen", Argv: []string{"gen"}})
	if err != nil {
		t.Fatalf("run background: %v", err)
	}
	lines := drainUntilExit(t, bridge, handle.ID)
	if len(lines) != 4 {
		t.Fatalf("expected two output lines, one diagnostic and the exit line, got %+v", lines)
	}
	if lines[0].Text != "[gen] one" || lines[1].Text != "[gen] two" {
		t.Fatalf("unexpected output lines: %+v", lines[:2])
	}
	diag := lines[2]
	if diag.Kind != string(domain.LineDiagnostic) || diag.Text != "[gen] [ERROR] reading output: pipe broken" {
		t.Fatalf("unexpected diagnostic line: %+v", diag)
	}
	if lines[3].Kind != string(domain.LineExit) || lines[3].ExitCode != 0 {
		t.Fatalf("unexpected exit line: %+v", lines[3])
	}
}

func TestCancelEscalatesWhenTerminateIgnored(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, 200*time.Millisecond, nil)
	handle, err := bridge.RunBackground(context.Background(), dto.RunInput{Argv: sh(`trap "" TERM; echo ready; sleep 30`)})
	if err != nil {
		t.Fatalf("run background: %v", err)
	}
	waitForText(t, bridge, handle.ID, "ready")
	started := time.Now()
	if err := bridge.Cancel(context.Background(), handle.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	lines := drainUntilExit(t, bridge, handle.ID)
	if time.Since(started) > 5*time.Second {
		t.Fatalf("escalation took too long: %s", time.Since(started))
	}
	if lines[len(lines)-1].ExitCode != -1 {
		t.Fatalf("expected killed exit code -1, got %d", lines[len(lines)-1].ExitCode)
	}
}

func TestUnknownHandle(t *testing.T) {
	t.Parallel()
	bridge := service.NewBridge(&spySpawner{}, nil, clock.SystemClock{}, id.UUID{}, nil, service.Options{})
	if err := bridge.Cancel(context.Background(), "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Fatalf("expected run not found, got %v", err)
	}
	if _, err := bridge.ExitStatus(context.Background(), "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Fatalf("expected run not found, got %v", err)
	}
}

func TestQueueSinkFeedsPoll(t *testing.T) {
	t.Parallel()
	bridge := service.NewBridge(&spySpawner{}, nil, clock.SystemClock{}, id.UUID{}, nil, service.Options{})
	sink := bridge.QueueSink("build")
	sink.AppendLine("first")
	sink.AppendLine("second")
	bridge.QueueSink("").AppendLine("plain")
	lines := bridge.Poll(context.Background())
	got := []string{}
	for _, line := range lines {
		got = append(got, line.Text)
	}
	want := "[build] first|[build] second|plain"
	if strings.Join(got, "|") != want {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestHistoryAndForget(t *testing.T) {
	t.Parallel()
	history := &memoryHistory{entries: map[string]domain.HistoryEntry{}}
	bridge := newBridge(t, time.Second, history)
	result, err := bridge.RunBlocking(context.Background(), dto.RunInput{Label: "lint", Argv: sh("exit 0")}, runnerinadapter.NewBufferSink())
	if err != nil {
		t.Fatalf("run blocking: %v", err)
	}
	entries, err := bridge.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 || entries[0].Label != "lint" || entries[0].State != string(domain.RunStateExited) {
		t.Fatalf("unexpected history: %+v", entries)
	}
	if entries[0].Command != "sh -c exit 0" {
		t.Fatalf("unexpected command: %s", entries[0].Command)
	}

	handles := bridge.Handles(context.Background())
	if len(handles) != 1 || handles[0].ID != result.HandleID || handles[0].Running {
		t.Fatalf("unexpected handles: %+v", handles)
	}
	if err := bridge.Forget(context.Background(), result.HandleID); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if len(bridge.Handles(context.Background())) != 0 {
		t.Fatalf("expected handle table to be empty")
	}
}

func TestShutdownCancelsLiveRuns(t *testing.T) {
	t.Parallel()
	bridge := newBridge(t, time.Second, nil)
	for i := 0; i < 3; i++ {
		if _, err := bridge.RunBackground(context.Background(), dto.RunInput{Argv: sh("sleep 30")}); err != nil {
			t.Fatalf("run background %d: %v", i, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bridge.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	for _, h := range bridge.Handles(context.Background()) {
		if h.Running {
			t.Fatalf("handle %s still running after shutdown", h.ID)
		}
	}
}

func waitForText(t *testing.T, bridge *service.Bridge, handleID, suffix string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		for _, line := range bridge.Poll(context.Background()) {
			if line.HandleID == handleID && strings.HasSuffix(line.Text, suffix) {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q", suffix)
}

type spySpawner struct {
	mu    sync.Mutex
	calls int
}

func (s *spySpawner) Spawn(_ context.Context, command domain.Command) (runnerout.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil, fmt.Errorf("spy spawner does not start %s", command.Program())
}

type fakeSpawner struct {
	proc *fakeProcess
}

func (s *fakeSpawner) Spawn(context.Context, domain.Command) (runnerout.Process, error) {
	return s.proc, nil
}

// fakeProcess exits cleanly as soon as it is waited on.
type fakeProcess struct {
	output io.ReadCloser
}

func (p *fakeProcess) PID() int { return 4242 }
func (p *fakeProcess) Output() io.ReadCloser { return p.output }
func (p *fakeProcess) Terminate() error { return nil }
func (p *fakeProcess) Kill() error { return nil }
func (p *fakeProcess) Wait() (domain.ExitStatus, error) {
	return domain.ExitStatus{Code: 0, State: domain.RunStateExited}, nil
}

type memoryHistory struct {
	mu      sync.Mutex
	entries map[string]domain.HistoryEntry
}

func (m *memoryHistory) Record(_ context.Context, entry domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

func (m *memoryHistory) List(_ context.Context, _ int) ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.HistoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}
