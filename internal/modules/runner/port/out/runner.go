package out

import (
	"context"
	"io"

	"devlaunch/internal/modules/runner/domain"
)

type Spawner interface {
	Spawn(ctx context.Context, command domain.Command) (Process, error)
}

// Process is a started OS process. Output yields stdout and stderr combined
// and reaches EOF once every holder of the write side has exited.
type Process interface {
	PID() int
	Output() io.ReadCloser
	Wait() (domain.ExitStatus, error)
	Terminate() error
	Kill() error
}

type HistoryStore interface {
	Record(ctx context.Context, entry domain.HistoryEntry) error
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}
