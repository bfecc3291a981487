package in

import (
	"context"

	"devlaunch/internal/modules/runner/dto"
)

// LogSink receives one output line at a time, without the trailing newline.
type LogSink interface {
	AppendLine(text string)
}

type Usecase interface {
	RunBlocking(ctx context.Context, input dto.RunInput, sink LogSink) (dto.RunResult, error)
	RunBackground(ctx context.Context, input dto.RunInput) (dto.HandleInfo, error)
	Poll(ctx context.Context) []dto.LogLine
	Cancel(ctx context.Context, handleID string) error
	ExitStatus(ctx context.Context, handleID string) (dto.ExitStatus, error)
	Handles(ctx context.Context) []dto.HandleInfo
	Forget(ctx context.Context, handleID string) error
	History(ctx context.Context, limit int) ([]dto.HistoryEntry, error)
	QueueSink(label string) LogSink
	Shutdown(ctx context.Context) error
}
