package in

import (
	"context"

	"devlaunch/internal/modules/runner/dto"
	runnerin "devlaunch/internal/modules/runner/port/in"
)

type CLIHandler struct {
	usecase runnerin.Usecase
}

func NewCLIHandler(usecase runnerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) RunBlocking(ctx context.Context, input dto.RunInput, sink runnerin.LogSink) (dto.RunResult, error) {
	return h.usecase.RunBlocking(ctx, input, sink)
}

func (h CLIHandler) RunBackground(ctx context.Context, input dto.RunInput) (dto.HandleInfo, error) {
	return h.usecase.RunBackground(ctx, input)
}

func (h CLIHandler) Poll(ctx context.Context) []dto.LogLine {
	return h.usecase.Poll(ctx)
}

func (h CLIHandler) Cancel(ctx context.Context, handleID string) error {
	return h.usecase.Cancel(ctx, handleID)
}

func (h CLIHandler) ExitStatus(ctx context.Context, handleID string) (dto.ExitStatus, error) {
	return h.usecase.ExitStatus(ctx, handleID)
}

func (h CLIHandler) Handles(ctx context.Context) []dto.HandleInfo {
	return h.usecase.Handles(ctx)
}

func (h CLIHandler) Forget(ctx context.Context, handleID string) error {
	return h.usecase.Forget(ctx, handleID)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.HistoryEntry, error) {
	return h.usecase.History(ctx, limit)
}

func (h CLIHandler) QueueSink(label string) runnerin.LogSink {
	return h.usecase.QueueSink(label)
}

func (h CLIHandler) Shutdown(ctx context.Context) error {
	return h.usecase.Shutdown(ctx)
}
