package usecase

import (
	"context"

	"devlaunch/internal/modules/runner/dto"
	runnerin "devlaunch/internal/modules/runner/port/in"
	"devlaunch/internal/modules/runner/service"
)

type Interactor struct {
	svc *service.Bridge
}

func NewInteractor(svc *service.Bridge) runnerin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) RunBlocking(ctx context.Context, input dto.RunInput, sink runnerin.LogSink) (dto.RunResult, error) {
	return i.svc.RunBlocking(ctx, input, sink)
}

func (i *Interactor) RunBackground(ctx context.Context, input dto.RunInput) (dto.HandleInfo, error) {
	return i.svc.RunBackground(ctx, input)
}

func (i *Interactor) Poll(ctx context.Context) []dto.LogLine {
	return i.svc.Poll(ctx)
}

func (i *Interactor) Cancel(ctx context.Context, handleID string) error {
	return i.svc.Cancel(ctx, handleID)
}

func (i *Interactor) ExitStatus(ctx context.Context, handleID string) (dto.ExitStatus, error) {
	return i.svc.ExitStatus(ctx, handleID)
}

func (i *Interactor) Handles(ctx context.Context) []dto.HandleInfo {
	return i.svc.Handles(ctx)
}

func (i *Interactor) Forget(ctx context.Context, handleID string) error {
	return i.svc.Forget(ctx, handleID)
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.HistoryEntry, error) {
	return i.svc.History(ctx, limit)
}

func (i *Interactor) QueueSink(label string) runnerin.LogSink {
	return i.svc.QueueSink(label)
}

func (i *Interactor) Shutdown(ctx context.Context) error {
	return i.svc.Shutdown(ctx)
}
