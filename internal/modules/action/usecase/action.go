package usecase

import (
	"context"
	"fmt"
	"strings"

	"devlaunch/internal/modules/action/domain"
	"devlaunch/internal/modules/action/dto"
	actionin "devlaunch/internal/modules/action/port/in"
	"devlaunch/internal/modules/action/service"
	runnerdto "devlaunch/internal/modules/runner/dto"
	runnerin "devlaunch/internal/modules/runner/port/in"
)

const bannerRule = "=========================================================================================="

type Interactor struct {
	svc    *service.ActionService
	runner runnerin.Usecase
}

func NewInteractor(svc *service.ActionService, runner runnerin.Usecase) actionin.Usecase {
	return &Interactor{svc: svc, runner: runner}
}

func (i *Interactor) List(ctx context.Context) ([]dto.ActionInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Reload(ctx context.Context) ([]dto.ActionInfo, error) {
	return i.svc.Reload(ctx)
}

func (i *Interactor) Get(ctx context.Context, key string) (dto.ActionInfo, error) {
	return i.svc.Get(ctx, key)
}

func (i *Interactor) Resolve(ctx context.Context, input dto.ResolveInput) (dto.ResolvedCommand, error) {
	return i.svc.Resolve(ctx, input)
}

func (i *Interactor) Dispatch(ctx context.Context, input dto.DispatchInput, sink runnerin.LogSink) (dto.DispatchResult, error) {
	resolved, err := i.svc.Resolve(ctx, dto.ResolveInput{Key: input.Key, Option: input.Option, Param: input.Param})
	if err != nil {
		return dto.DispatchResult{}, err
	}
	if resolved.Destructive && !input.Confirmed {
		return dto.DispatchResult{Command: resolved}, fmt.Errorf("%w: %s", domain.ErrConfirmationRequired, resolved.Label)
	}
	run := runnerdto.RunInput{
		Label: resolved.Label,
		Argv:  resolved.Argv,
		Dir:   resolved.Dir,
		Env:   resolved.Env,
		Check: resolved.Check,
	}
	background := input.Background || resolved.Background
	if sink == nil {
		sink = i.runner.QueueSink(resolved.Label)
	}
	writeBanner(sink, resolved)
	if background {
		handle, err := i.runner.RunBackground(ctx, run)
		if err != nil {
			return dto.DispatchResult{Command: resolved, Background: true}, err
		}
		return dto.DispatchResult{Command: resolved, HandleID: handle.ID, Background: true}, nil
	}
	result, err := i.runner.RunBlocking(ctx, run, sink)
	return dto.DispatchResult{Command: resolved, HandleID: result.HandleID, ExitCode: result.ExitCode}, err
}

func writeBanner(sink runnerin.LogSink, resolved dto.ResolvedCommand) {
	sink.AppendLine(bannerRule)
	sink.AppendLine(fmt.Sprintf("Action: %s :: %s", resolved.Category, resolved.Label))
	if resolved.Param != "" {
		sink.AppendLine("Parameter: " + resolved.Param)
	}
	sink.AppendLine("$ " + strings.Join(resolved.Argv, " "))
	sink.AppendLine(bannerRule)
}
