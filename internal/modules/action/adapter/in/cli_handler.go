package in

import (
	"context"

	"devlaunch/internal/modules/action/dto"
	actionin "devlaunch/internal/modules/action/port/in"
	runnerin "devlaunch/internal/modules/runner/port/in"
)

type CLIHandler struct {
	usecase actionin.Usecase
}

func NewCLIHandler(usecase actionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.ActionInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Reload(ctx context.Context) ([]dto.ActionInfo, error) {
	return h.usecase.Reload(ctx)
}

func (h CLIHandler) Get(ctx context.Context, key string) (dto.ActionInfo, error) {
	return h.usecase.Get(ctx, key)
}

func (h CLIHandler) Resolve(ctx context.Context, input dto.ResolveInput) (dto.ResolvedCommand, error) {
	return h.usecase.Resolve(ctx, input)
}

func (h CLIHandler) Dispatch(ctx context.Context, input dto.DispatchInput, sink runnerin.LogSink) (dto.DispatchResult, error) {
	return h.usecase.Dispatch(ctx, input, sink)
}
