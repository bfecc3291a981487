package in

import (
	"context"

	"devlaunch/internal/modules/action/domain"
	"devlaunch/internal/modules/action/dto"
	runnerin "devlaunch/internal/modules/runner/port/in"
)

// ErrConfirmationRequired is returned by Dispatch for an unconfirmed
// destructive action. Callers outside the module match against it.
var ErrConfirmationRequired = domain.ErrConfirmationRequired

type Usecase interface {
	List(ctx context.Context) ([]dto.ActionInfo, error)
	Reload(ctx context.Context) ([]dto.ActionInfo, error)
	Get(ctx context.Context, key string) (dto.ActionInfo, error)
	Resolve(ctx context.Context, input dto.ResolveInput) (dto.ResolvedCommand, error)
	// Dispatch resolves and runs an action. Destructive actions fail with
	// ErrConfirmationRequired unless input.Confirmed is set.
	Dispatch(ctx context.Context, input dto.DispatchInput, sink runnerin.LogSink) (dto.DispatchResult, error)
}
