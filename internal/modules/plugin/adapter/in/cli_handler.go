package in

import (
	"context"

	"devlaunch/internal/modules/plugin/dto"
	pluginin "devlaunch/internal/modules/plugin/port/in"
)

type CLIHandler struct {
	usecase pluginin.Usecase
}

func NewCLIHandler(usecase pluginin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.PluginInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}

func (h CLIHandler) ListActions(ctx context.Context, pluginName string) ([]dto.ActionInfo, error) {
	return h.usecase.ListActions(ctx, pluginName)
}
