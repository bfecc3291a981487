package in

import (
	"context"

	"devlaunch/internal/modules/plugin/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]dto.PluginInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	ListActions(ctx context.Context, pluginName string) ([]dto.ActionInfo, error)
}
