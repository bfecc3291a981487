package usecase

import (
	"context"

	"devlaunch/internal/modules/plugin/dto"
	pluginin "devlaunch/internal/modules/plugin/port/in"
	"devlaunch/internal/modules/plugin/service"
)

type Interactor struct {
	svc *service.PluginService
}

func NewInteractor(svc *service.PluginService) pluginin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.PluginInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) ListActions(ctx context.Context, pluginName string) ([]dto.ActionInfo, error) {
	return i.svc.ListActions(ctx, pluginName)
}
