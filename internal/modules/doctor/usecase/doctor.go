package usecase

import (
	"context"

	"devlaunch/internal/modules/doctor/dto"
	doctorin "devlaunch/internal/modules/doctor/port/in"
	"devlaunch/internal/modules/doctor/service"
)

type Interactor struct {
	svc *service.DoctorService
}

func NewInteractor(svc *service.DoctorService) doctorin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) SelfCheck(ctx context.Context) (dto.Report, error) {
	return i.svc.SelfCheck(ctx)
}
