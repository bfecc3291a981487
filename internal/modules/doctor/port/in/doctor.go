package in

import (
	"context"

	"devlaunch/internal/modules/doctor/dto"
)

type Usecase interface {
	SelfCheck(ctx context.Context) (dto.Report, error)
}
