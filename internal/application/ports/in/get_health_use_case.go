package in

import (
	"context"

	"invokesigned/internal/application/dto"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type GetHealthUseCase interface {
	Execute(ctx context.Context, command dto.GetHealthCommand) (dto.HealthOutput, *apperrors.AppError)
}
