package in

import (
	"context"

	"invokesigned/internal/application/dto"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type GetCallUseCase interface {
	Execute(ctx context.Context, query dto.GetCallQuery) (dto.CallResource, *apperrors.AppError)
}
