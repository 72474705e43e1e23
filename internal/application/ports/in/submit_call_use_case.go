package in

import (
	"context"

	"invokesigned/internal/application/dto"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type SubmitCallUseCase interface {
	Execute(ctx context.Context, command dto.SubmitCallCommand) (dto.SubmitCallOutput, *apperrors.AppError)
}
