package in

import (
	"context"

	"invokesigned/internal/application/dto"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type RequestAirdropUseCase interface {
	Execute(ctx context.Context, command dto.RequestAirdropCommand) (dto.AirdropOutput, *apperrors.AppError)
}
