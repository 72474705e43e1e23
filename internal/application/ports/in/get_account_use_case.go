package in

import (
	"context"

	"invokesigned/internal/application/dto"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type GetAccountUseCase interface {
	Execute(ctx context.Context, query dto.GetAccountQuery) (dto.AccountResource, *apperrors.AppError)
}
