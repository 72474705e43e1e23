package in

import (
	"context"

	"invokesigned/internal/application/dto"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type FindDerivedAddressUseCase interface {
	Execute(ctx context.Context, query dto.FindDerivedAddressQuery) (dto.DerivedAddressOutput, *apperrors.AppError)
}
