package use_cases

import (
	"context"
	"errors"

	"invokesigned/internal/application/dto"
	portsin "invokesigned/internal/application/ports/in"
	"invokesigned/internal/domain/derivation"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type findDerivedAddressUseCase struct{}

func NewFindDerivedAddressUseCase() portsin.FindDerivedAddressUseCase {
	return &findDerivedAddressUseCase{}
}

func (u *findDerivedAddressUseCase) Execute(_ context.Context, query dto.FindDerivedAddressQuery) (dto.DerivedAddressOutput, *apperrors.AppError) {
	programID, appErr := valueobjects.ParseAddress(query.ProgramID)
	if appErr != nil {
		return dto.DerivedAddressOutput{}, appErr.WithDetail("field", "program_id")
	}

	address, nonce, err := derivation.FindProgramAddress([][]byte{[]byte(query.Seed)}, programID)
	if err != nil {
		var derivationErr *derivation.DerivationError
		if errors.As(err, &derivationErr) && derivationErr.Code != derivation.CodeNoViableNonce {
			return dto.DerivedAddressOutput{}, apperrors.NewValidation(
				string(derivationErr.Code),
				derivationErr.Error(),
				map[string]any{"field": "seed"},
			)
		}
		return dto.DerivedAddressOutput{}, apperrors.NewInternal(
			"derivation_failed",
			"no nonce yields an off-curve address",
			map[string]any{"seed": query.Seed},
		)
	}

	return dto.DerivedAddressOutput{
		ProgramID: programID.String(),
		Seed:      query.Seed,
		Address:   address.String(),
		Nonce:     nonce,
	}, nil
}
