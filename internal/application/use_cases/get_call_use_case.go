package use_cases

import (
	"context"
	"strings"

	"invokesigned/internal/application/dto"
	portsin "invokesigned/internal/application/ports/in"
	portsout "invokesigned/internal/application/ports/out"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type getCallUseCase struct {
	repository portsout.LedgerRepository
}

func NewGetCallUseCase(repository portsout.LedgerRepository) portsin.GetCallUseCase {
	return &getCallUseCase{repository: repository}
}

func (u *getCallUseCase) Execute(ctx context.Context, query dto.GetCallQuery) (dto.CallResource, *apperrors.AppError) {
	if u.repository == nil {
		return dto.CallResource{}, apperrors.NewInternal("ledger_repository_missing", "ledger repository is required", nil)
	}

	hash := strings.TrimSpace(query.Hash)
	if decoded, err := valueobjects.DecodeBase58(hash); err != nil || len(decoded) != 32 {
		return dto.CallResource{}, apperrors.NewValidation(
			"invalid_call_hash",
			"call hash must be a base58 encoded sha256 digest",
			map[string]any{"hash": hash},
		)
	}

	record, found, appErr := u.repository.FindCallRecord(ctx, hash)
	if appErr != nil {
		return dto.CallResource{}, appErr
	}
	if !found {
		return dto.CallResource{}, apperrors.NewNotFound(
			"call_not_found",
			"call not found",
			map[string]any{"hash": hash},
		)
	}

	return toCallResource(record), nil
}
