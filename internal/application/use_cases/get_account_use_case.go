package use_cases

import (
	"context"

	"invokesigned/internal/application/dto"
	portsin "invokesigned/internal/application/ports/in"
	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type getAccountUseCase struct {
	repository portsout.LedgerRepository
}

func NewGetAccountUseCase(repository portsout.LedgerRepository) portsin.GetAccountUseCase {
	return &getAccountUseCase{repository: repository}
}

// Execute reports unknown addresses as empty system accounts, matching how
// the runtime loads them.
func (u *getAccountUseCase) Execute(ctx context.Context, query dto.GetAccountQuery) (dto.AccountResource, *apperrors.AppError) {
	if u.repository == nil {
		return dto.AccountResource{}, apperrors.NewInternal("ledger_repository_missing", "ledger repository is required", nil)
	}

	address, appErr := valueobjects.ParseAddress(query.Address)
	if appErr != nil {
		return dto.AccountResource{}, appErr
	}

	account, found, appErr := u.repository.FindAccount(ctx, address)
	if appErr != nil {
		return dto.AccountResource{}, appErr
	}
	if !found {
		account = entities.NewSystemAccount(address)
	}

	return toAccountResource(account), nil
}
