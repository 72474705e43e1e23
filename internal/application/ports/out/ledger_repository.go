package out

import (
	"context"

	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

// AccountStore is the account view a call executes against. Accounts that
// were never stored load as zero-lamport system accounts.
type AccountStore interface {
	LoadAccount(ctx context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError)
	LoadAccountForUpdate(ctx context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError)
	StoreAccount(ctx context.Context, account entities.Account) *apperrors.AppError
}

// LedgerTransaction is one atomic unit of ledger work. Nothing it stores is
// visible until the surrounding WithinTransaction callback returns nil.
type LedgerTransaction interface {
	AccountStore
	FindCallRecord(ctx context.Context, hash string) (entities.CallRecord, bool, *apperrors.AppError)
	StoreCallRecord(ctx context.Context, record entities.CallRecord) *apperrors.AppError
}

type LedgerRepository interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx LedgerTransaction) *apperrors.AppError) *apperrors.AppError
	FindAccount(ctx context.Context, address valueobjects.Address) (entities.Account, bool, *apperrors.AppError)
	FindCallRecord(ctx context.Context, hash string) (entities.CallRecord, bool, *apperrors.AppError)
}

// Duplicate call records surface from StoreCallRecord with this code.
const CodeCallRecordExists = "call_record_exists"
