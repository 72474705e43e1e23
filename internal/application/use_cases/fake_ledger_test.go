package use_cases

import (
	"context"
	"maps"

	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type fakeLedger struct {
	accounts     map[valueobjects.Address]entities.Account
	records      map[string]entities.CallRecord
	transactions int
}

func newFakeLedger(accounts ...entities.Account) *fakeLedger {
	ledger := &fakeLedger{
		accounts: map[valueobjects.Address]entities.Account{},
		records:  map[string]entities.CallRecord{},
	}
	for _, account := range accounts {
		ledger.accounts[account.Address] = account
	}
	return ledger
}

func (l *fakeLedger) WithinTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx portsout.LedgerTransaction) *apperrors.AppError,
) *apperrors.AppError {
	l.transactions++
	tx := &fakeLedgerTx{
		ledger:   l,
		accounts: maps.Clone(l.accounts),
		records:  maps.Clone(l.records),
	}
	if appErr := fn(ctx, tx); appErr != nil {
		return appErr
	}
	l.accounts = tx.accounts
	l.records = tx.records
	return nil
}

func (l *fakeLedger) FindAccount(_ context.Context, address valueobjects.Address) (entities.Account, bool, *apperrors.AppError) {
	account, ok := l.accounts[address]
	return account, ok, nil
}

func (l *fakeLedger) FindCallRecord(_ context.Context, hash string) (entities.CallRecord, bool, *apperrors.AppError) {
	record, ok := l.records[hash]
	return record, ok, nil
}

func (l *fakeLedger) balance(address valueobjects.Address) uint64 {
	return l.accounts[address].Lamports
}

type fakeLedgerTx struct {
	ledger   *fakeLedger
	accounts map[valueobjects.Address]entities.Account
	records  map[string]entities.CallRecord
}

func (tx *fakeLedgerTx) LoadAccount(_ context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	account, ok := tx.accounts[address]
	if !ok {
		return entities.NewSystemAccount(address), nil
	}
	return account, nil
}

func (tx *fakeLedgerTx) LoadAccountForUpdate(ctx context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	return tx.LoadAccount(ctx, address)
}

func (tx *fakeLedgerTx) StoreAccount(_ context.Context, account entities.Account) *apperrors.AppError {
	tx.accounts[account.Address] = account
	return nil
}

func (tx *fakeLedgerTx) FindCallRecord(_ context.Context, hash string) (entities.CallRecord, bool, *apperrors.AppError) {
	record, ok := tx.records[hash]
	return record, ok, nil
}

func (tx *fakeLedgerTx) StoreCallRecord(_ context.Context, record entities.CallRecord) *apperrors.AppError {
	if _, exists := tx.records[record.Hash]; exists {
		return apperrors.NewConflict(portsout.CodeCallRecordExists, "call record already exists", nil)
	}
	tx.records[record.Hash] = record
	return nil
}
