// Package memory keeps the ledger in process memory. Transactions are
// serialized behind one lock and staged in an overlay until commit.
package memory

import (
	"context"
	"sync"

	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type Ledger struct {
	mu       sync.RWMutex
	writeMu  sync.Mutex
	accounts map[valueobjects.Address]entities.Account
	records  map[string]entities.CallRecord
}

var (
	_ portsout.LedgerRepository            = (*Ledger)(nil)
	_ portsout.PersistenceBootstrapGateway = (*Ledger)(nil)
)

func NewLedger() *Ledger {
	return &Ledger{
		accounts: map[valueobjects.Address]entities.Account{},
		records:  map[string]entities.CallRecord{},
	}
}

func (l *Ledger) WithinTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx portsout.LedgerTransaction) *apperrors.AppError,
) *apperrors.AppError {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	tx := &transaction{
		ledger:   l,
		accounts: map[valueobjects.Address]entities.Account{},
		records:  map[string]entities.CallRecord{},
	}
	if appErr := fn(ctx, tx); appErr != nil {
		return appErr
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewInternal("ledger_tx_canceled", "ledger transaction canceled", map[string]any{"error": err.Error()})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for address, account := range tx.accounts {
		l.accounts[address] = account
	}
	for hash, record := range tx.records {
		l.records[hash] = record
	}
	return nil
}

func (l *Ledger) FindAccount(_ context.Context, address valueobjects.Address) (entities.Account, bool, *apperrors.AppError) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	account, ok := l.accounts[address]
	return account, ok, nil
}

func (l *Ledger) FindCallRecord(_ context.Context, hash string) (entities.CallRecord, bool, *apperrors.AppError) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record, ok := l.records[hash]
	return record, ok, nil
}

func (l *Ledger) CheckReadiness(context.Context) *apperrors.AppError {
	return nil
}

func (l *Ledger) RunMigrations(context.Context) *apperrors.AppError {
	return nil
}

func (l *Ledger) SeedAccounts(_ context.Context, accounts []entities.Account) *apperrors.AppError {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, account := range accounts {
		if _, exists := l.accounts[account.Address]; exists {
			continue
		}
		l.accounts[account.Address] = account
	}
	return nil
}

type transaction struct {
	ledger   *Ledger
	accounts map[valueobjects.Address]entities.Account
	records  map[string]entities.CallRecord
}

func (t *transaction) LoadAccount(_ context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	if account, ok := t.accounts[address]; ok {
		return account, nil
	}
	account, found, _ := t.ledger.FindAccount(context.Background(), address)
	if !found {
		return entities.NewSystemAccount(address), nil
	}
	return account, nil
}

// LoadAccountForUpdate needs no row lock: the transaction already holds the
// ledger's write lock.
func (t *transaction) LoadAccountForUpdate(ctx context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	return t.LoadAccount(ctx, address)
}

func (t *transaction) StoreAccount(_ context.Context, account entities.Account) *apperrors.AppError {
	t.accounts[account.Address] = account
	return nil
}

func (t *transaction) FindCallRecord(ctx context.Context, hash string) (entities.CallRecord, bool, *apperrors.AppError) {
	if record, ok := t.records[hash]; ok {
		return record, true, nil
	}
	return t.ledger.FindCallRecord(ctx, hash)
}

func (t *transaction) StoreCallRecord(ctx context.Context, record entities.CallRecord) *apperrors.AppError {
	if _, found, _ := t.FindCallRecord(ctx, record.Hash); found {
		return apperrors.NewConflict(
			portsout.CodeCallRecordExists,
			"call record already exists",
			map[string]any{"call_hash": record.Hash},
		)
	}
	t.records[record.Hash] = record
	return nil
}
