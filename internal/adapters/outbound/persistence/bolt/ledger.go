// Package bolt persists the ledger in a single bbolt file. Each ledger
// transaction is one bbolt read-write transaction, so writers serialize.
package bolt

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	bucketAccounts    = []byte("accounts_by_address")
	bucketCallRecords = []byte("call_records_by_hash")
)

type Ledger struct {
	path   string
	db     *bolt.DB
	logger *zap.Logger
}

var (
	_ portsout.LedgerRepository            = (*Ledger)(nil)
	_ portsout.PersistenceBootstrapGateway = (*Ledger)(nil)
)

func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt path required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create bolt dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	logger.Info("bolt ledger opened", zap.String("path", path))
	return &Ledger{path: path, db: db, logger: logger}, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Ledger) CheckReadiness(context.Context) *apperrors.AppError {
	if err := l.db.View(func(*bolt.Tx) error { return nil }); err != nil {
		return apperrors.NewInternal(
			"DB_CONNECT_FAILED",
			"bolt ledger is not readable",
			map[string]any{"path": l.path, "error": err.Error()},
		)
	}
	return nil
}

// RunMigrations creates the buckets. It is safe to run on every start.
func (l *Ledger) RunMigrations(context.Context) *apperrors.AppError {
	err := l.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketAccounts, bucketCallRecords} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	})
	if err != nil {
		l.logger.Error("bolt bucket setup failed", zap.Error(err))
		return apperrors.NewInternal(
			"DB_MIGRATION_APPLY_FAILED",
			"failed to create bolt buckets",
			map[string]any{"path": l.path},
		)
	}
	return nil
}

func (l *Ledger) SeedAccounts(_ context.Context, accounts []entities.Account) *apperrors.AppError {
	seeded := 0
	err := l.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketAccounts)
		if bucket == nil {
			return fmt.Errorf("bucket %s missing", string(bucketAccounts))
		}
		for _, account := range accounts {
			if bucket.Get(account.Address[:]) != nil {
				continue
			}
			if err := bucket.Put(account.Address[:], encodeAccount(account)); err != nil {
				return err
			}
			seeded++
		}
		return nil
	})
	if err != nil {
		return apperrors.NewInternal(
			"DB_GENESIS_APPLY_FAILED",
			"failed to apply genesis accounts",
			map[string]any{"error": err.Error()},
		)
	}

	l.logger.Info("genesis applied", zap.Int("seeded", seeded), zap.Int("listed", len(accounts)))
	return nil
}

func (l *Ledger) WithinTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx portsout.LedgerTransaction) *apperrors.AppError,
) *apperrors.AppError {
	err := l.db.Update(func(btx *bolt.Tx) error {
		if appErr := fn(ctx, &transaction{tx: btx}); appErr != nil {
			return appErr
		}
		return ctx.Err()
	})
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return apperrors.NewInternal(
		"ledger_tx_commit_failed",
		"failed to commit ledger transaction",
		map[string]any{"error": err.Error()},
	)
}

func (l *Ledger) FindAccount(_ context.Context, address valueobjects.Address) (account entities.Account, found bool, appErr *apperrors.AppError) {
	err := l.db.View(func(tx *bolt.Tx) error {
		var err error
		account, found, err = getAccount(tx, address)
		return err
	})
	if err != nil {
		return entities.Account{}, false, accountReadError(address, err)
	}
	return account, found, nil
}

func (l *Ledger) FindCallRecord(_ context.Context, hash string) (record entities.CallRecord, found bool, appErr *apperrors.AppError) {
	err := l.db.View(func(tx *bolt.Tx) error {
		var err error
		record, found, err = getCallRecord(tx, hash)
		return err
	})
	if err != nil {
		return entities.CallRecord{}, false, callRecordReadError(hash, err)
	}
	return record, found, nil
}

type transaction struct {
	tx *bolt.Tx
}

func (t *transaction) LoadAccount(_ context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	account, found, err := getAccount(t.tx, address)
	if err != nil {
		return entities.Account{}, accountReadError(address, err)
	}
	if !found {
		return entities.NewSystemAccount(address), nil
	}
	return account, nil
}

func (t *transaction) LoadAccountForUpdate(ctx context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	return t.LoadAccount(ctx, address)
}

func (t *transaction) StoreAccount(_ context.Context, account entities.Account) *apperrors.AppError {
	if err := t.tx.Bucket(bucketAccounts).Put(account.Address[:], encodeAccount(account)); err != nil {
		return apperrors.NewInternal(
			"account_store_failed",
			"failed to store account",
			map[string]any{"error": err.Error(), "address": account.Address.String()},
		)
	}
	return nil
}

func (t *transaction) FindCallRecord(_ context.Context, hash string) (entities.CallRecord, bool, *apperrors.AppError) {
	record, found, err := getCallRecord(t.tx, hash)
	if err != nil {
		return entities.CallRecord{}, false, callRecordReadError(hash, err)
	}
	return record, found, nil
}

func (t *transaction) StoreCallRecord(_ context.Context, record entities.CallRecord) *apperrors.AppError {
	bucket := t.tx.Bucket(bucketCallRecords)
	if bucket.Get([]byte(record.Hash)) != nil {
		return apperrors.NewConflict(
			portsout.CodeCallRecordExists,
			"call record already exists",
			map[string]any{"call_hash": record.Hash},
		)
	}

	value, err := encodeCallRecord(record)
	if err == nil {
		err = bucket.Put([]byte(record.Hash), value)
	}
	if err != nil {
		return apperrors.NewInternal(
			"call_record_store_failed",
			"failed to store call record",
			map[string]any{"error": err.Error(), "call_hash": record.Hash},
		)
	}
	return nil
}

func getAccount(tx *bolt.Tx, address valueobjects.Address) (entities.Account, bool, error) {
	bucket := tx.Bucket(bucketAccounts)
	if bucket == nil {
		return entities.Account{}, false, fmt.Errorf("bucket %s missing", string(bucketAccounts))
	}
	raw := bucket.Get(address[:])
	if raw == nil {
		return entities.Account{}, false, nil
	}
	account, err := decodeAccount(address, raw)
	if err != nil {
		return entities.Account{}, false, err
	}
	return account, true, nil
}

func getCallRecord(tx *bolt.Tx, hash string) (entities.CallRecord, bool, error) {
	bucket := tx.Bucket(bucketCallRecords)
	if bucket == nil {
		return entities.CallRecord{}, false, fmt.Errorf("bucket %s missing", string(bucketCallRecords))
	}
	raw := bucket.Get([]byte(hash))
	if raw == nil {
		return entities.CallRecord{}, false, nil
	}
	record, err := decodeCallRecord(hash, raw)
	if err != nil {
		return entities.CallRecord{}, false, err
	}
	return record, true, nil
}

func accountReadError(address valueobjects.Address, err error) *apperrors.AppError {
	return apperrors.NewInternal(
		"account_query_failed",
		"failed to read account",
		map[string]any{"error": err.Error(), "address": address.String()},
	)
}

func callRecordReadError(hash string, err error) *apperrors.AppError {
	return apperrors.NewInternal(
		"call_record_query_failed",
		"failed to read call record",
		map[string]any{"error": err.Error(), "call_hash": hash},
	)
}
