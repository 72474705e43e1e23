package ledger

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"

	"invokesigned/internal/adapters/outbound/persistence/postgresql/shared"
	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"go.uber.org/zap"
)

type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ portsout.LedgerRepository = (*Repository)(nil)

func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

// WithinTransaction runs fn inside one READ COMMITTED transaction. Accounts
// loaded for update stay row-locked until it commits or rolls back.
func (r *Repository) WithinTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx portsout.LedgerTransaction) *apperrors.AppError,
) *apperrors.AppError {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperrors.NewInternal(
			"ledger_tx_begin_failed",
			"failed to start ledger transaction",
			map[string]any{"error": err.Error()},
		)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if appErr := fn(ctx, &transaction{tx: tx}); appErr != nil {
		return appErr
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("ledger transaction commit failed", zap.Error(err))
		return apperrors.NewInternal(
			"ledger_tx_commit_failed",
			"failed to commit ledger transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed = true

	return nil
}

func (r *Repository) FindAccount(ctx context.Context, address valueobjects.Address) (entities.Account, bool, *apperrors.AppError) {
	return findAccount(ctx, r.db, address, false)
}

func (r *Repository) FindCallRecord(ctx context.Context, hash string) (entities.CallRecord, bool, *apperrors.AppError) {
	return findCallRecord(ctx, r.db, hash)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type transaction struct {
	tx *sql.Tx
}

func (t *transaction) LoadAccount(ctx context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	account, found, appErr := findAccount(ctx, t.tx, address, false)
	if appErr != nil {
		return entities.Account{}, appErr
	}
	if !found {
		return entities.NewSystemAccount(address), nil
	}
	return account, nil
}

// LoadAccountForUpdate materializes a zero-lamport row for unknown addresses
// first, so concurrent writers to a fresh account serialize on its row lock.
func (t *transaction) LoadAccountForUpdate(ctx context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	const insertSQL = `
INSERT INTO app.accounts (address, lamports, owner, executable)
VALUES ($1, 0, $2, FALSE)
ON CONFLICT (address) DO NOTHING
`
	if _, err := t.tx.ExecContext(ctx, insertSQL, address.String(), valueobjects.SystemProgramAddress.String()); err != nil {
		return entities.Account{}, apperrors.NewInternal(
			"account_materialize_failed",
			"failed to materialize account",
			map[string]any{"error": err.Error(), "address": address.String()},
		)
	}

	account, found, appErr := findAccount(ctx, t.tx, address, true)
	if appErr != nil {
		return entities.Account{}, appErr
	}
	if !found {
		return entities.Account{}, apperrors.NewInternal(
			"account_lock_failed",
			"account row vanished while locking",
			map[string]any{"address": address.String()},
		)
	}
	return account, nil
}

func (t *transaction) StoreAccount(ctx context.Context, account entities.Account) *apperrors.AppError {
	const upsertSQL = `
INSERT INTO app.accounts (address, lamports, owner, executable)
VALUES ($1, $2::numeric, $3, $4)
ON CONFLICT (address) DO UPDATE
SET lamports = EXCLUDED.lamports,
    owner = EXCLUDED.owner,
    executable = EXCLUDED.executable,
    updated_at = now()
`
	_, err := t.tx.ExecContext(
		ctx,
		upsertSQL,
		account.Address.String(),
		strconv.FormatUint(account.Lamports, 10),
		account.Owner.String(),
		account.Executable,
	)
	if err != nil {
		return apperrors.NewInternal(
			"account_store_failed",
			"failed to store account",
			map[string]any{"error": err.Error(), "address": account.Address.String()},
		)
	}
	return nil
}

func (t *transaction) FindCallRecord(ctx context.Context, hash string) (entities.CallRecord, bool, *apperrors.AppError) {
	return findCallRecord(ctx, t.tx, hash)
}

func (t *transaction) StoreCallRecord(ctx context.Context, record entities.CallRecord) *apperrors.AppError {
	const insertSQL = `
INSERT INTO app.call_records (hash, kind, status, error_type, error_code, error_message, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := t.tx.ExecContext(
		ctx,
		insertSQL,
		record.Hash,
		record.Kind,
		string(record.Status),
		nullString(record.ErrorType),
		nullString(record.ErrorCode),
		nullString(record.ErrorMessage),
		record.ProcessedAt,
	)
	if shared.IsUniqueViolation(err) {
		return apperrors.NewConflict(
			portsout.CodeCallRecordExists,
			"call record already exists",
			map[string]any{"call_hash": record.Hash},
		)
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

func findAccount(ctx context.Context, q queryer, address valueobjects.Address, forUpdate bool) (entities.Account, bool, *apperrors.AppError) {
	query := `
SELECT lamports::text, owner, executable
FROM app.accounts
WHERE address = $1
`
	if forUpdate {
		query += "FOR UPDATE\n"
	}

	var (
		rawLamports string
		rawOwner    string
		executable  bool
	)
	err := q.QueryRowContext(ctx, query, address.String()).Scan(&rawLamports, &rawOwner, &executable)
	if stderrors.Is(err, sql.ErrNoRows) {
		return entities.Account{}, false, nil
	}
	if err != nil {
		return entities.Account{}, false, apperrors.NewInternal(
			"account_query_failed",
			"failed to query account",
			map[string]any{"error": err.Error(), "address": address.String()},
		)
	}

	lamports, parseErr := strconv.ParseUint(rawLamports, 10, 64)
	if parseErr != nil {
		return entities.Account{}, false, apperrors.NewInternal(
			"account_row_invalid",
			"stored lamports are not a valid u64",
			map[string]any{"address": address.String(), "lamports": rawLamports},
		)
	}
	owner, appErr := valueobjects.ParseAddress(rawOwner)
	if appErr != nil {
		return entities.Account{}, false, apperrors.NewInternal(
			"account_row_invalid",
			"stored owner is not a valid address",
			map[string]any{"address": address.String(), "owner": rawOwner},
		)
	}

	return entities.Account{
		Address:    address,
		Lamports:   lamports,
		Owner:      owner,
		Executable: executable,
	}, true, nil
}

func findCallRecord(ctx context.Context, q queryer, hash string) (entities.CallRecord, bool, *apperrors.AppError) {
	const query = `
SELECT hash, kind, status, error_type, error_code, error_message, processed_at
FROM app.call_records
WHERE hash = $1
`

	var (
		record       entities.CallRecord
		status       string
		errorType    sql.NullString
		errorCode    sql.NullString
		errorMessage sql.NullString
	)
	err := q.QueryRowContext(ctx, query, hash).Scan(
		&record.Hash,
		&record.Kind,
		&status,
		&errorType,
		&errorCode,
		&errorMessage,
		&record.ProcessedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return entities.CallRecord{}, false, nil
	}
	if err != nil {
		return entities.CallRecord{}, false, apperrors.NewInternal(
			"call_record_query_failed",
			"failed to query call record",
			map[string]any{"error": err.Error(), "call_hash": hash},
		)
	}

	record.Status = entities.CallStatus(status)
	record.ErrorType = errorType.String
	record.ErrorCode = errorCode.String
	record.ErrorMessage = errorMessage.String
	record.ProcessedAt = record.ProcessedAt.UTC()
	return record, true, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
