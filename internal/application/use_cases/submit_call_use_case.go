package use_cases

import (
	"context"
	"crypto/ed25519"
	"strconv"
	"strings"

	"invokesigned/internal/application/dto"
	portsin "invokesigned/internal/application/ports/in"
	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/application/runtime"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"go.uber.org/zap"
)

const (
	maxCallAccounts      = 64
	maxCallDataBytes     = 1024
	maxCallReferenceSize = 128
	maxCallSignatures    = 16
)

type submitCallUseCase struct {
	repository portsout.LedgerRepository
	executor   portsout.CallExecutor
	clock      Clock
	logger     *zap.Logger
}

func NewSubmitCallUseCase(
	repository portsout.LedgerRepository,
	executor portsout.CallExecutor,
	clock Clock,
	logger *zap.Logger,
) portsin.SubmitCallUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &submitCallUseCase{
		repository: repository,
		executor:   executor,
		clock:      clock,
		logger:     logger,
	}
}

func (u *submitCallUseCase) Execute(ctx context.Context, command dto.SubmitCallCommand) (dto.SubmitCallOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.SubmitCallOutput{}, apperrors.NewInternal("ledger_repository_missing", "ledger repository is required", nil)
	}
	if u.executor == nil {
		return dto.SubmitCallOutput{}, apperrors.NewInternal("call_executor_missing", "call executor is required", nil)
	}

	signed, appErr := buildSignedCall(command)
	if appErr != nil {
		return dto.SubmitCallOutput{}, appErr
	}

	signers, invalid := signed.VerifiedSigners()
	if len(invalid) > 0 {
		return dto.SubmitCallOutput{}, apperrors.NewValidation(
			"invalid_signature",
			"signature does not verify against the call message",
			map[string]any{"signer": invalid[0].String()},
		)
	}
	// The hash excludes signatures, so signer coverage is settled before it
	// is used as an idempotency key.
	if appErr := requireSigners(signed.Call, signers); appErr != nil {
		return dto.SubmitCallOutput{}, appErr
	}

	hash := signed.Call.Hash()
	if record, found, findErr := u.repository.FindCallRecord(ctx, hash); findErr != nil {
		return dto.SubmitCallOutput{}, findErr
	} else if found {
		return replayCall(record)
	}

	var (
		executionErr error
		replayed     *entities.CallRecord
		committed    entities.CallRecord
	)
	txErr := u.repository.WithinTransaction(ctx, func(ctx context.Context, tx portsout.LedgerTransaction) *apperrors.AppError {
		record, found, findErr := tx.FindCallRecord(ctx, hash)
		if findErr != nil {
			return findErr
		}
		if found {
			replayed = &record
			return nil
		}

		if err := u.executor.Execute(ctx, tx, signed.Call, signers); err != nil {
			executionErr = err
			return classifyExecutionError(err)
		}

		committed = entities.CallRecord{
			Hash:        hash,
			Kind:        callKindInvoke,
			Status:      entities.CallStatusCommitted,
			ProcessedAt: u.clock.NowUTC(),
		}
		return tx.StoreCallRecord(ctx, committed)
	})

	if txErr != nil {
		if executionErr != nil {
			return dto.SubmitCallOutput{}, u.recordFailure(ctx, hash, txErr)
		}
		if txErr.Code == portsout.CodeCallRecordExists {
			return u.replayStored(ctx, hash)
		}
		return dto.SubmitCallOutput{}, txErr
	}
	if replayed != nil {
		return replayCall(*replayed)
	}

	u.logger.Info("call committed",
		zap.String("call_hash", hash),
		zap.String("program_id", signed.Call.ProgramID.String()),
	)

	return dto.SubmitCallOutput{Resource: toCallResource(committed)}, nil
}

// recordFailure persists the outcome of a rejected call so a resubmission
// of the same message replays it instead of executing again.
func (u *submitCallUseCase) recordFailure(ctx context.Context, hash string, failure *apperrors.AppError) *apperrors.AppError {
	record := entities.CallRecord{
		Hash:         hash,
		Kind:         callKindInvoke,
		Status:       entities.CallStatusFailed,
		ErrorType:    string(failure.Type),
		ErrorCode:    failure.Code,
		ErrorMessage: failure.Message,
		ProcessedAt:  u.clock.NowUTC(),
	}

	fields := []zap.Field{
		zap.String("call_hash", hash),
		zap.String("error_type", string(failure.Type)),
		zap.String("error_code", failure.Code),
	}
	if failure.Type == apperrors.TypeForbidden {
		u.logger.Warn("call rejected", append(fields, zap.Bool("audit", true))...)
	} else {
		u.logger.Info("call failed", fields...)
	}

	if persistable(failure) {
		storeErr := u.repository.WithinTransaction(ctx, func(ctx context.Context, tx portsout.LedgerTransaction) *apperrors.AppError {
			return tx.StoreCallRecord(ctx, record)
		})
		if storeErr != nil && storeErr.Code != portsout.CodeCallRecordExists {
			u.logger.Error("failed to record call failure",
				zap.String("call_hash", hash),
				zap.String("error_code", storeErr.Code),
			)
		}
	}

	return failure.WithDetail("call_hash", hash)
}

// persistable reports whether a failure is a property of the message and the
// ledger alone. Failures that hinge on which signatures came with the message
// are never stored under its hash.
func persistable(failure *apperrors.AppError) bool {
	if failure.Type == apperrors.TypeInternal {
		return false
	}
	switch failure.Code {
	case string(runtime.CodeMissingRequiredSignature), "invalid_signature":
		return false
	}
	return true
}

func requireSigners(call entities.Call, signers map[valueobjects.Address]struct{}) *apperrors.AppError {
	for index, meta := range call.Accounts {
		if !meta.IsSigner {
			continue
		}
		if _, ok := signers[meta.Address]; !ok {
			return apperrors.NewValidation(
				string(runtime.CodeMissingRequiredSignature),
				"account is marked as signer but carries no valid signature",
				map[string]any{
					"field":  "accounts[" + strconv.Itoa(index) + "]",
					"signer": meta.Address.String(),
				},
			)
		}
	}
	return nil
}

func (u *submitCallUseCase) replayStored(ctx context.Context, hash string) (dto.SubmitCallOutput, *apperrors.AppError) {
	record, found, appErr := u.repository.FindCallRecord(ctx, hash)
	if appErr != nil {
		return dto.SubmitCallOutput{}, appErr
	}
	if !found {
		return dto.SubmitCallOutput{}, apperrors.NewInternal(
			"call_record_missing",
			"call record vanished after a duplicate insert",
			map[string]any{"call_hash": hash},
		)
	}
	return replayCall(record)
}

func replayCall(record entities.CallRecord) (dto.SubmitCallOutput, *apperrors.AppError) {
	if !record.Committed() {
		return dto.SubmitCallOutput{}, appErrorFromRecord(record)
	}
	return dto.SubmitCallOutput{Resource: toCallResource(record), Replayed: true}, nil
}

func buildSignedCall(command dto.SubmitCallCommand) (entities.SignedCall, *apperrors.AppError) {
	programID, appErr := valueobjects.ParseAddress(command.ProgramID)
	if appErr != nil {
		return entities.SignedCall{}, appErr.WithDetail("field", "program_id")
	}

	if len(command.Accounts) == 0 || len(command.Accounts) > maxCallAccounts {
		return entities.SignedCall{}, apperrors.NewValidation(
			"invalid_request",
			"accounts must list between 1 and "+strconv.Itoa(maxCallAccounts)+" entries",
			map[string]any{"field": "accounts"},
		)
	}
	if len(command.Data) > maxCallDataBytes {
		return entities.SignedCall{}, apperrors.NewValidation(
			"invalid_request",
			"data exceeds "+strconv.Itoa(maxCallDataBytes)+" bytes",
			map[string]any{"field": "data"},
		)
	}
	if len(command.Reference) > maxCallReferenceSize {
		return entities.SignedCall{}, apperrors.NewValidation(
			"invalid_request",
			"reference exceeds "+strconv.Itoa(maxCallReferenceSize)+" bytes",
			map[string]any{"field": "reference"},
		)
	}
	if len(command.Signatures) == 0 || len(command.Signatures) > maxCallSignatures {
		return entities.SignedCall{}, apperrors.NewValidation(
			"invalid_request",
			"signatures must list between 1 and "+strconv.Itoa(maxCallSignatures)+" entries",
			map[string]any{"field": "signatures"},
		)
	}

	metas := make([]entities.AccountMeta, 0, len(command.Accounts))
	for index, input := range command.Accounts {
		address, appErr := valueobjects.ParseAddress(input.Address)
		if appErr != nil {
			return entities.SignedCall{}, appErr.WithDetail("field", "accounts["+strconv.Itoa(index)+"].address")
		}
		metas = append(metas, entities.AccountMeta{
			Address:    address,
			IsSigner:   input.IsSigner,
			IsWritable: input.IsWritable,
		})
	}

	signatures := make([]entities.Signature, 0, len(command.Signatures))
	for index, input := range command.Signatures {
		field := "signatures[" + strconv.Itoa(index) + "]"
		signer, appErr := valueobjects.ParseAddress(input.Signer)
		if appErr != nil {
			return entities.SignedCall{}, appErr.WithDetail("field", field+".signer")
		}
		value, err := valueobjects.DecodeBase58(strings.TrimSpace(input.Signature))
		if err != nil || len(value) != ed25519.SignatureSize {
			return entities.SignedCall{}, apperrors.NewValidation(
				"invalid_signature",
				"signature must be a base58 encoded 64 byte ed25519 signature",
				map[string]any{"field": field + ".signature"},
			)
		}
		signatures = append(signatures, entities.Signature{Signer: signer, Value: value})
	}

	return entities.SignedCall{
		Call: entities.Call{
			Instruction: entities.Instruction{
				ProgramID: programID,
				Accounts:  metas,
				Data:      command.Data,
			},
			Reference: command.Reference,
		},
		Signatures: signatures,
	}, nil
}
