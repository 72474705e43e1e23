package use_cases

import (
	"context"
	"crypto/sha256"
	"math/bits"

	"invokesigned/internal/application/dto"
	portsin "invokesigned/internal/application/ports/in"
	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type requestAirdropUseCase struct {
	repository  portsout.LedgerRepository
	maxLamports uint64
	clock       Clock
	newID       func() string
	logger      *zap.Logger
}

// NewRequestAirdropUseCase credits test lamports to system accounts. A zero
// maxLamports disables the faucet.
func NewRequestAirdropUseCase(
	repository portsout.LedgerRepository,
	maxLamports uint64,
	clock Clock,
	logger *zap.Logger,
) portsin.RequestAirdropUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &requestAirdropUseCase{
		repository:  repository,
		maxLamports: maxLamports,
		clock:       clock,
		newID:       uuid.NewString,
		logger:      logger,
	}
}

func (u *requestAirdropUseCase) Execute(ctx context.Context, command dto.RequestAirdropCommand) (dto.AirdropOutput, *apperrors.AppError) {
	if u.repository == nil {
		return dto.AirdropOutput{}, apperrors.NewInternal("ledger_repository_missing", "ledger repository is required", nil)
	}
	if u.maxLamports == 0 {
		return dto.AirdropOutput{}, apperrors.NewForbidden("airdrop_disabled", "airdrops are disabled", nil)
	}

	address, appErr := valueobjects.ParseAddress(command.Address)
	if appErr != nil {
		return dto.AirdropOutput{}, appErr.WithDetail("field", "address")
	}
	lamports, appErr := valueobjects.ParseAmountMinor("lamports", command.Lamports)
	if appErr != nil {
		return dto.AirdropOutput{}, appErr
	}
	if lamports == 0 || lamports > u.maxLamports {
		return dto.AirdropOutput{}, apperrors.NewValidation(
			"invalid_request",
			"lamports must be between 1 and "+valueobjects.FormatAmountMinor(u.maxLamports),
			map[string]any{"field": "lamports"},
		)
	}

	record := entities.CallRecord{
		Hash:        airdropHash(address, lamports, u.newID()),
		Kind:        callKindAirdrop,
		Status:      entities.CallStatusCommitted,
		ProcessedAt: u.clock.NowUTC(),
	}

	var credited entities.Account
	txErr := u.repository.WithinTransaction(ctx, func(ctx context.Context, tx portsout.LedgerTransaction) *apperrors.AppError {
		account, appErr := tx.LoadAccountForUpdate(ctx, address)
		if appErr != nil {
			return appErr
		}
		if account.Owner != valueobjects.SystemProgramAddress || account.Executable {
			return apperrors.NewValidation(
				"invalid_account_owner",
				"airdrops can only credit system-owned accounts",
				map[string]any{"address": address.String()},
			)
		}

		sum, carry := bits.Add64(account.Lamports, lamports, 0)
		if carry != 0 {
			return apperrors.NewRejected(
				"arithmetic_overflow",
				"airdrop would overflow the account balance",
				map[string]any{"address": address.String()},
			)
		}
		account.Lamports = sum

		if appErr := tx.StoreAccount(ctx, account); appErr != nil {
			return appErr
		}
		credited = account
		return tx.StoreCallRecord(ctx, record)
	})
	if txErr != nil {
		return dto.AirdropOutput{}, txErr
	}

	u.logger.Info("airdrop credited",
		zap.String("call_hash", record.Hash),
		zap.String("address", address.String()),
		zap.Uint64("lamports", lamports),
	)

	return dto.AirdropOutput{
		Call:    toCallResource(record),
		Account: toAccountResource(credited),
	}, nil
}

func airdropHash(address valueobjects.Address, lamports uint64, reference string) string {
	hash := sha256.New()
	_, _ = hash.Write([]byte("airdrop"))
	_, _ = hash.Write(address[:])
	_, _ = hash.Write([]byte(valueobjects.FormatAmountMinor(lamports)))
	_, _ = hash.Write([]byte(reference))
	return valueobjects.EncodeBase58(hash.Sum(nil))
}
