package use_cases

import (
	"invokesigned/internal/application/dto"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

const (
	callKindInvoke  = "invoke"
	callKindAirdrop = "airdrop"
)

func toCallResource(record entities.CallRecord) dto.CallResource {
	resource := dto.CallResource{
		Hash:        record.Hash,
		Kind:        record.Kind,
		Status:      string(record.Status),
		ProcessedAt: record.ProcessedAt,
	}
	if record.Status == entities.CallStatusFailed {
		resource.Error = &dto.CallError{
			Type:    record.ErrorType,
			Code:    record.ErrorCode,
			Message: record.ErrorMessage,
		}
	}
	return resource
}

func toAccountResource(account entities.Account) dto.AccountResource {
	return dto.AccountResource{
		Address:    account.Address.String(),
		Lamports:   valueobjects.FormatAmountMinor(account.Lamports),
		Owner:      account.Owner.String(),
		Executable: account.Executable,
	}
}

// appErrorFromRecord rebuilds the error a failed call originally returned.
func appErrorFromRecord(record entities.CallRecord) *apperrors.AppError {
	return &apperrors.AppError{
		Type:    apperrors.Type(record.ErrorType),
		Code:    record.ErrorCode,
		Message: record.ErrorMessage,
		Details: map[string]any{"call_hash": record.Hash},
	}
}
