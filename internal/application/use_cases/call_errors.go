package use_cases

import (
	"errors"

	"invokesigned/internal/application/runtime"
	"invokesigned/internal/domain/authorization"
	"invokesigned/internal/domain/derivation"
	"invokesigned/internal/domain/system"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

// classifyExecutionError maps a failed call to the error surfaced to the
// submitter. None of these are retried here.
func classifyExecutionError(err error) *apperrors.AppError {
	var authErr *authorization.Error
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case authorization.KindInvalidAccountState:
			return apperrors.NewValidation(
				string(authErr.Kind),
				authErr.Error(),
				map[string]any{"account": authErr.Account, "invariant": authErr.Invariant},
			)
		case authorization.KindMalformedPayload:
			return apperrors.NewValidation(string(authErr.Kind), authErr.Error(), nil)
		case authorization.KindAddressMismatch:
			details := map[string]any{"account": authErr.Account}
			var derivationErr *derivation.DerivationError
			if errors.As(err, &derivationErr) {
				details["reason"] = string(derivationErr.Code)
			}
			return apperrors.NewForbidden(string(authErr.Kind), authErr.Error(), details)
		case authorization.KindDelegatedCallRejected:
			return apperrors.NewRejected(
				string(authErr.Kind),
				authErr.Error(),
				map[string]any{"reason": rejectionReason(authErr.Cause)},
			)
		}
	}

	var runtimeErr *runtime.Error
	if errors.As(err, &runtimeErr) {
		switch runtimeErr.Code {
		case runtime.CodeAccountLoadFailed, runtime.CodeAccountStoreFailed:
			return apperrors.NewInternal(string(runtimeErr.Code), runtimeErr.Error(), nil)
		case runtime.CodeUnknownProgram, runtime.CodeMissingRequiredSignature:
			return apperrors.NewValidation(string(runtimeErr.Code), runtimeErr.Error(), nil)
		default:
			return apperrors.NewRejected(string(runtimeErr.Code), runtimeErr.Error(), nil)
		}
	}

	var systemErr *system.SystemError
	if errors.As(err, &systemErr) {
		return apperrors.NewRejected(string(systemErr.Code), systemErr.Error(), nil)
	}

	return apperrors.NewInternal("call_execution_failed", "call execution failed", map[string]any{"error": err.Error()})
}

func rejectionReason(cause error) string {
	var systemErr *system.SystemError
	if errors.As(cause, &systemErr) {
		return string(systemErr.Code)
	}
	var runtimeErr *runtime.Error
	if errors.As(cause, &runtimeErr) {
		return string(runtimeErr.Code)
	}
	return "unknown"
}
