package derivation

type ErrorCode string

const (
	CodeMaxSeedLengthExceeded ErrorCode = "max_seed_length_exceeded"
	CodeTooManySeeds          ErrorCode = "too_many_seeds"
	CodeInvalidSeeds          ErrorCode = "invalid_seeds"
	CodeNoViableNonce         ErrorCode = "no_viable_nonce"
)

type DerivationError struct {
	Code    ErrorCode
	Message string
}

func (e *DerivationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func newDerivationError(code ErrorCode, message string) *DerivationError {
	return &DerivationError{
		Code:    code,
		Message: message,
	}
}
