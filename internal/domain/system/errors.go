package system

type ErrorCode string

const (
	CodeInvalidInstructionData   ErrorCode = "invalid_instruction_data"
	CodeNotEnoughAccountKeys     ErrorCode = "not_enough_account_keys"
	CodeMissingRequiredSignature ErrorCode = "missing_required_signature"
	CodeInvalidAccountOwner      ErrorCode = "invalid_account_owner"
	CodeAccountNotWritable       ErrorCode = "account_not_writable"
	CodeInsufficientFunds        ErrorCode = "insufficient_funds"
	CodeArithmeticOverflow       ErrorCode = "arithmetic_overflow"
)

type SystemError struct {
	Code    ErrorCode
	Message string
}

func (e *SystemError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func newSystemError(code ErrorCode, message string) *SystemError {
	return &SystemError{Code: code, Message: message}
}
