package runtime

type ErrorCode string

const (
	CodeUnknownProgram           ErrorCode = "unknown_program"
	CodeProgramNotExecutable     ErrorCode = "program_not_executable"
	CodeMissingRequiredSignature ErrorCode = "missing_required_signature"
	CodeMissingAccount           ErrorCode = "missing_account"
	CodePrivilegeEscalation      ErrorCode = "privilege_escalation"
	CodeInvalidSignerSeeds       ErrorCode = "invalid_signer_seeds"
	CodeCallDepthExceeded        ErrorCode = "call_depth_exceeded"
	CodeReadonlyAccountModified  ErrorCode = "readonly_account_modified"
	CodeUnbalancedCall           ErrorCode = "unbalanced_call"
	CodeAccountLoadFailed        ErrorCode = "account_load_failed"
	CodeAccountStoreFailed       ErrorCode = "account_store_failed"
)

// Error is raised by the runtime itself, as opposed to the programs it runs.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newRuntimeError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}
