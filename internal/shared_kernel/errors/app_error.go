package apperrors

type Type string

const (
	TypeValidation Type = "validation"
	TypeNotFound   Type = "not_found"
	TypeConflict   Type = "conflict"
	TypeForbidden  Type = "forbidden"
	TypeRejected   Type = "rejected"
	TypeInternal   Type = "internal"
)

type AppError struct {
	Type    Type           `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e == nil {
		return nil
	}

	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value

	return &AppError{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

func newAppError(errorType Type, code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewInternal(code, message string, details map[string]any) *AppError {
	return newAppError(TypeInternal, code, message, details)
}

func NewValidation(code, message string, details map[string]any) *AppError {
	return newAppError(TypeValidation, code, message, details)
}

func NewNotFound(code, message string, details map[string]any) *AppError {
	return newAppError(TypeNotFound, code, message, details)
}

func NewConflict(code, message string, details map[string]any) *AppError {
	return newAppError(TypeConflict, code, message, details)
}

// NewForbidden reports a request whose credentials do not reproduce the
// account it acts on.
func NewForbidden(code, message string, details map[string]any) *AppError {
	return newAppError(TypeForbidden, code, message, details)
}

// NewRejected reports a well-formed request the ledger refused to apply.
func NewRejected(code, message string, details map[string]any) *AppError {
	return newAppError(TypeRejected, code, message, details)
}
