package authorization

import "fmt"

type ErrorKind string

const (
	KindInvalidAccountState   ErrorKind = "invalid_account_state"
	KindMalformedPayload      ErrorKind = "malformed_payload"
	KindAddressMismatch       ErrorKind = "address_mismatch"
	KindDelegatedCallRejected ErrorKind = "delegated_call_rejected"
)

// Sentinels for errors.Is; an *Error matches any sentinel of the same kind.
var (
	ErrInvalidAccountState   = &Error{Kind: KindInvalidAccountState}
	ErrMalformedPayload      = &Error{Kind: KindMalformedPayload}
	ErrAddressMismatch       = &Error{Kind: KindAddressMismatch}
	ErrDelegatedCallRejected = &Error{Kind: KindDelegatedCallRejected}
)

// Error aborts an authorization. Account and Invariant are set for
// KindInvalidAccountState.
type Error struct {
	Kind      ErrorKind
	Account   string
	Invariant string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	message := string(e.Kind)
	if e.Message != "" {
		message += ": " + e.Message
	}
	if e.Cause != nil {
		message += ": " + e.Cause.Error()
	}
	return message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok || e == nil || other == nil {
		return false
	}
	return e.Kind == other.Kind
}

func invalidAccountState(account, invariant string) *Error {
	return &Error{
		Kind:      KindInvalidAccountState,
		Account:   account,
		Invariant: invariant,
		Message:   fmt.Sprintf("account %s violates %s", account, invariant),
	}
}
