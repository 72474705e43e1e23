// Package payload encodes the instruction data handed to the authorization
// program: the seed, the nonce that made the derivation land off-curve and
// the lamports to move.
package payload

import "fmt"

type AuthorizationPayload struct {
	Seed   string
	Nonce  uint8
	Amount uint64
}

func (p AuthorizationPayload) String() string {
	return fmt.Sprintf("seed=%q nonce=%d amount=%d", p.Seed, p.Nonce, p.Amount)
}

// Codec converts payloads to and from instruction bytes. Decode is
// all-or-nothing and fails only with *Error. Encode expects a seed that
// already passed derivation, so at most derivation.MaxSeedLength bytes;
// BinaryCodec panics on seeds its u16 length prefix cannot hold.
type Codec interface {
	Encode(seed string, nonce uint8, amount uint64) []byte
	Decode(raw []byte) (AuthorizationPayload, error)
}

var DefaultCodec Codec = JSONCodec{}

func Encode(seed string, nonce uint8, amount uint64) []byte {
	return DefaultCodec.Encode(seed, nonce, amount)
}

func Decode(raw []byte) (AuthorizationPayload, error) {
	return DefaultCodec.Decode(raw)
}

// Error reports instruction bytes that do not decode into a payload.
type Error struct {
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return "malformed payload: " + e.Reason + ": " + e.Cause.Error()
	}
	return "malformed payload: " + e.Reason
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func malformed(reason string, cause error) *Error {
	return &Error{Reason: reason, Cause: cause}
}
