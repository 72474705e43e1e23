package valueobjects

import (
	"bytes"
	"strings"

	apperrors "invokesigned/internal/shared_kernel/errors"
)

const AddressLength = 32

// Address identifies an account on the ledger. Its textual form is base58.
type Address [AddressLength]byte

var (
	// SystemProgramAddress is the well-known system authority that owns plain
	// value-holding accounts and performs transfers between them.
	SystemProgramAddress = Address{}

	// ProgramLoaderAddress owns deployed program accounts.
	ProgramLoaderAddress = MustParseAddress("BPFLoaderUpgradeab1e11111111111111111111111")
)

func ParseAddress(raw string) (Address, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Address{}, apperrors.NewValidation(
			"invalid_address",
			"address is required",
			nil,
		)
	}

	decoded, err := DecodeBase58(trimmed)
	if err != nil {
		return Address{}, apperrors.NewValidation(
			"invalid_address",
			"address must be base58 encoded",
			map[string]any{"address": trimmed, "error": err.Error()},
		)
	}
	if len(decoded) != AddressLength {
		return Address{}, apperrors.NewValidation(
			"invalid_address",
			"address must decode to 32 bytes",
			map[string]any{"address": trimmed, "length": len(decoded)},
		)
	}

	return AddressFromBytes(decoded), nil
}

func MustParseAddress(raw string) Address {
	address, appErr := ParseAddress(raw)
	if appErr != nil {
		panic("invalid address constant " + raw + ": " + appErr.Message)
	}
	return address
}

// AddressFromBytes copies the first 32 bytes of raw; shorter input is
// right-padded with zeros.
func AddressFromBytes(raw []byte) Address {
	var out Address
	copy(out[:], raw)
	return out
}

func (a Address) String() string {
	return EncodeBase58(a[:])
}

func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) Equal(other Address) bool {
	return bytes.Equal(a[:], other[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, appErr := ParseAddress(string(text))
	if appErr != nil {
		return appErr
	}
	*a = parsed
	return nil
}
