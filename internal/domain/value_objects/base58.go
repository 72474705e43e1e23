package valueobjects

import (
	"errors"

	"github.com/decred/base58"
)

var errInvalidBase58 = errors.New("invalid base58 string")

// DecodeBase58 decodes Bitcoin-alphabet base58. The library signals bad
// input with an empty result, so only the empty string may decode to nothing.
func DecodeBase58(input string) ([]byte, error) {
	if input == "" {
		return []byte{}, nil
	}

	decoded := base58.Decode(input)
	if len(decoded) == 0 {
		return nil, errInvalidBase58
	}
	return decoded, nil
}

func EncodeBase58(input []byte) string {
	return base58.Encode(input)
}
