// Package derivation computes program-derived addresses: 32-byte values that
// are a hash of seed material and an owning program id, and that lie off the
// ed25519 curve so no private key can exist for them.
package derivation

import (
	"crypto/sha256"
	"fmt"

	valueobjects "invokesigned/internal/domain/value_objects"

	"filippo.io/edwards25519"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

var programDerivedMarker = []byte("ProgramDerivedAddress")

// CreateProgramAddress hashes the seeds with the program id. It fails with
// CodeInvalidSeeds when the hash is a valid curve point.
func CreateProgramAddress(seeds [][]byte, programID valueobjects.Address) (valueobjects.Address, error) {
	if len(seeds) > MaxSeeds {
		return valueobjects.Address{}, newDerivationError(
			CodeTooManySeeds,
			fmt.Sprintf("at most %d seeds are allowed, got %d", MaxSeeds, len(seeds)),
		)
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return valueobjects.Address{}, newDerivationError(
				CodeMaxSeedLengthExceeded,
				fmt.Sprintf("seed %d is %d bytes, limit is %d", i, len(seed), MaxSeedLength),
			)
		}
	}

	hash := sha256.New()
	for _, seed := range seeds {
		_, _ = hash.Write(seed)
	}
	_, _ = hash.Write(programID[:])
	_, _ = hash.Write(programDerivedMarker)

	digest := hash.Sum(nil)
	if IsOnCurve(digest) {
		return valueobjects.Address{}, newDerivationError(
			CodeInvalidSeeds,
			"derived address lies on the ed25519 curve",
		)
	}

	return valueobjects.AddressFromBytes(digest), nil
}

// FindProgramAddress searches nonces from 255 down to 0 and returns the first
// one that yields an off-curve address.
func FindProgramAddress(seeds [][]byte, programID valueobjects.Address) (valueobjects.Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return valueobjects.Address{}, 0, newDerivationError(
			CodeTooManySeeds,
			fmt.Sprintf("at most %d seeds are allowed before the nonce, got %d", MaxSeeds-1, len(seeds)),
		)
	}

	candidate := make([][]byte, len(seeds)+1)
	copy(candidate, seeds)
	nonceSeed := []byte{0}
	candidate[len(seeds)] = nonceSeed

	for nonce := 255; nonce >= 0; nonce-- {
		nonceSeed[0] = uint8(nonce)
		address, err := CreateProgramAddress(candidate, programID)
		if err == nil {
			return address, uint8(nonce), nil
		}

		derivationErr, ok := err.(*DerivationError)
		if !ok || derivationErr.Code != CodeInvalidSeeds {
			return valueobjects.Address{}, 0, err
		}
	}

	return valueobjects.Address{}, 0, newDerivationError(
		CodeNoViableNonce,
		"no nonce produced an off-curve address",
	)
}

// Derive reproduces the address controlled by ownerID for a single seed and
// its nonce.
func Derive(ownerID valueobjects.Address, seed []byte, nonce uint8) (valueobjects.Address, error) {
	return CreateProgramAddress(SignerSeeds(seed, nonce), ownerID)
}

// SignerSeeds is the seed tuple presented as a capability on delegated calls.
func SignerSeeds(seed []byte, nonce uint8) [][]byte {
	return [][]byte{seed, {nonce}}
}

// IsOnCurve reports whether raw decodes to a point on the ed25519 curve.
func IsOnCurve(raw []byte) bool {
	if len(raw) != valueobjects.AddressLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
