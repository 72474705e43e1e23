package payload

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// BinaryCodec is the packed layout
// len(seed):u16 LE | seed | nonce:u8 | amount:u64 LE.
// Seeds longer than math.MaxUint16 bytes cannot be encoded.
type BinaryCodec struct{}

const binaryFixedLength = 2 + 1 + 8

func (BinaryCodec) Encode(seed string, nonce uint8, amount uint64) []byte {
	if len(seed) > math.MaxUint16 {
		panic(fmt.Sprintf("seed length %d exceeds u16 prefix", len(seed)))
	}

	out := make([]byte, 0, binaryFixedLength+len(seed))
	out = binary.LittleEndian.AppendUint16(out, uint16(len(seed)))
	out = append(out, seed...)
	out = append(out, nonce)
	out = binary.LittleEndian.AppendUint64(out, amount)
	return out
}

func (BinaryCodec) Decode(raw []byte) (AuthorizationPayload, error) {
	if len(raw) < binaryFixedLength {
		return AuthorizationPayload{}, malformed(fmt.Sprintf("instruction data is %d bytes, need at least %d", len(raw), binaryFixedLength), nil)
	}

	seedLength := int(binary.LittleEndian.Uint16(raw[:2]))
	if len(raw) != binaryFixedLength+seedLength {
		return AuthorizationPayload{}, malformed(fmt.Sprintf("instruction data is %d bytes, seed length prefix implies %d", len(raw), binaryFixedLength+seedLength), nil)
	}
	if seedLength == 0 {
		return AuthorizationPayload{}, malformed("seed must not be empty", nil)
	}

	seed := raw[2 : 2+seedLength]
	if !utf8.Valid(seed) {
		return AuthorizationPayload{}, malformed("seed is not valid UTF-8", nil)
	}

	rest := raw[2+seedLength:]
	return AuthorizationPayload{
		Seed:   string(seed),
		Nonce:  rest[0],
		Amount: binary.LittleEndian.Uint64(rest[1:]),
	}, nil
}
