package payload

import (
	"bytes"
	"encoding/json"
	"io"
	"unicode/utf8"
)

// JSONCodec is the self-describing wire form:
// {"seed":"PROGRAM","bump_seed":254,"lamports":1000000000}.
type JSONCodec struct{}

type jsonEnvelope struct {
	Seed     *string `json:"seed"`
	BumpSeed *uint8  `json:"bump_seed"`
	Lamports *uint64 `json:"lamports"`
}

func (JSONCodec) Encode(seed string, nonce uint8, amount uint64) []byte {
	encoded, err := json.Marshal(jsonEnvelope{
		Seed:     &seed,
		BumpSeed: &nonce,
		Lamports: &amount,
	})
	if err != nil {
		// string and integer fields cannot fail to marshal
		panic(err)
	}
	return encoded
}

func (JSONCodec) Decode(raw []byte) (AuthorizationPayload, error) {
	if !utf8.Valid(raw) {
		return AuthorizationPayload{}, malformed("instruction data is not valid UTF-8", nil)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	envelope := jsonEnvelope{}
	if err := decoder.Decode(&envelope); err != nil {
		return AuthorizationPayload{}, malformed("instruction data is not a payload object", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return AuthorizationPayload{}, malformed("instruction data has trailing content", err)
	}

	switch {
	case envelope.Seed == nil:
		return AuthorizationPayload{}, malformed("seed is required", nil)
	case envelope.BumpSeed == nil:
		return AuthorizationPayload{}, malformed("bump_seed is required", nil)
	case envelope.Lamports == nil:
		return AuthorizationPayload{}, malformed("lamports is required", nil)
	case *envelope.Seed == "":
		return AuthorizationPayload{}, malformed("seed must not be empty", nil)
	}

	return AuthorizationPayload{
		Seed:   *envelope.Seed,
		Nonce:  *envelope.BumpSeed,
		Amount: *envelope.Lamports,
	}, nil
}
