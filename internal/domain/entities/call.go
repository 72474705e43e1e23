package entities

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"

	valueobjects "invokesigned/internal/domain/value_objects"
)

const callMessageVersion byte = 1

// Call is one top-level instruction submitted to the ledger. Reference makes
// otherwise identical calls distinct; the hash of the message is the call's
// identity for idempotent resubmission.
type Call struct {
	Instruction
	Reference string
}

type Signature struct {
	Signer valueobjects.Address
	Value  []byte
}

type SignedCall struct {
	Call       Call
	Signatures []Signature
}

// MessageBytes is the canonical encoding that signers sign:
// version | program id | account count | (address | flags)* | data len u32 | data | reference len u16 | reference.
func (c Call) MessageBytes() []byte {
	size := 1 + valueobjects.AddressLength + 1 + len(c.Accounts)*(valueobjects.AddressLength+1) + 4 + len(c.Data) + 2 + len(c.Reference)
	out := make([]byte, 0, size)

	out = append(out, callMessageVersion)
	out = append(out, c.ProgramID[:]...)
	out = append(out, byte(len(c.Accounts)))
	for _, meta := range c.Accounts {
		out = append(out, meta.Address[:]...)
		var flags byte
		if meta.IsSigner {
			flags |= 1
		}
		if meta.IsWritable {
			flags |= 2
		}
		out = append(out, flags)
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(c.Data)))
	out = append(out, c.Data...)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(c.Reference)))
	out = append(out, c.Reference...)

	return out
}

func (c Call) Hash() string {
	sum := sha256.Sum256(c.MessageBytes())
	return valueobjects.EncodeBase58(sum[:])
}

func SignCall(call Call, privateKey ed25519.PrivateKey) Signature {
	publicKey := privateKey.Public().(ed25519.PublicKey)
	return Signature{
		Signer: valueobjects.AddressFromBytes(publicKey),
		Value:  ed25519.Sign(privateKey, call.MessageBytes()),
	}
}

// VerifiedSigners returns the addresses whose signatures verify against the
// call message. Invalid signatures are reported through the second result.
func (s SignedCall) VerifiedSigners() (map[valueobjects.Address]struct{}, []valueobjects.Address) {
	message := s.Call.MessageBytes()
	verified := make(map[valueobjects.Address]struct{}, len(s.Signatures))
	invalid := make([]valueobjects.Address, 0)

	for _, signature := range s.Signatures {
		if len(signature.Value) != ed25519.SignatureSize ||
			!ed25519.Verify(ed25519.PublicKey(signature.Signer[:]), message, signature.Value) {
			invalid = append(invalid, signature.Signer)
			continue
		}
		verified[signature.Signer] = struct{}{}
	}

	return verified, invalid
}
