// Package system implements the well-known system authority: the program
// that owns plain value-holding accounts and moves lamports between them.
package system

import (
	"encoding/binary"
	"fmt"

	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
)

const transferDiscriminator uint32 = 2

const transferDataLength = 4 + 8

type Transfer struct {
	Lamports uint64
}

// TransferInstruction moves lamports from a system-owned account that must
// sign to any writable recipient.
func TransferInstruction(from, to valueobjects.Address, lamports uint64) entities.Instruction {
	data := make([]byte, 0, transferDataLength)
	data = binary.LittleEndian.AppendUint32(data, transferDiscriminator)
	data = binary.LittleEndian.AppendUint64(data, lamports)

	return entities.Instruction{
		ProgramID: valueobjects.SystemProgramAddress,
		Accounts: []entities.AccountMeta{
			entities.NewWritableMeta(from, true),
			entities.NewWritableMeta(to, false),
		},
		Data: data,
	}
}

func DecodeInstruction(data []byte) (Transfer, error) {
	if len(data) < 4 {
		return Transfer{}, newSystemError(CodeInvalidInstructionData, "system instruction is missing its discriminator")
	}

	discriminator := binary.LittleEndian.Uint32(data[:4])
	if discriminator != transferDiscriminator {
		return Transfer{}, newSystemError(
			CodeInvalidInstructionData,
			fmt.Sprintf("unsupported system instruction %d", discriminator),
		)
	}
	if len(data) != transferDataLength {
		return Transfer{}, newSystemError(
			CodeInvalidInstructionData,
			fmt.Sprintf("transfer data is %d bytes, expected %d", len(data), transferDataLength),
		)
	}

	return Transfer{Lamports: binary.LittleEndian.Uint64(data[4:])}, nil
}
