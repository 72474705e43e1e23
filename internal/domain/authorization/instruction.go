package authorization

import (
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
)

// NewInstruction builds the call a client sends to an authorization program
// deployed at programID. Account order matches AccountSet.
func NewInstruction(
	programID valueobjects.Address,
	payer valueobjects.Address,
	controlled valueobjects.Address,
	recipient valueobjects.Address,
	data []byte,
) entities.Instruction {
	return entities.Instruction{
		ProgramID: programID,
		Accounts: []entities.AccountMeta{
			entities.NewWritableMeta(payer, true),
			entities.NewWritableMeta(controlled, false),
			entities.NewWritableMeta(recipient, false),
			entities.NewReadonlyMeta(valueobjects.SystemProgramAddress, false),
		},
		Data: data,
	}
}
