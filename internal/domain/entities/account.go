package entities

import valueobjects "invokesigned/internal/domain/value_objects"

// Account is the ledger state behind an address. Addresses that were never
// written read as a zero-lamport account owned by the system program.
type Account struct {
	Address    valueobjects.Address
	Lamports   uint64
	Owner      valueobjects.Address
	Executable bool
}

func NewSystemAccount(address valueobjects.Address) Account {
	return Account{
		Address: address,
		Owner:   valueobjects.SystemProgramAddress,
	}
}

type AccountMeta struct {
	Address    valueobjects.Address
	IsSigner   bool
	IsWritable bool
}

func NewWritableMeta(address valueobjects.Address, isSigner bool) AccountMeta {
	return AccountMeta{Address: address, IsSigner: isSigner, IsWritable: true}
}

func NewReadonlyMeta(address valueobjects.Address, isSigner bool) AccountMeta {
	return AccountMeta{Address: address, IsSigner: isSigner}
}

type Instruction struct {
	ProgramID valueobjects.Address
	Accounts  []AccountMeta
	Data      []byte
}
