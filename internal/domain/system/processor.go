package system

import (
	"fmt"
	"math/bits"

	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
)

// KeyedAccount is the view the system program receives for each account of
// an instruction.
type KeyedAccount struct {
	Account    *entities.Account
	IsSigner   bool
	IsWritable bool
}

// Process executes a system instruction against already-loaded accounts.
func Process(accounts []KeyedAccount, data []byte) error {
	transfer, err := DecodeInstruction(data)
	if err != nil {
		return err
	}
	if len(accounts) < 2 {
		return newSystemError(CodeNotEnoughAccountKeys, "transfer requires a source and a recipient account")
	}

	return ProcessTransfer(accounts[0], accounts[1], transfer.Lamports)
}

func ProcessTransfer(from, to KeyedAccount, lamports uint64) error {
	if !from.IsSigner {
		return newSystemError(
			CodeMissingRequiredSignature,
			fmt.Sprintf("transfer source %s did not sign", from.Account.Address),
		)
	}
	if !from.IsWritable || !to.IsWritable {
		return newSystemError(CodeAccountNotWritable, "transfer source and recipient must be writable")
	}
	if from.Account.Owner != valueobjects.SystemProgramAddress {
		return newSystemError(
			CodeInvalidAccountOwner,
			fmt.Sprintf("transfer source %s is owned by %s", from.Account.Address, from.Account.Owner),
		)
	}
	if from.Account.Lamports < lamports {
		return newSystemError(
			CodeInsufficientFunds,
			fmt.Sprintf("transfer source %s holds %d lamports, needs %d", from.Account.Address, from.Account.Lamports, lamports),
		)
	}
	if from.Account.Address == to.Account.Address {
		return nil
	}

	credited, carry := bits.Add64(to.Account.Lamports, lamports, 0)
	if carry != 0 {
		return newSystemError(
			CodeArithmeticOverflow,
			fmt.Sprintf("crediting %d lamports to %s overflows", lamports, to.Account.Address),
		)
	}

	from.Account.Lamports -= lamports
	to.Account.Lamports = credited
	return nil
}
