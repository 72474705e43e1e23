// Package execution holds the contract between the ledger runtime and the
// programs it hosts.
package execution

import (
	"context"

	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
)

// AccountInfo is a read-only snapshot of an account as presented to a
// program, together with the privileges the caller granted it.
type AccountInfo struct {
	Address    valueobjects.Address
	Owner      valueobjects.Address
	Lamports   uint64
	Executable bool
	IsSigner   bool
	IsWritable bool
}

// Invoker performs sub-calls on behalf of the running program. Each entry of
// signerSeeds is a seed tuple that, combined with the running program's id,
// must reproduce an address the sub-instruction needs as a signer.
type Invoker interface {
	Invoke(ctx context.Context, instruction entities.Instruction) error
	InvokeSigned(ctx context.Context, instruction entities.Instruction, signerSeeds ...[][]byte) error
}

// Program is an instruction handler registered under a program id.
type Program interface {
	Process(ctx context.Context, invoker Invoker, programID valueobjects.Address, accounts []AccountInfo, data []byte) error
}

type ProgramFunc func(ctx context.Context, invoker Invoker, programID valueobjects.Address, accounts []AccountInfo, data []byte) error

func (f ProgramFunc) Process(ctx context.Context, invoker Invoker, programID valueobjects.Address, accounts []AccountInfo, data []byte) error {
	return f(ctx, invoker, programID, accounts, data)
}
