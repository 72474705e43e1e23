// Package runtime hosts programs: it loads the accounts a call names, runs
// the target program against them, arbitrates delegated sub-calls and writes
// the results back only when every step and every ledger invariant held.
package runtime

import (
	"context"
	"fmt"
	"math/bits"
	"sync"

	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/domain/derivation"
	"invokesigned/internal/domain/entities"
	"invokesigned/internal/domain/execution"
	"invokesigned/internal/domain/system"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"go.uber.org/zap"
)

const defaultMaxCallDepth = 4

type registration struct {
	program execution.Program
	native  bool
}

var _ portsout.CallExecutor = (*Runtime)(nil)

type Runtime struct {
	mu           sync.RWMutex
	programs     map[valueobjects.Address]registration
	maxCallDepth int
	logger       *zap.Logger
}

func New(logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runtime{
		programs:     map[valueobjects.Address]registration{},
		maxCallDepth: defaultMaxCallDepth,
		logger:       logger,
	}
	r.programs[valueobjects.SystemProgramAddress] = registration{native: true}
	return r
}

// Register deploys a program under programID. Deployed programs also need an
// executable account on the ledger.
func (r *Runtime) Register(programID valueobjects.Address, program execution.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programs[programID] = registration{program: program}
}

func (r *Runtime) lookup(programID valueobjects.Address) (registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.programs[programID]
	return entry, ok
}

// Execute runs one top-level call. signers holds the addresses whose
// signatures over the call message were verified.
func (r *Runtime) Execute(
	ctx context.Context,
	store portsout.AccountStore,
	call entities.Call,
	signers map[valueobjects.Address]struct{},
) error {
	entry, ok := r.lookup(call.ProgramID)
	if !ok {
		return newRuntimeError(CodeUnknownProgram, "program "+call.ProgramID.String()+" is not deployed", nil)
	}

	privileges := mergePrivileges(call.Accounts)
	for address, meta := range privileges {
		if !meta.IsSigner {
			continue
		}
		if _, signed := signers[address]; !signed {
			return newRuntimeError(CodeMissingRequiredSignature, "account "+address.String()+" is marked signer but did not sign", nil)
		}
	}

	state, err := loadCallState(ctx, store, call.Accounts, privileges)
	if err != nil {
		return err
	}

	if !entry.native {
		programAccount, appErr := store.LoadAccount(ctx, call.ProgramID)
		if appErr != nil {
			return newRuntimeError(CodeAccountLoadFailed, "failed to load program account", appErr)
		}
		if !programAccount.Executable {
			return newRuntimeError(CodeProgramNotExecutable, "program account "+call.ProgramID.String()+" is not executable", nil)
		}
	}

	before := state.snapshot()
	frame := &invocationFrame{
		runtime:    r,
		state:      state,
		programID:  call.ProgramID,
		privileges: privileges,
		depth:      1,
	}
	if err := frame.run(ctx, entry, call.Instruction); err != nil {
		return err
	}

	if err := state.verify(before, privileges); err != nil {
		return err
	}

	for _, address := range state.order {
		if !privileges[address].IsWritable {
			continue
		}
		if appErr := store.StoreAccount(ctx, *state.accounts[address]); appErr != nil {
			return newRuntimeError(CodeAccountStoreFailed, "failed to store account "+address.String(), appErr)
		}
	}

	r.logger.Debug("call executed",
		zap.String("program_id", call.ProgramID.String()),
		zap.Int("accounts", len(state.order)),
	)
	return nil
}

func mergePrivileges(metas []entities.AccountMeta) map[valueobjects.Address]entities.AccountMeta {
	out := make(map[valueobjects.Address]entities.AccountMeta, len(metas))
	for _, meta := range metas {
		merged, ok := out[meta.Address]
		if !ok {
			out[meta.Address] = meta
			continue
		}
		merged.IsSigner = merged.IsSigner || meta.IsSigner
		merged.IsWritable = merged.IsWritable || meta.IsWritable
		out[meta.Address] = merged
	}
	return out
}

type callState struct {
	accounts map[valueobjects.Address]*entities.Account
	order    []valueobjects.Address
}

func loadCallState(
	ctx context.Context,
	store portsout.AccountStore,
	metas []entities.AccountMeta,
	privileges map[valueobjects.Address]entities.AccountMeta,
) (*callState, error) {
	state := &callState{accounts: make(map[valueobjects.Address]*entities.Account, len(privileges))}

	for _, meta := range metas {
		if _, loaded := state.accounts[meta.Address]; loaded {
			continue
		}

		var (
			account entities.Account
			appErr  *apperrors.AppError
		)
		if privileges[meta.Address].IsWritable {
			account, appErr = store.LoadAccountForUpdate(ctx, meta.Address)
		} else {
			account, appErr = store.LoadAccount(ctx, meta.Address)
		}
		if appErr != nil {
			return nil, newRuntimeError(CodeAccountLoadFailed, "failed to load account "+meta.Address.String(), appErr)
		}

		loaded := account
		state.accounts[meta.Address] = &loaded
		state.order = append(state.order, meta.Address)
	}

	return state, nil
}

type balanceTotal struct {
	hi uint64
	lo uint64
}

func (t *balanceTotal) add(amount uint64) {
	var carry uint64
	t.lo, carry = bits.Add64(t.lo, amount, 0)
	t.hi += carry
}

type stateSnapshot struct {
	accounts map[valueobjects.Address]entities.Account
	total    balanceTotal
}

func (s *callState) snapshot() stateSnapshot {
	out := stateSnapshot{accounts: make(map[valueobjects.Address]entities.Account, len(s.accounts))}
	for address, account := range s.accounts {
		out.accounts[address] = *account
		out.total.add(account.Lamports)
	}
	return out
}

func (s *callState) verify(before stateSnapshot, privileges map[valueobjects.Address]entities.AccountMeta) error {
	var after balanceTotal
	for address, account := range s.accounts {
		after.add(account.Lamports)
		if privileges[address].IsWritable {
			continue
		}
		if *account != before.accounts[address] {
			return newRuntimeError(CodeReadonlyAccountModified, "read-only account "+address.String()+" was modified", nil)
		}
	}

	if after != before.total {
		return newRuntimeError(CodeUnbalancedCall, "call changed the total lamports held by its accounts", nil)
	}
	return nil
}

type invocationFrame struct {
	runtime    *Runtime
	state      *callState
	programID  valueobjects.Address
	privileges map[valueobjects.Address]entities.AccountMeta
	depth      int
}

var _ execution.Invoker = (*invocationFrame)(nil)

func (f *invocationFrame) run(ctx context.Context, entry registration, instruction entities.Instruction) error {
	if entry.native {
		keyed := make([]system.KeyedAccount, 0, len(instruction.Accounts))
		for _, meta := range instruction.Accounts {
			keyed = append(keyed, system.KeyedAccount{
				Account:    f.state.accounts[meta.Address],
				IsSigner:   f.privileges[meta.Address].IsSigner,
				IsWritable: f.privileges[meta.Address].IsWritable,
			})
		}
		return system.Process(keyed, instruction.Data)
	}

	infos := make([]execution.AccountInfo, 0, len(instruction.Accounts))
	for _, meta := range instruction.Accounts {
		account := f.state.accounts[meta.Address]
		infos = append(infos, execution.AccountInfo{
			Address:    account.Address,
			Owner:      account.Owner,
			Lamports:   account.Lamports,
			Executable: account.Executable,
			IsSigner:   f.privileges[meta.Address].IsSigner,
			IsWritable: f.privileges[meta.Address].IsWritable,
		})
	}
	return entry.program.Process(ctx, f, f.programID, infos, instruction.Data)
}

func (f *invocationFrame) Invoke(ctx context.Context, instruction entities.Instruction) error {
	return f.InvokeSigned(ctx, instruction)
}

// InvokeSigned runs a sub-instruction with the caller's privileges, plus
// signer status for every address the seed tuples derive from the caller's
// program id.
func (f *invocationFrame) InvokeSigned(ctx context.Context, instruction entities.Instruction, signerSeeds ...[][]byte) error {
	if f.depth >= f.runtime.maxCallDepth {
		return newRuntimeError(CodeCallDepthExceeded, fmt.Sprintf("call depth %d exceeds limit", f.depth+1), nil)
	}

	derivedSigners, err := f.derivedSigners(signerSeeds)
	if err != nil {
		return err
	}

	if _, ok := f.privileges[instruction.ProgramID]; !ok {
		return newRuntimeError(CodeMissingAccount, "program account "+instruction.ProgramID.String()+" was not provided by the caller", nil)
	}
	entry, ok := f.runtime.lookup(instruction.ProgramID)
	if !ok {
		return newRuntimeError(CodeUnknownProgram, "program "+instruction.ProgramID.String()+" is not deployed", nil)
	}

	calleePrivileges := mergePrivileges(instruction.Accounts)
	for address, meta := range calleePrivileges {
		callerMeta, ok := f.privileges[address]
		if !ok {
			return newRuntimeError(CodeMissingAccount, "account "+address.String()+" was not provided by the caller", nil)
		}
		if meta.IsWritable && !callerMeta.IsWritable {
			return newRuntimeError(CodePrivilegeEscalation, "account "+address.String()+" is read-only for the caller", nil)
		}
		if !meta.IsSigner || callerMeta.IsSigner {
			continue
		}
		if _, derived := derivedSigners[address]; !derived {
			return newRuntimeError(CodeMissingRequiredSignature, "account "+address.String()+" requires a signature the caller cannot provide", nil)
		}
	}

	child := &invocationFrame{
		runtime:    f.runtime,
		state:      f.state,
		programID:  instruction.ProgramID,
		privileges: calleePrivileges,
		depth:      f.depth + 1,
	}
	return child.run(ctx, entry, instruction)
}

func (f *invocationFrame) derivedSigners(signerSeeds [][][]byte) (map[valueobjects.Address]struct{}, error) {
	out := make(map[valueobjects.Address]struct{}, len(signerSeeds))
	for _, seeds := range signerSeeds {
		address, err := derivation.CreateProgramAddress(seeds, f.programID)
		if err != nil {
			return nil, newRuntimeError(CodeInvalidSignerSeeds, "signer seeds do not derive an address for "+f.programID.String(), err)
		}
		out[address] = struct{}{}
	}
	return out, nil
}
