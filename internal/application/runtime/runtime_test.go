package runtime

import (
	"context"
	"errors"
	"testing"

	"invokesigned/internal/domain/authorization"
	"invokesigned/internal/domain/derivation"
	"invokesigned/internal/domain/entities"
	"invokesigned/internal/domain/execution"
	"invokesigned/internal/domain/payload"
	"invokesigned/internal/domain/system"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const lamportsPerSOL = uint64(1_000_000_000)

type mapStore struct {
	accounts map[valueobjects.Address]entities.Account
	stores   int
}

func newMapStore(accounts ...entities.Account) *mapStore {
	store := &mapStore{accounts: map[valueobjects.Address]entities.Account{}}
	for _, account := range accounts {
		store.accounts[account.Address] = account
	}
	return store
}

func (s *mapStore) LoadAccount(_ context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	account, ok := s.accounts[address]
	if !ok {
		return entities.NewSystemAccount(address), nil
	}
	return account, nil
}

func (s *mapStore) LoadAccountForUpdate(ctx context.Context, address valueobjects.Address) (entities.Account, *apperrors.AppError) {
	return s.LoadAccount(ctx, address)
}

func (s *mapStore) StoreAccount(_ context.Context, account entities.Account) *apperrors.AppError {
	s.stores++
	s.accounts[account.Address] = account
	return nil
}

type scenario struct {
	runtime    *Runtime
	store      *mapStore
	programID  valueobjects.Address
	payer      valueobjects.Address
	controlled valueobjects.Address
	recipient  valueobjects.Address
	nonce      uint8
}

func newScenario(t *testing.T, controlledLamports uint64) scenario {
	t.Helper()

	programID := valueobjects.AddressFromBytes([]byte("authorization-program"))
	controlled, nonce, err := derivation.FindProgramAddress([][]byte{[]byte("PROGRAM")}, programID)
	require.NoError(t, err)

	r := New(zap.NewNop())
	r.Register(programID, authorization.NewProcessor(nil, zap.NewNop()))

	payer := valueobjects.AddressFromBytes([]byte("payer"))
	recipient := valueobjects.AddressFromBytes([]byte("recipient"))
	store := newMapStore(
		entities.Account{Address: programID, Owner: valueobjects.ProgramLoaderAddress, Executable: true},
		entities.Account{Address: controlled, Owner: valueobjects.SystemProgramAddress, Lamports: controlledLamports},
		entities.Account{Address: payer, Owner: valueobjects.SystemProgramAddress, Lamports: 5},
	)

	return scenario{
		runtime:    r,
		store:      store,
		programID:  programID,
		payer:      payer,
		controlled: controlled,
		recipient:  recipient,
		nonce:      nonce,
	}
}

func (s scenario) call(amount uint64) entities.Call {
	return entities.Call{
		Instruction: entities.Instruction{
			ProgramID: s.programID,
			Accounts: []entities.AccountMeta{
				entities.NewWritableMeta(s.payer, true),
				entities.NewWritableMeta(s.controlled, false),
				entities.NewWritableMeta(s.recipient, false),
				entities.NewReadonlyMeta(valueobjects.SystemProgramAddress, false),
			},
			Data: payload.Encode("PROGRAM", s.nonce, amount),
		},
		Reference: "test",
	}
}

func (s scenario) signers() map[valueobjects.Address]struct{} {
	return map[valueobjects.Address]struct{}{s.payer: {}}
}

func TestExecuteDelegatedTransferScenario(t *testing.T) {
	s := newScenario(t, 2*lamportsPerSOL)

	err := s.runtime.Execute(context.Background(), s.store, s.call(lamportsPerSOL), s.signers())
	require.NoError(t, err)

	assert.Equal(t, lamportsPerSOL, s.store.accounts[s.controlled].Lamports)
	assert.Equal(t, lamportsPerSOL, s.store.accounts[s.recipient].Lamports)
	assert.Equal(t, uint64(5), s.store.accounts[s.payer].Lamports)
}

func TestExecuteInsufficientBalanceLeavesStoreUntouched(t *testing.T) {
	s := newScenario(t, lamportsPerSOL-1)

	err := s.runtime.Execute(context.Background(), s.store, s.call(lamportsPerSOL), s.signers())
	require.ErrorIs(t, err, authorization.ErrDelegatedCallRejected)

	var systemErr *system.SystemError
	require.True(t, errors.As(err, &systemErr))
	assert.Equal(t, system.CodeInsufficientFunds, systemErr.Code)
	assert.Zero(t, s.store.stores)
	assert.Equal(t, lamportsPerSOL-1, s.store.accounts[s.controlled].Lamports)
}

func TestExecuteZeroAmount(t *testing.T) {
	s := newScenario(t, 7)

	require.NoError(t, s.runtime.Execute(context.Background(), s.store, s.call(0), s.signers()))
	assert.Equal(t, uint64(7), s.store.accounts[s.controlled].Lamports)
	assert.Zero(t, s.store.accounts[s.recipient].Lamports)
}

func TestExecuteRequiresVerifiedSigner(t *testing.T) {
	s := newScenario(t, 10)

	err := s.runtime.Execute(context.Background(), s.store, s.call(1), map[valueobjects.Address]struct{}{})

	var runtimeErr *Error
	require.True(t, errors.As(err, &runtimeErr))
	assert.Equal(t, CodeMissingRequiredSignature, runtimeErr.Code)
}

func TestExecuteUnknownAndUndeployedPrograms(t *testing.T) {
	s := newScenario(t, 10)

	call := s.call(1)
	call.ProgramID = valueobjects.AddressFromBytes([]byte("nobody"))
	err := s.runtime.Execute(context.Background(), s.store, call, s.signers())
	var runtimeErr *Error
	require.True(t, errors.As(err, &runtimeErr))
	assert.Equal(t, CodeUnknownProgram, runtimeErr.Code)

	delete(s.store.accounts, s.programID)
	err = s.runtime.Execute(context.Background(), s.store, s.call(1), s.signers())
	require.True(t, errors.As(err, &runtimeErr))
	assert.Equal(t, CodeProgramNotExecutable, runtimeErr.Code)
}

func TestExecuteDirectSystemTransfer(t *testing.T) {
	s := newScenario(t, 0)

	call := entities.Call{Instruction: system.TransferInstruction(s.payer, s.recipient, 3)}
	require.NoError(t, s.runtime.Execute(context.Background(), s.store, call, s.signers()))

	assert.Equal(t, uint64(2), s.store.accounts[s.payer].Lamports)
	assert.Equal(t, uint64(3), s.store.accounts[s.recipient].Lamports)
}

func TestInvokeSignedRejectsForeignSeeds(t *testing.T) {
	s := newScenario(t, 10)
	thiefID := valueobjects.AddressFromBytes([]byte("thief-program"))
	s.store.accounts[thiefID] = entities.Account{Address: thiefID, Owner: valueobjects.ProgramLoaderAddress, Executable: true}

	// the thief knows the seed and nonce but derives under its own id
	s.runtime.Register(thiefID, execution.ProgramFunc(func(ctx context.Context, invoker execution.Invoker, _ valueobjects.Address, accounts []execution.AccountInfo, _ []byte) error {
		transfer := system.TransferInstruction(accounts[1].Address, accounts[2].Address, 10)
		return invoker.InvokeSigned(ctx, transfer, derivation.SignerSeeds([]byte("PROGRAM"), s.nonce))
	}))

	call := s.call(10)
	call.ProgramID = thiefID
	err := s.runtime.Execute(context.Background(), s.store, call, s.signers())

	var runtimeErr *Error
	require.True(t, errors.As(err, &runtimeErr))
	assert.Contains(t, []ErrorCode{CodeMissingRequiredSignature, CodeInvalidSignerSeeds}, runtimeErr.Code)
	assert.Equal(t, uint64(10), s.store.accounts[s.controlled].Lamports)
}

func TestInvokeRejectsPrivilegeEscalation(t *testing.T) {
	s := newScenario(t, 10)
	escalatorID := valueobjects.AddressFromBytes([]byte("escalator"))
	s.store.accounts[escalatorID] = entities.Account{Address: escalatorID, Owner: valueobjects.ProgramLoaderAddress, Executable: true}

	s.runtime.Register(escalatorID, execution.ProgramFunc(func(ctx context.Context, invoker execution.Invoker, _ valueobjects.Address, accounts []execution.AccountInfo, _ []byte) error {
		return invoker.Invoke(ctx, system.TransferInstruction(accounts[0].Address, accounts[1].Address, 1))
	}))

	call := entities.Call{Instruction: entities.Instruction{
		ProgramID: escalatorID,
		Accounts: []entities.AccountMeta{
			entities.NewWritableMeta(s.payer, true),
			entities.NewReadonlyMeta(s.recipient, false),
			entities.NewReadonlyMeta(valueobjects.SystemProgramAddress, false),
		},
	}}
	err := s.runtime.Execute(context.Background(), s.store, call, s.signers())

	var runtimeErr *Error
	require.True(t, errors.As(err, &runtimeErr))
	assert.Equal(t, CodePrivilegeEscalation, runtimeErr.Code)
}

func TestExecuteRejectsImpostorSystemAuthority(t *testing.T) {
	s := newScenario(t, 10)

	call := s.call(1)
	call.Accounts = call.Accounts[:3]
	call.Accounts = append(call.Accounts, entities.NewReadonlyMeta(valueobjects.AddressFromBytes([]byte("not-system")), false))

	err := s.runtime.Execute(context.Background(), s.store, call, s.signers())
	require.ErrorIs(t, err, authorization.ErrInvalidAccountState)
}

func TestInvokeDepthLimit(t *testing.T) {
	s := newScenario(t, 10)
	recursiveID := valueobjects.AddressFromBytes([]byte("recursive"))
	s.store.accounts[recursiveID] = entities.Account{Address: recursiveID, Owner: valueobjects.ProgramLoaderAddress, Executable: true}

	s.runtime.Register(recursiveID, execution.ProgramFunc(func(ctx context.Context, invoker execution.Invoker, programID valueobjects.Address, _ []execution.AccountInfo, _ []byte) error {
		return invoker.Invoke(ctx, entities.Instruction{
			ProgramID: programID,
			Accounts:  []entities.AccountMeta{entities.NewReadonlyMeta(programID, false)},
		})
	}))

	call := entities.Call{Instruction: entities.Instruction{
		ProgramID: recursiveID,
		Accounts:  []entities.AccountMeta{entities.NewReadonlyMeta(recursiveID, false)},
	}}
	err := s.runtime.Execute(context.Background(), s.store, call, s.signers())

	var runtimeErr *Error
	require.True(t, errors.As(err, &runtimeErr))
	assert.Equal(t, CodeCallDepthExceeded, runtimeErr.Code)
}
