package authorization

import (
	"context"
	"errors"
	"testing"

	"invokesigned/internal/domain/derivation"
	"invokesigned/internal/domain/entities"
	"invokesigned/internal/domain/execution"
	"invokesigned/internal/domain/payload"
	"invokesigned/internal/domain/system"
	valueobjects "invokesigned/internal/domain/value_objects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const scenarioAmount = uint64(1_000_000_000)

type fixture struct {
	programID  valueobjects.Address
	payer      valueobjects.Address
	controlled valueobjects.Address
	recipient  valueobjects.Address
	nonce      uint8
	invoker    *fakeInvoker
}

func newFixture(t *testing.T, controlledBalance uint64) fixture {
	t.Helper()

	programID := valueobjects.AddressFromBytes([]byte("authorization-program-id-0000001"))
	controlled, nonce, err := derivation.FindProgramAddress([][]byte{[]byte("PROGRAM")}, programID)
	require.NoError(t, err)

	payer := valueobjects.AddressFromBytes([]byte("payer"))
	recipient := valueobjects.AddressFromBytes([]byte("recipient"))

	return fixture{
		programID:  programID,
		payer:      payer,
		controlled: controlled,
		recipient:  recipient,
		nonce:      nonce,
		invoker: &fakeInvoker{
			programID: programID,
			balances: map[valueobjects.Address]uint64{
				controlled: controlledBalance,
				recipient:  0,
			},
		},
	}
}

func (f fixture) accounts() []execution.AccountInfo {
	return []execution.AccountInfo{
		{Address: f.payer, IsSigner: true, IsWritable: true},
		{Address: f.controlled, IsWritable: true, Lamports: f.invoker.balances[f.controlled]},
		{Address: f.recipient, IsWritable: true},
		{Address: valueobjects.SystemProgramAddress, Executable: true},
	}
}

type fakeInvoker struct {
	programID valueobjects.Address
	balances  map[valueobjects.Address]uint64
	calls     int
}

func (f *fakeInvoker) Invoke(ctx context.Context, instruction entities.Instruction) error {
	return f.InvokeSigned(ctx, instruction)
}

func (f *fakeInvoker) InvokeSigned(_ context.Context, instruction entities.Instruction, signerSeeds ...[][]byte) error {
	f.calls++

	from := &entities.Account{Address: instruction.Accounts[0].Address, Lamports: f.balances[instruction.Accounts[0].Address]}
	to := &entities.Account{Address: instruction.Accounts[1].Address, Lamports: f.balances[instruction.Accounts[1].Address]}

	signed := false
	for _, seeds := range signerSeeds {
		address, err := derivation.CreateProgramAddress(seeds, f.programID)
		if err == nil && address == from.Address {
			signed = true
		}
	}

	err := system.Process([]system.KeyedAccount{
		{Account: from, IsSigner: signed, IsWritable: true},
		{Account: to, IsWritable: true},
	}, instruction.Data)
	if err != nil {
		return err
	}

	f.balances[from.Address] = from.Lamports
	f.balances[to.Address] = to.Lamports
	return nil
}

func TestAuthorizeTransfersFromDerivedAddress(t *testing.T) {
	f := newFixture(t, 2*scenarioAmount)
	processor := NewProcessor(nil, zap.NewNop())

	err := processor.Process(context.Background(), f.invoker, f.programID, f.accounts(), payload.Encode("PROGRAM", f.nonce, scenarioAmount))
	require.NoError(t, err)

	assert.Equal(t, scenarioAmount, f.invoker.balances[f.recipient])
	assert.Equal(t, scenarioAmount, f.invoker.balances[f.controlled])
	assert.Equal(t, 1, f.invoker.calls)
}

func TestAuthorizeInsufficientBalanceIsRejected(t *testing.T) {
	f := newFixture(t, scenarioAmount-1)
	processor := NewProcessor(nil, zap.NewNop())

	err := processor.Process(context.Background(), f.invoker, f.programID, f.accounts(), payload.Encode("PROGRAM", f.nonce, scenarioAmount))
	require.ErrorIs(t, err, ErrDelegatedCallRejected)

	var systemErr *system.SystemError
	require.True(t, errors.As(err, &systemErr))
	assert.Equal(t, system.CodeInsufficientFunds, systemErr.Code)
	assert.Equal(t, scenarioAmount-1, f.invoker.balances[f.controlled])
	assert.Zero(t, f.invoker.balances[f.recipient])
}

func TestAuthorizeZeroAmountSucceedsWithoutBalanceChange(t *testing.T) {
	f := newFixture(t, 500)
	processor := NewProcessor(nil, zap.NewNop())

	err := processor.Process(context.Background(), f.invoker, f.programID, f.accounts(), payload.Encode("PROGRAM", f.nonce, 0))
	require.NoError(t, err)

	assert.Equal(t, uint64(500), f.invoker.balances[f.controlled])
	assert.Zero(t, f.invoker.balances[f.recipient])
	assert.Equal(t, 1, f.invoker.calls)
}

func TestAuthorizeRejectsSubstitutedControlledAddress(t *testing.T) {
	f := newFixture(t, 2*scenarioAmount)
	core, logs := observer.New(zapcore.DebugLevel)
	processor := NewProcessor(nil, zap.New(core))

	substitutes := map[string]valueobjects.Address{
		"unrelated key": valueobjects.AddressFromBytes([]byte("somebody else")),
	}
	otherProgramPDA, _, err := derivation.FindProgramAddress([][]byte{[]byte("PROGRAM")}, valueobjects.AddressFromBytes([]byte("other program")))
	require.NoError(t, err)
	substitutes["valid address of another program"] = otherProgramPDA
	otherSeedPDA, _, err := derivation.FindProgramAddress([][]byte{[]byte("OTHER")}, f.programID)
	require.NoError(t, err)
	substitutes["valid address for another seed"] = otherSeedPDA

	for name, substitute := range substitutes {
		t.Run(name, func(t *testing.T) {
			accounts := f.accounts()
			accounts[1].Address = substitute

			err := processor.Process(context.Background(), f.invoker, f.programID, accounts, payload.Encode("PROGRAM", f.nonce, 1))
			require.ErrorIs(t, err, ErrAddressMismatch)
		})
	}

	assert.Zero(t, f.invoker.calls)
	audit := logs.FilterMessage("derived address mismatch").All()
	require.Len(t, audit, len(substitutes))
	assert.Equal(t, zapcore.WarnLevel, audit[0].Level)
	assert.Equal(t, true, audit[0].ContextMap()["audit"])
}

func TestAuthorizeRejectsWrongNonce(t *testing.T) {
	f := newFixture(t, 10)
	processor := NewProcessor(nil, zap.NewNop())

	err := processor.Process(context.Background(), f.invoker, f.programID, f.accounts(), payload.Encode("PROGRAM", f.nonce-1, 1))
	require.ErrorIs(t, err, ErrAddressMismatch)
	assert.Zero(t, f.invoker.calls)
}

func TestAuthorizeRejectsOverlongSeedAsMismatch(t *testing.T) {
	f := newFixture(t, 10)
	processor := NewProcessor(nil, zap.NewNop())

	err := processor.Process(context.Background(), f.invoker, f.programID, f.accounts(), payload.Encode("a-seed-that-is-longer-than-thirty-two-bytes", f.nonce, 1))
	require.ErrorIs(t, err, ErrAddressMismatch)

	var derivationErr *derivation.DerivationError
	require.True(t, errors.As(err, &derivationErr))
	assert.Equal(t, derivation.CodeMaxSeedLengthExceeded, derivationErr.Code)
}

func TestAuthorizeMalformedPayload(t *testing.T) {
	f := newFixture(t, 10)
	processor := NewProcessor(nil, zap.NewNop())

	err := processor.Process(context.Background(), f.invoker, f.programID, f.accounts(), []byte("invoke_signed\xfe"))
	require.ErrorIs(t, err, ErrMalformedPayload)

	var payloadErr *payload.Error
	assert.True(t, errors.As(err, &payloadErr))
	assert.Zero(t, f.invoker.calls)
}

func TestAuthorizeAccountInvariants(t *testing.T) {
	testCases := []struct {
		name              string
		mutate            func(accounts []execution.AccountInfo) []execution.AccountInfo
		expectedAccount   string
		expectedInvariant string
	}{
		{
			name: "payer not signer",
			mutate: func(accounts []execution.AccountInfo) []execution.AccountInfo {
				accounts[0].IsSigner = false
				return accounts
			},
			expectedAccount:   AccountPayer,
			expectedInvariant: InvariantSigner,
		},
		{
			name: "payer read-only",
			mutate: func(accounts []execution.AccountInfo) []execution.AccountInfo {
				accounts[0].IsWritable = false
				return accounts
			},
			expectedAccount:   AccountPayer,
			expectedInvariant: InvariantWritable,
		},
		{
			name: "controlled read-only",
			mutate: func(accounts []execution.AccountInfo) []execution.AccountInfo {
				accounts[1].IsWritable = false
				return accounts
			},
			expectedAccount:   AccountControlledAddress,
			expectedInvariant: InvariantWritable,
		},
		{
			name: "controlled owned by another program",
			mutate: func(accounts []execution.AccountInfo) []execution.AccountInfo {
				accounts[1].Owner = valueobjects.ProgramLoaderAddress
				return accounts
			},
			expectedAccount:   AccountControlledAddress,
			expectedInvariant: InvariantOwnedBySystem,
		},
		{
			name: "impostor system authority",
			mutate: func(accounts []execution.AccountInfo) []execution.AccountInfo {
				accounts[3].Address = valueobjects.AddressFromBytes([]byte("fake system"))
				return accounts
			},
			expectedAccount:   AccountSystemAuthority,
			expectedInvariant: InvariantSystemAuthorityIdentity,
		},
		{
			name: "missing account",
			mutate: func(accounts []execution.AccountInfo) []execution.AccountInfo {
				return accounts[:3]
			},
			expectedAccount:   "set",
			expectedInvariant: InvariantAccountCount,
		},
		{
			name: "extra account",
			mutate: func(accounts []execution.AccountInfo) []execution.AccountInfo {
				return append(accounts, accounts[0])
			},
			expectedAccount:   "set",
			expectedInvariant: InvariantAccountCount,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			f := newFixture(t, 10)
			processor := NewProcessor(nil, zap.NewNop())

			// an undecodable payload proves the account checks run first
			err := processor.Process(context.Background(), f.invoker, f.programID, testCase.mutate(f.accounts()), []byte("not a payload"))

			var authErr *Error
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, KindInvalidAccountState, authErr.Kind)
			assert.Equal(t, testCase.expectedAccount, authErr.Account)
			assert.Equal(t, testCase.expectedInvariant, authErr.Invariant)
			assert.Zero(t, f.invoker.calls)
		})
	}
}

func TestAuthorizeWithBinaryCodec(t *testing.T) {
	f := newFixture(t, 100)
	codec := payload.BinaryCodec{}
	processor := NewProcessor(codec, zap.NewNop())

	err := processor.Process(context.Background(), f.invoker, f.programID, f.accounts(), codec.Encode("PROGRAM", f.nonce, 40))
	require.NoError(t, err)
	assert.Equal(t, uint64(60), f.invoker.balances[f.controlled])
	assert.Equal(t, uint64(40), f.invoker.balances[f.recipient])
}
