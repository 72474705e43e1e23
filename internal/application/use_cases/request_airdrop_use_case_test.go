package use_cases

import (
	"context"
	"math"
	"testing"

	"invokesigned/internal/application/dto"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequestAirdropCreditsAccountAndRecordsCall(t *testing.T) {
	ledger := newFakeLedger()
	useCase := NewRequestAirdropUseCase(ledger, 10*lamportsPerSOL, fixedClock{now: fixtureNow}, zap.NewNop())
	address := valueobjects.AddressFromBytes([]byte("airdrop-target"))

	output, appErr := useCase.Execute(context.Background(), dto.RequestAirdropCommand{
		Address:  address.String(),
		Lamports: "2000000000",
	})
	require.Nil(t, appErr)

	assert.Equal(t, "2000000000", output.Account.Lamports)
	assert.Equal(t, valueobjects.SystemProgramAddress.String(), output.Account.Owner)
	assert.Equal(t, callKindAirdrop, output.Call.Kind)
	assert.Equal(t, "committed", output.Call.Status)
	assert.Equal(t, 2*lamportsPerSOL, ledger.balance(address))

	record, found := ledger.records[output.Call.Hash]
	require.True(t, found)
	assert.Equal(t, fixtureNow, record.ProcessedAt)

	second, appErr := useCase.Execute(context.Background(), dto.RequestAirdropCommand{
		Address:  address.String(),
		Lamports: "2000000000",
	})
	require.Nil(t, appErr)
	assert.NotEqual(t, output.Call.Hash, second.Call.Hash)
	assert.Equal(t, 4*lamportsPerSOL, ledger.balance(address))
}

func TestRequestAirdropRejections(t *testing.T) {
	program := valueobjects.AddressFromBytes([]byte("deployed-program"))
	rich := valueobjects.AddressFromBytes([]byte("rich"))
	ledger := newFakeLedger(
		entities.Account{Address: program, Owner: valueobjects.ProgramLoaderAddress, Executable: true},
		entities.Account{Address: rich, Owner: valueobjects.SystemProgramAddress, Lamports: math.MaxUint64 - 1},
	)
	useCase := NewRequestAirdropUseCase(ledger, 10*lamportsPerSOL, nil, nil)

	testCases := []struct {
		name    string
		command dto.RequestAirdropCommand
		errType apperrors.Type
		code    string
	}{
		{"bad address", dto.RequestAirdropCommand{Address: "nope!", Lamports: "1"}, apperrors.TypeValidation, "invalid_address"},
		{"zero lamports", dto.RequestAirdropCommand{Address: rich.String(), Lamports: "0"}, apperrors.TypeValidation, "invalid_request"},
		{"over limit", dto.RequestAirdropCommand{Address: rich.String(), Lamports: "10000000001"}, apperrors.TypeValidation, "invalid_request"},
		{"non numeric", dto.RequestAirdropCommand{Address: rich.String(), Lamports: "1e9"}, apperrors.TypeValidation, "invalid_request"},
		{"program account", dto.RequestAirdropCommand{Address: program.String(), Lamports: "1"}, apperrors.TypeValidation, "invalid_account_owner"},
		{"overflow", dto.RequestAirdropCommand{Address: rich.String(), Lamports: "2"}, apperrors.TypeRejected, "arithmetic_overflow"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, appErr := useCase.Execute(context.Background(), tc.command)
			require.NotNil(t, appErr)
			assert.Equal(t, tc.errType, appErr.Type)
			assert.Equal(t, tc.code, appErr.Code)
		})
	}

	assert.Equal(t, uint64(math.MaxUint64-1), ledger.balance(rich))
	assert.Empty(t, ledger.records)
}

func TestRequestAirdropDisabled(t *testing.T) {
	useCase := NewRequestAirdropUseCase(newFakeLedger(), 0, nil, nil)

	_, appErr := useCase.Execute(context.Background(), dto.RequestAirdropCommand{
		Address:  valueobjects.AddressFromBytes([]byte("x")).String(),
		Lamports: "1",
	})
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.TypeForbidden, appErr.Type)
	assert.Equal(t, "airdrop_disabled", appErr.Code)
}
