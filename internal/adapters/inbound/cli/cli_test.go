package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invokesigned/internal/application/dto"
	"invokesigned/internal/domain/derivation"
	valueobjects "invokesigned/internal/domain/value_objects"
	"invokesigned/internal/infrastructure/config"
	"invokesigned/internal/infrastructure/di"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newLedgerServer(t *testing.T) string {
	t.Helper()
	return newLedgerServerWithCodec(t, config.PayloadCodecJSON)
}

func newLedgerServerWithCodec(t *testing.T, codec string) string {
	t.Helper()

	container, err := di.Build(config.Config{
		Port:               "0",
		LedgerStore:        config.LedgerStoreMemory,
		ProgramID:          valueobjects.MustParseAddress(defaultProgramID),
		PayloadCodec:       codec,
		AirdropMaxLamports: 10_000_000_000,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	appErr := container.InitializePersistenceUseCase.Execute(context.Background(), dto.InitializePersistenceCommand{
		ReadinessTimeout:       time.Second,
		ReadinessRetryInterval: 10 * time.Millisecond,
		Genesis: dto.Genesis{
			Programs: []dto.GenesisProgram{{Name: "authorization", Address: defaultProgramID}},
		},
	})
	require.Nil(t, appErr)

	server := httptest.NewServer(container.Handler)
	t.Cleanup(server.Close)
	return server.URL
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"derive", "airdrop", "balance", "transfer"} {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestRootRejectsInvalidFlags(t *testing.T) {
	_, err := execute(t, "derive", "--format", "yaml")
	assert.ErrorContains(t, err, `invalid format "yaml"`)

	_, err = execute(t, "derive", "--program-id", "not-base58-0OIl")
	assert.ErrorContains(t, err, "invalid --program-id")
}

func TestDeriveIsLocalAndVerifiable(t *testing.T) {
	ledgerURL := newLedgerServer(t)
	expected, nonce, err := derivation.FindProgramAddress(
		[][]byte{[]byte(defaultSeed)},
		valueobjects.MustParseAddress(defaultProgramID),
	)
	require.NoError(t, err)

	out, err := execute(t, "derive", "--ledger-url", ledgerURL, "--verify", "--format", "json")
	require.NoError(t, err)

	result := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, expected.String(), result["address"])
	assert.Equal(t, float64(nonce), result["nonce"])
	assert.Equal(t, defaultSeed, result["seed"])
}

func TestAirdropAndBalance(t *testing.T) {
	ledgerURL := newLedgerServer(t)
	address := valueobjects.AddressFromBytes([]byte("cli-airdrop-target")).String()

	out, err := execute(t, "airdrop", address, "--ledger-url", ledgerURL, "--lamports", "1500")
	require.NoError(t, err)
	assert.Contains(t, out, "lamports: 1500\n")

	out, err = execute(t, "balance", address, "--ledger-url", ledgerURL)
	require.NoError(t, err)
	assert.Contains(t, out, "address: "+address+"\n")
	assert.Contains(t, out, "lamports: 1500\n")
}

func TestAirdropOverCapReportsLedgerCode(t *testing.T) {
	ledgerURL := newLedgerServer(t)
	address := valueobjects.AddressFromBytes([]byte("cli-airdrop-target")).String()

	_, err := execute(t, "airdrop", address, "--ledger-url", ledgerURL, "--lamports", "10000000001")

	assert.ErrorContains(t, err, "invalid_request")
}

func TestTransferMovesLamportsOutOfDerivedAccount(t *testing.T) {
	for _, codec := range []string{config.PayloadCodecJSON, config.PayloadCodecBinary} {
		t.Run(codec, func(t *testing.T) {
			ledgerURL := newLedgerServerWithCodec(t, codec)
			recipient := valueobjects.AddressFromBytes([]byte("cli-recipient-" + codec)).String()

			out, err := execute(t,
				"transfer",
				"--ledger-url", ledgerURL,
				"--recipient", recipient,
				"--fund", "2000000000",
				"--lamports", "1000000000",
				"--codec", codec,
				"--format", "json",
			)
			require.NoError(t, err)

			result := map[string]any{}
			require.NoError(t, json.Unmarshal([]byte(out), &result))
			assert.Equal(t, "committed", result["status"])
			assert.Equal(t, recipient, result["recipient"])
			assert.Equal(t, "1000000000", result["recipient_lamports"])
			assert.Equal(t, "1000000000", result["derived_lamports"])
		})
	}
}

func TestTransferWithMismatchedCodecFails(t *testing.T) {
	ledgerURL := newLedgerServerWithCodec(t, config.PayloadCodecJSON)

	_, err := execute(t, "transfer", "--ledger-url", ledgerURL, "--codec", "binary")

	require.Error(t, err)
	assert.ErrorContains(t, err, "submit call")
	assert.ErrorContains(t, err, "call ")
}

func TestTransferRejectsOversizedSeedBeforeEncoding(t *testing.T) {
	seed := strings.Repeat("s", derivation.MaxSeedLength+1)

	_, err := execute(t, "transfer", "--seed", seed, "--codec", "binary", "--ledger-url", "http://127.0.0.1:1")

	require.Error(t, err)
	assert.ErrorContains(t, err, "derive address")
	assert.NotContains(t, err.Error(), "fund derived account")
}

func TestTransferRejectsUnknownCodec(t *testing.T) {
	_, err := execute(t, "transfer", "--codec", "protobuf", "--ledger-url", "http://127.0.0.1:1")

	assert.ErrorContains(t, err, `invalid --codec "protobuf"`)
}
