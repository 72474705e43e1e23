// Package cli implements the driver commands that exercise a running ledger
// over HTTP.
package cli

import (
	"fmt"
	"os"
	"slices"
	"time"

	"invokesigned/internal/adapters/outbound/ledgerclient"
	valueobjects "invokesigned/internal/domain/value_objects"

	"github.com/spf13/cobra"
)

const (
	defaultLedgerURL = "http://localhost:8080"
	defaultProgramID = "DerivedTransfer1111111111111111111111111111"
	defaultSeed      = "PROGRAM"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LedgerURL    string
	ProgramID    string
	Format       string
	Timeout      time.Duration
	PollAttempts int
	PollInterval time.Duration
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "driver",
		Short: "Drive delegated transfers against a ledger",
		Long: `Drive delegated transfers against a ledger.

The driver derives program addresses locally, funds accounts through the
ledger airdrop endpoint and submits signed calls that ask the authorization
program to move lamports out of its derived account.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, appErr := valueobjects.ParseAddress(opts.ProgramID); appErr != nil {
				return fmt.Errorf("invalid --program-id %q: %s", opts.ProgramID, appErr.Message)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LedgerURL, "ledger-url", envOr("LEDGER_URL", defaultLedgerURL), "ledger HTTP base URL")
	cmd.PersistentFlags().StringVar(&opts.ProgramID, "program-id", envOr("PROGRAM_ID", defaultProgramID), "authorization program address (base58)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "per request timeout")
	cmd.PersistentFlags().IntVar(&opts.PollAttempts, "poll-attempts", 10, "maximum call status polls")
	cmd.PersistentFlags().DurationVar(&opts.PollInterval, "poll-interval", 500*time.Millisecond, "delay between call status polls")

	cmd.AddCommand(NewDeriveCommand(opts))
	cmd.AddCommand(NewAirdropCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewTransferCommand(opts))

	return cmd
}

func (o *RootOptions) client() *ledgerclient.Client {
	return ledgerclient.New(ledgerclient.Config{
		BaseURL:      o.LedgerURL,
		Timeout:      o.Timeout,
		PollAttempts: o.PollAttempts,
		PollInterval: o.PollInterval,
	})
}

func (o *RootOptions) programID() valueobjects.Address {
	return valueobjects.MustParseAddress(o.ProgramID)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
