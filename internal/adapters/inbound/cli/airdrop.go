package cli

import (
	"fmt"

	valueobjects "invokesigned/internal/domain/value_objects"

	"github.com/spf13/cobra"
)

type AirdropOptions struct {
	*RootOptions
	Lamports uint64
}

func NewAirdropCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AirdropOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "airdrop <address>",
		Short: "Credit lamports to an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, appErr := valueobjects.ParseAddress(args[0])
			if appErr != nil {
				return fmt.Errorf("invalid address %q: %s", args[0], appErr.Message)
			}

			output, appErr := opts.client().RequestAirdrop(cmd.Context(), address, opts.Lamports)
			if appErr != nil {
				return ledgerError("airdrop", appErr)
			}

			return writeResult(cmd.OutOrStdout(), opts.Format, []field{
				{key: "address", value: output.Account.Address},
				{key: "lamports", value: output.Account.Lamports},
				{key: "call_hash", value: output.Call.Hash},
			})
		},
	}

	cmd.Flags().Uint64Var(&opts.Lamports, "lamports", 1_000_000_000, "lamports to credit")

	return cmd
}
