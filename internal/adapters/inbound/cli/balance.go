package cli

import (
	"fmt"

	valueobjects "invokesigned/internal/domain/value_objects"

	"github.com/spf13/cobra"
)

func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>",
		Short: "Show the lamports held by an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, appErr := valueobjects.ParseAddress(args[0])
			if appErr != nil {
				return fmt.Errorf("invalid address %q: %s", args[0], appErr.Message)
			}

			account, appErr := rootOpts.client().GetAccount(cmd.Context(), address)
			if appErr != nil {
				return ledgerError("balance", appErr)
			}

			return writeResult(cmd.OutOrStdout(), rootOpts.Format, []field{
				{key: "address", value: account.Address},
				{key: "lamports", value: account.Lamports},
				{key: "owner", value: account.Owner},
			})
		},
	}
}
