package cli

import (
	"fmt"

	"invokesigned/internal/domain/derivation"

	"github.com/spf13/cobra"
)

type DeriveOptions struct {
	*RootOptions
	Seed   string
	Verify bool
}

func NewDeriveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeriveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Find the derived address and nonce for a seed",
		Long: `Find the derived address and nonce for a seed.

The search runs locally. With --verify the ledger is asked for the same
derivation and the command fails when the answers differ.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerive(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Seed, "seed", defaultSeed, "derivation seed")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "compare with the ledger's derivation")

	return cmd
}

func runDerive(cmd *cobra.Command, opts *DeriveOptions) error {
	programID := opts.programID()
	address, nonce, err := derivation.FindProgramAddress([][]byte{[]byte(opts.Seed)}, programID)
	if err != nil {
		return fmt.Errorf("derive address: %w", err)
	}

	if opts.Verify {
		remote, appErr := opts.client().FindDerivedAddress(cmd.Context(), programID, opts.Seed)
		if appErr != nil {
			return ledgerError("verify derivation", appErr)
		}
		if remote.Address != address.String() || remote.Nonce != nonce {
			return fmt.Errorf(
				"ledger derivation %s/%d differs from local %s/%d",
				remote.Address, remote.Nonce, address, nonce,
			)
		}
	}

	return writeResult(cmd.OutOrStdout(), opts.Format, []field{
		{key: "program_id", value: programID.String()},
		{key: "seed", value: opts.Seed},
		{key: "address", value: address.String()},
		{key: "nonce", value: nonce},
	})
}
