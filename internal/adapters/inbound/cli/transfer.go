package cli

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"invokesigned/internal/domain/authorization"
	"invokesigned/internal/domain/derivation"
	"invokesigned/internal/domain/entities"
	"invokesigned/internal/domain/payload"
	valueobjects "invokesigned/internal/domain/value_objects"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type TransferOptions struct {
	*RootOptions
	Seed      string
	Recipient string
	Fund      uint64
	Lamports  uint64
	Codec     string
}

func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransferOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move lamports out of the program's derived account",
		Long: `Move lamports out of the program's derived account.

The command derives the account for --seed, funds it with --fund lamports,
then submits a call signed by a throwaway payer key asking the program to
transfer --lamports to the recipient. A random recipient is used unless
--recipient is given.

Example:
  driver transfer --seed PROGRAM --fund 2000000000 --lamports 1000000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Seed, "seed", defaultSeed, "derivation seed")
	cmd.Flags().StringVar(&opts.Recipient, "recipient", "", "recipient address (base58), random when empty")
	cmd.Flags().Uint64Var(&opts.Fund, "fund", 2_000_000_000, "lamports airdropped to the derived account first, 0 to skip")
	cmd.Flags().Uint64Var(&opts.Lamports, "lamports", 1_000_000_000, "lamports to transfer")
	cmd.Flags().StringVar(&opts.Codec, "codec", "json", "instruction payload codec (json|binary)")

	return cmd
}

func runTransfer(cmd *cobra.Command, opts *TransferOptions) error {
	ctx := cmd.Context()
	client := opts.client()
	programID := opts.programID()

	codec, err := payloadCodec(opts.Codec)
	if err != nil {
		return err
	}

	// The nonce always comes from a fresh local search so that a stale value
	// can never be paired with a recomputed address.
	controlled, nonce, err := derivation.FindProgramAddress([][]byte{[]byte(opts.Seed)}, programID)
	if err != nil {
		return fmt.Errorf("derive address: %w", err)
	}

	recipient, err := resolveRecipient(opts.Recipient)
	if err != nil {
		return err
	}

	_, payerKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate payer key: %w", err)
	}
	payer := valueobjects.AddressFromBytes(payerKey.Public().(ed25519.PublicKey))

	if opts.Fund > 0 {
		if _, appErr := client.RequestAirdrop(ctx, controlled, opts.Fund); appErr != nil {
			return ledgerError("fund derived account", appErr)
		}
	}

	call := entities.Call{
		Instruction: authorization.NewInstruction(
			programID,
			payer,
			controlled,
			recipient,
			codec.Encode(opts.Seed, nonce, opts.Lamports),
		),
		Reference: uuid.NewString(),
	}
	signed := entities.SignedCall{
		Call:       call,
		Signatures: []entities.Signature{entities.SignCall(call, payerKey)},
	}

	if _, appErr := client.SubmitCall(ctx, signed); appErr != nil {
		return ledgerError("submit call", appErr)
	}

	resource, appErr := client.AwaitCall(ctx, call.Hash())
	if appErr != nil {
		return ledgerError("await call", appErr)
	}

	controlledBalance, appErr := client.Balance(ctx, controlled)
	if appErr != nil {
		return ledgerError("read derived balance", appErr)
	}
	recipientBalance, appErr := client.Balance(ctx, recipient)
	if appErr != nil {
		return ledgerError("read recipient balance", appErr)
	}

	return writeResult(cmd.OutOrStdout(), opts.Format, []field{
		{key: "call_hash", value: resource.Hash},
		{key: "status", value: resource.Status},
		{key: "payer", value: payer.String()},
		{key: "derived_address", value: controlled.String()},
		{key: "nonce", value: nonce},
		{key: "recipient", value: recipient.String()},
		{key: "derived_lamports", value: valueobjects.FormatAmountMinor(controlledBalance)},
		{key: "recipient_lamports", value: valueobjects.FormatAmountMinor(recipientBalance)},
	})
}

func payloadCodec(name string) (payload.Codec, error) {
	switch name {
	case "json":
		return payload.JSONCodec{}, nil
	case "binary":
		return payload.BinaryCodec{}, nil
	default:
		return nil, fmt.Errorf("invalid --codec %q: must be json or binary", name)
	}
}

func resolveRecipient(raw string) (valueobjects.Address, error) {
	if raw != "" {
		address, appErr := valueobjects.ParseAddress(raw)
		if appErr != nil {
			return valueobjects.Address{}, fmt.Errorf("invalid --recipient %q: %s", raw, appErr.Message)
		}
		return address, nil
	}

	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return valueobjects.Address{}, fmt.Errorf("generate recipient: %w", err)
	}
	return valueobjects.AddressFromBytes(publicKey), nil
}
