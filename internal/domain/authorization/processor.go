// Package authorization is the program that lets its own derived addresses
// spend. A caller proves control by supplying the seed and nonce that,
// hashed with this program's id, reproduce the address being debited; the
// program then re-presents that seed tuple to the runtime as the signature
// the address itself can never produce.
package authorization

import (
	"context"

	"invokesigned/internal/domain/derivation"
	"invokesigned/internal/domain/execution"
	"invokesigned/internal/domain/payload"
	"invokesigned/internal/domain/system"
	valueobjects "invokesigned/internal/domain/value_objects"

	"go.uber.org/zap"
)

type Processor struct {
	codec  payload.Codec
	logger *zap.Logger
}

var _ execution.Program = (*Processor)(nil)

func NewProcessor(codec payload.Codec, logger *zap.Logger) *Processor {
	if codec == nil {
		codec = payload.DefaultCodec
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		codec:  codec,
		logger: logger,
	}
}

func (p *Processor) Process(
	ctx context.Context,
	invoker execution.Invoker,
	programID valueobjects.Address,
	accounts []execution.AccountInfo,
	data []byte,
) error {
	accountSet, err := NewAccountSet(accounts)
	if err != nil {
		return err
	}

	return p.Authorize(ctx, invoker, programID, accountSet, data)
}

// Authorize validates the accounts, decodes the payload, proves the
// controlled address derives from ownerID and moves payload.Amount lamports
// from it to the recipient through a signed system transfer.
func (p *Processor) Authorize(
	ctx context.Context,
	invoker execution.Invoker,
	ownerID valueobjects.Address,
	accounts AccountSet,
	data []byte,
) error {
	if err := accounts.Validate(); err != nil {
		return err
	}

	decoded, err := p.codec.Decode(data)
	if err != nil {
		return &Error{
			Kind:    KindMalformedPayload,
			Message: "instruction data does not decode",
			Cause:   err,
		}
	}
	p.logger.Debug("authorization payload decoded",
		zap.String("program_id", ownerID.String()),
		zap.Stringer("payload", decoded),
	)

	seed := []byte(decoded.Seed)
	supplied := accounts.ControlledAddress.Address
	expected, err := derivation.Derive(ownerID, seed, decoded.Nonce)
	if err != nil || expected != supplied {
		fields := []zap.Field{
			zap.Bool("audit", true),
			zap.String("program_id", ownerID.String()),
			zap.String("supplied_address", supplied.String()),
			zap.String("seed", decoded.Seed),
			zap.Uint8("nonce", decoded.Nonce),
		}
		if err == nil {
			fields = append(fields, zap.String("expected_address", expected.String()))
		} else {
			fields = append(fields, zap.Error(err))
		}
		p.logger.Warn("derived address mismatch", fields...)

		return &Error{
			Kind:    KindAddressMismatch,
			Account: AccountControlledAddress,
			Message: "seed and nonce do not reproduce " + supplied.String(),
			Cause:   err,
		}
	}

	transfer := system.TransferInstruction(supplied, accounts.Recipient.Address, decoded.Amount)
	if err := invoker.InvokeSigned(ctx, transfer, derivation.SignerSeeds(seed, decoded.Nonce)); err != nil {
		return &Error{
			Kind:    KindDelegatedCallRejected,
			Message: "system transfer was rejected",
			Cause:   err,
		}
	}

	p.logger.Debug("delegated transfer authorized",
		zap.String("from", supplied.String()),
		zap.String("to", accounts.Recipient.Address.String()),
		zap.Uint64("lamports", decoded.Amount),
	)
	return nil
}
