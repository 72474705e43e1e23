package out

import (
	"context"

	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
)

type CallExecutor interface {
	Execute(ctx context.Context, accounts AccountStore, call entities.Call, signers map[valueobjects.Address]struct{}) error
}
