package out

import (
	"context"

	"invokesigned/internal/domain/entities"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type PersistenceBootstrapGateway interface {
	CheckReadiness(ctx context.Context) *apperrors.AppError
	RunMigrations(ctx context.Context) *apperrors.AppError
	// SeedAccounts stores each account that does not exist yet and leaves
	// existing ones untouched.
	SeedAccounts(ctx context.Context, accounts []entities.Account) *apperrors.AppError
}
