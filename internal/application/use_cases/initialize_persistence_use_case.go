package use_cases

import (
	"context"
	"strconv"
	"time"

	"invokesigned/internal/application/dto"
	portsin "invokesigned/internal/application/ports/in"
	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/domain/entities"
	valueobjects "invokesigned/internal/domain/value_objects"
	apperrors "invokesigned/internal/shared_kernel/errors"
)

type initializePersistenceUseCase struct {
	gateway portsout.PersistenceBootstrapGateway
}

func NewInitializePersistenceUseCase(gateway portsout.PersistenceBootstrapGateway) portsin.InitializePersistenceUseCase {
	return &initializePersistenceUseCase{
		gateway: gateway,
	}
}

func (u *initializePersistenceUseCase) Execute(ctx context.Context, command dto.InitializePersistenceCommand) *apperrors.AppError {
	if u.gateway == nil {
		return apperrors.NewInternal(
			"PERSISTENCE_GATEWAY_MISSING",
			"persistence gateway is required",
			nil,
		)
	}

	if command.ReadinessTimeout <= 0 {
		return apperrors.NewValidation(
			"READINESS_TIMEOUT_INVALID",
			"readiness timeout must be greater than zero",
			nil,
		)
	}

	if command.ReadinessRetryInterval <= 0 {
		return apperrors.NewValidation(
			"READINESS_RETRY_INTERVAL_INVALID",
			"readiness retry interval must be greater than zero",
			nil,
		)
	}

	readinessCtx, cancel := context.WithTimeout(ctx, command.ReadinessTimeout)
	defer cancel()

	attempts := 0
	for {
		attempts++
		appErr := u.gateway.CheckReadiness(readinessCtx)
		if appErr == nil {
			break
		}

		if readinessCtx.Err() != nil {
			return apperrors.NewInternal(
				"DB_READINESS_TIMEOUT",
				"database readiness check timed out",
				map[string]any{
					"attempts":  strconv.Itoa(attempts),
					"timeout":   command.ReadinessTimeout.String(),
					"last_code": appErr.Code,
				},
			)
		}

		timer := time.NewTimer(command.ReadinessRetryInterval)
		select {
		case <-readinessCtx.Done():
			timer.Stop()
			return apperrors.NewInternal(
				"DB_READINESS_TIMEOUT",
				"database readiness check timed out",
				map[string]any{
					"attempts": strconv.Itoa(attempts),
					"timeout":  command.ReadinessTimeout.String(),
				},
			)
		case <-timer.C:
		}
	}

	if migrationErr := u.gateway.RunMigrations(ctx); migrationErr != nil {
		return migrationErr
	}

	accounts, genesisErr := genesisAccounts(command.Genesis)
	if genesisErr != nil {
		return genesisErr
	}

	return u.gateway.SeedAccounts(ctx, accounts)
}

// genesisAccounts turns the genesis listing into ledger accounts. Programs
// become executable accounts owned by the loader; plain accounts are system
// owned. A program address listed twice is rejected.
func genesisAccounts(genesis dto.Genesis) ([]entities.Account, *apperrors.AppError) {
	accounts := make([]entities.Account, 0, len(genesis.Programs)+len(genesis.Accounts))
	seen := make(map[valueobjects.Address]struct{}, cap(accounts))

	for index, program := range genesis.Programs {
		address, appErr := valueobjects.ParseAddress(program.Address)
		if appErr != nil {
			return nil, appErr.WithDetail("field", "programs["+strconv.Itoa(index)+"].address")
		}
		if _, duplicate := seen[address]; duplicate {
			return nil, apperrors.NewValidation(
				"GENESIS_DUPLICATE_ADDRESS",
				"genesis lists an address more than once",
				map[string]any{"address": address.String()},
			)
		}
		seen[address] = struct{}{}
		accounts = append(accounts, entities.Account{
			Address:    address,
			Owner:      valueobjects.ProgramLoaderAddress,
			Executable: true,
		})
	}

	for index, account := range genesis.Accounts {
		field := "accounts[" + strconv.Itoa(index) + "]"
		address, appErr := valueobjects.ParseAddress(account.Address)
		if appErr != nil {
			return nil, appErr.WithDetail("field", field+".address")
		}
		if _, duplicate := seen[address]; duplicate {
			return nil, apperrors.NewValidation(
				"GENESIS_DUPLICATE_ADDRESS",
				"genesis lists an address more than once",
				map[string]any{"address": address.String()},
			)
		}
		seen[address] = struct{}{}
		lamports, appErr := valueobjects.ParseAmountMinor(field+".lamports", account.Lamports)
		if appErr != nil {
			return nil, appErr
		}
		seeded := entities.NewSystemAccount(address)
		seeded.Lamports = lamports
		accounts = append(accounts, seeded)
	}

	return accounts, nil
}
