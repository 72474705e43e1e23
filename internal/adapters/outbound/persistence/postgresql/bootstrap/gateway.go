package bootstrap

import (
	"context"
	"database/sql"
	stderrors "errors"
	"path/filepath"
	"strconv"

	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/domain/entities"
	apperrors "invokesigned/internal/shared_kernel/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

type Gateway struct {
	databaseURL    string
	databaseTarget string
	migrationsPath string
	logger         *zap.Logger
}

var _ portsout.PersistenceBootstrapGateway = (*Gateway)(nil)

func NewGateway(
	databaseURL string,
	databaseTarget string,
	migrationsPath string,
	logger *zap.Logger,
) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Gateway{
		databaseURL:    databaseURL,
		databaseTarget: databaseTarget,
		migrationsPath: migrationsPath,
		logger:         logger.With(zap.String("database_target", databaseTarget)),
	}
}

func (g *Gateway) CheckReadiness(ctx context.Context) *apperrors.AppError {
	db, err := sql.Open("pgx", g.databaseURL)
	if err != nil {
		g.logger.Warn("database connection initialization failed", zap.Error(err))
		return apperrors.NewInternal(
			"DB_CONNECT_INIT_FAILED",
			"failed to initialize database connection",
			map[string]any{"database_target": g.databaseTarget},
		)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		g.logger.Warn("database readiness check failed", zap.Error(err))
		return apperrors.NewInternal(
			"DB_CONNECT_FAILED",
			"failed to connect to database",
			map[string]any{"database_target": g.databaseTarget},
		)
	}

	g.logger.Info("database readiness check succeeded")
	return nil
}

func (g *Gateway) RunMigrations(ctx context.Context) *apperrors.AppError {
	if err := ctx.Err(); err != nil {
		return apperrors.NewInternal(
			"DB_MIGRATION_CONTEXT_CANCELED",
			"migration context canceled",
			map[string]any{"database_target": g.databaseTarget},
		)
	}

	migrationsAbsPath, err := filepath.Abs(g.migrationsPath)
	if err != nil {
		return apperrors.NewInternal(
			"DB_MIGRATION_PATH_RESOLVE_FAILED",
			"failed to resolve migration path",
			map[string]any{"migrations_path": g.migrationsPath},
		)
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsAbsPath)
	migrationRunner, err := migrate.New(sourceURL, g.databaseURL)
	if err != nil {
		g.logger.Error("migration runner setup failed", zap.Error(err))
		return apperrors.NewInternal(
			"DB_MIGRATION_SETUP_FAILED",
			"failed to initialize migration runner",
			map[string]any{
				"database_target": g.databaseTarget,
				"migrations_path": g.migrationsPath,
			},
		)
	}

	defer func() {
		sourceErr, dbErr := migrationRunner.Close()
		if sourceErr != nil {
			g.logger.Warn("migration source close warning", zap.String("path", g.migrationsPath), zap.Error(sourceErr))
		}
		if dbErr != nil {
			g.logger.Warn("migration db close warning", zap.Error(dbErr))
		}
	}()

	err = migrationRunner.Up()
	if err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		g.logger.Error("database migrations failed", zap.Error(err))
		return apperrors.NewInternal(
			"DB_MIGRATION_APPLY_FAILED",
			"failed to apply migrations",
			map[string]any{
				"database_target": g.databaseTarget,
				"migrations_path": g.migrationsPath,
			},
		)
	}

	if stderrors.Is(err, migrate.ErrNoChange) {
		g.logger.Info("database migrations up to date")
	} else {
		g.logger.Info("database migrations applied")
	}

	return nil
}

func (g *Gateway) SeedAccounts(ctx context.Context, accounts []entities.Account) *apperrors.AppError {
	if len(accounts) == 0 {
		return nil
	}

	db, err := sql.Open("pgx", g.databaseURL)
	if err != nil {
		return apperrors.NewInternal(
			"DB_CONNECT_INIT_FAILED",
			"failed to initialize database connection",
			map[string]any{"database_target": g.databaseTarget},
		)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternal(
			"DB_GENESIS_TX_BEGIN_FAILED",
			"failed to start genesis transaction",
			map[string]any{"error": err.Error()},
		)
	}
	defer func() { _ = tx.Rollback() }()

	const insertSQL = `
INSERT INTO app.accounts (address, lamports, owner, executable)
VALUES ($1, $2::numeric, $3, $4)
ON CONFLICT (address) DO NOTHING
`

	seeded := 0
	for _, account := range accounts {
		result, err := tx.ExecContext(
			ctx,
			insertSQL,
			account.Address.String(),
			strconv.FormatUint(account.Lamports, 10),
			account.Owner.String(),
			account.Executable,
		)
		if err != nil {
			g.logger.Error("genesis account insert failed", zap.String("address", account.Address.String()), zap.Error(err))
			return apperrors.NewInternal(
				"DB_GENESIS_APPLY_FAILED",
				"failed to apply genesis accounts",
				map[string]any{"address": account.Address.String()},
			)
		}
		if affected, _ := result.RowsAffected(); affected > 0 {
			seeded++
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternal(
			"DB_GENESIS_APPLY_FAILED",
			"failed to commit genesis accounts",
			map[string]any{"error": err.Error()},
		)
	}

	g.logger.Info("genesis applied", zap.Int("seeded", seeded), zap.Int("listed", len(accounts)))
	return nil
}
