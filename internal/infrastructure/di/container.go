package di

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"invokesigned/internal/adapters/inbound/http/controllers"
	httpRouter "invokesigned/internal/adapters/inbound/http/router"
	"invokesigned/internal/adapters/outbound/docs"
	boltledger "invokesigned/internal/adapters/outbound/persistence/bolt"
	memoryledger "invokesigned/internal/adapters/outbound/persistence/memory"
	postgresqlbootstrap "invokesigned/internal/adapters/outbound/persistence/postgresql/bootstrap"
	postgresqlledger "invokesigned/internal/adapters/outbound/persistence/postgresql/ledger"
	postgresqlshared "invokesigned/internal/adapters/outbound/persistence/postgresql/shared"
	"invokesigned/internal/application/dto"
	portsin "invokesigned/internal/application/ports/in"
	portsout "invokesigned/internal/application/ports/out"
	"invokesigned/internal/application/runtime"
	"invokesigned/internal/application/use_cases"
	"invokesigned/internal/domain/authorization"
	"invokesigned/internal/domain/payload"
	"invokesigned/internal/infrastructure/config"
	"invokesigned/internal/infrastructure/genesis"
	"invokesigned/internal/infrastructure/httpserver"

	"go.uber.org/zap"
)

type Container struct {
	Server                       *httpserver.Server
	Handler                      http.Handler
	InitializePersistenceUseCase portsin.InitializePersistenceUseCase
	Genesis                      dto.Genesis
	Closers                      []io.Closer
}

// LedgerStore bundles the ledger repository with the gateway that prepares
// it. Closer is nil for stores without resources to release.
type LedgerStore struct {
	Repository portsout.LedgerRepository
	Bootstrap  portsout.PersistenceBootstrapGateway
	Closer     io.Closer
}

type LedgerStoreBuilder func(cfg config.Config, logger *zap.Logger) (LedgerStore, error)

var ledgerStoreBuilders = map[string]LedgerStoreBuilder{
	config.LedgerStoreMemory: func(_ config.Config, _ *zap.Logger) (LedgerStore, error) {
		ledger := memoryledger.NewLedger()
		return LedgerStore{Repository: ledger, Bootstrap: ledger}, nil
	},
	config.LedgerStorePostgres: func(cfg config.Config, logger *zap.Logger) (LedgerStore, error) {
		databasePool := postgresqlshared.NewDatabasePool(cfg.DatabaseURL, logger)
		return LedgerStore{
			Repository: postgresqlledger.NewRepository(databasePool, logger),
			Bootstrap: postgresqlbootstrap.NewGateway(
				cfg.DatabaseURL,
				cfg.DatabaseTarget,
				cfg.MigrationsPath,
				logger,
			),
			Closer: databasePool,
		}, nil
	},
	config.LedgerStoreBolt: func(cfg config.Config, logger *zap.Logger) (LedgerStore, error) {
		ledger, err := boltledger.Open(cfg.BoltPath, logger)
		if err != nil {
			return LedgerStore{}, err
		}
		return LedgerStore{Repository: ledger, Bootstrap: ledger, Closer: ledger}, nil
	},
}

var ledgerStoreBuildersMu sync.RWMutex

func RegisterLedgerStoreBuilder(store string, builder LedgerStoreBuilder) {
	normalizedStore := strings.ToLower(strings.TrimSpace(store))
	if normalizedStore == "" || builder == nil {
		return
	}

	ledgerStoreBuildersMu.Lock()
	defer ledgerStoreBuildersMu.Unlock()
	ledgerStoreBuilders[normalizedStore] = builder
}

func Build(cfg config.Config, logger *zap.Logger) (Container, error) {
	genesisState, err := genesis.Load(cfg.GenesisPath)
	if err != nil {
		return Container{}, err
	}

	store, err := buildLedgerStore(cfg, logger)
	if err != nil {
		return Container{}, err
	}

	codec, err := buildPayloadCodec(cfg.PayloadCodec)
	if err != nil {
		closeStore(store, logger)
		return Container{}, err
	}

	executor := runtime.New(logger.Named("runtime"))
	executor.Register(cfg.ProgramID, authorization.NewProcessor(codec, logger.Named("authorization")))

	clock := use_cases.NewSystemClock()
	healthUseCase := use_cases.NewGetHealthUseCase()
	openAPIUseCase := use_cases.NewGetOpenAPISpecUseCase(docs.NewFileOpenAPISpecReadModel(cfg.OpenAPISpecPath))
	initializePersistenceUseCase := use_cases.NewInitializePersistenceUseCase(store.Bootstrap)
	submitCallUseCase := use_cases.NewSubmitCallUseCase(store.Repository, executor, clock, logger)
	getCallUseCase := use_cases.NewGetCallUseCase(store.Repository)
	getAccountUseCase := use_cases.NewGetAccountUseCase(store.Repository)
	requestAirdropUseCase := use_cases.NewRequestAirdropUseCase(store.Repository, cfg.AirdropMaxLamports, clock, logger)
	findDerivedAddressUseCase := use_cases.NewFindDerivedAddressUseCase()

	router := httpRouter.New(httpRouter.Dependencies{
		HealthController:  controllers.NewHealthController(healthUseCase, logger),
		SwaggerController: controllers.NewSwaggerController(openAPIUseCase, logger),
		CallsController:   controllers.NewCallsController(submitCallUseCase, getCallUseCase, logger),
		AccountsController: controllers.NewAccountsController(
			getAccountUseCase,
			requestAirdropUseCase,
			findDerivedAddressUseCase,
			logger,
		),
	})

	container := Container{
		Server:                       httpserver.New(cfg.Address(), router, logger),
		Handler:                      router,
		InitializePersistenceUseCase: initializePersistenceUseCase,
		Genesis:                      genesisState,
	}
	if store.Closer != nil {
		container.Closers = append(container.Closers, store.Closer)
	}

	return container, nil
}

func buildLedgerStore(cfg config.Config, logger *zap.Logger) (LedgerStore, error) {
	ledgerStoreBuildersMu.RLock()
	builder, ok := ledgerStoreBuilders[cfg.LedgerStore]
	ledgerStoreBuildersMu.RUnlock()
	if !ok {
		return LedgerStore{}, fmt.Errorf("unsupported ledger store %q", cfg.LedgerStore)
	}

	store, err := builder(cfg, logger)
	if err != nil {
		return LedgerStore{}, fmt.Errorf("build %s ledger store: %w", cfg.LedgerStore, err)
	}
	if store.Repository == nil || store.Bootstrap == nil {
		return LedgerStore{}, fmt.Errorf("ledger store %q is incomplete", cfg.LedgerStore)
	}

	return store, nil
}

func buildPayloadCodec(name string) (payload.Codec, error) {
	switch name {
	case "", config.PayloadCodecJSON:
		return payload.JSONCodec{}, nil
	case config.PayloadCodecBinary:
		return payload.BinaryCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported payload codec %q", name)
	}
}

func closeStore(store LedgerStore, logger *zap.Logger) {
	if store.Closer == nil {
		return
	}
	if err := store.Closer.Close(); err != nil {
		logger.Warn("ledger store close failed", zap.Error(err))
	}
}
