package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"invokesigned/internal/application/dto"
	"invokesigned/internal/infrastructure/config"
	"invokesigned/internal/infrastructure/di"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		bootstrapLogger := newLogger(zapcore.InfoLevel)
		bootstrapLogger.Error(
			"startup config error",
			zap.String("code", cfgErr.Code),
			zap.String("message", cfgErr.Message),
			zap.Any("metadata", cfgErr.Metadata),
		)
		_ = bootstrapLogger.Sync()
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	os.Exit(run(cfg, logger))
}

func run(cfg config.Config, logger *zap.Logger) int {
	defer func() { _ = logger.Sync() }()

	logger.Info(
		"ledger config",
		zap.String("ledger_store", cfg.LedgerStore),
		zap.String("program_id", cfg.ProgramID.String()),
		zap.String("payload_codec", cfg.PayloadCodec),
	)

	container, buildErr := di.Build(cfg, logger)
	if buildErr != nil {
		logger.Error("dependency wiring error", zap.Error(buildErr))
		return 1
	}
	defer func() {
		for _, closer := range container.Closers {
			if err := closer.Close(); err != nil {
				logger.Warn("ledger store close warning", zap.Error(err))
			}
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("persistence initialization starting", zap.String("database_target", cfg.DatabaseTarget))
	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
		Genesis:                container.Genesis,
	})
	if persistenceErr != nil {
		logger.Error(
			"persistence initialization failed",
			zap.String("code", persistenceErr.Code),
			zap.String("message", persistenceErr.Message),
			zap.Any("details", persistenceErr.Details),
		)
		return 1
	}
	logger.Info(
		"persistence initialization completed",
		zap.Int("genesis_programs", len(container.Genesis.Programs)),
		zap.Int("genesis_accounts", len(container.Genesis.Accounts)),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- container.Server.Start()
	}()

	select {
	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server startup failed", zap.Error(err))
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := container.Server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}

		if err := <-serverErrCh; err != nil {
			logger.Error("server stopped with error", zap.Error(err))
			return 1
		}

		logger.Info("server stopped")
	}

	return 0
}

func newLogger(level zapcore.Level) *zap.Logger {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.TimeKey = "ts"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
