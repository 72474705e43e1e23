package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	valueobjects "invokesigned/internal/domain/value_objects"

	"go.uber.org/zap/zapcore"
)

const (
	defaultPort                     = "8080"
	defaultOpenAPISpec              = "api/openapi.yaml"
	defaultShutdownTimeout          = 10 * time.Second
	defaultDBReadinessTimeout       = 30 * time.Second
	defaultDBReadinessRetryInterval = 2 * time.Second
	defaultMigrationsPath           = "internal/adapters/outbound/persistence/postgresql/migrations"
	defaultBoltPath                 = "data/ledger.db"
	defaultProgramID                = "DerivedTransfer1111111111111111111111111111"
	defaultAirdropMaxLamports       = uint64(10_000_000_000)
)

const (
	LedgerStoreMemory   = "memory"
	LedgerStorePostgres = "postgres"
	LedgerStoreBolt     = "bolt"
)

const (
	PayloadCodecJSON   = "json"
	PayloadCodecBinary = "binary"
)

type ConfigError struct {
	Code     string
	Message  string
	Metadata map[string]string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

type Config struct {
	Port                     string
	OpenAPISpecPath          string
	ShutdownTimeout          time.Duration
	LogLevel                 zapcore.Level
	LedgerStore              string
	DatabaseURL              string
	DatabaseTarget           string
	DBReadinessTimeout       time.Duration
	DBReadinessRetryInterval time.Duration
	MigrationsPath           string
	BoltPath                 string
	ProgramID                valueobjects.Address
	PayloadCodec             string
	GenesisPath              string
	AirdropMaxLamports       uint64
}

func LoadConfig() (Config, *ConfigError) {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	openAPISpecPath := os.Getenv("OPENAPI_SPEC_PATH")
	if openAPISpecPath == "" {
		openAPISpecPath = defaultOpenAPISpec
	}

	shutdownTimeout, cfgErr := durationFromEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if cfgErr != nil {
		return Config{}, cfgErr
	}

	logLevel := zapcore.InfoLevel
	if rawLevel := strings.TrimSpace(os.Getenv("LOG_LEVEL")); rawLevel != "" {
		if err := logLevel.UnmarshalText([]byte(strings.ToLower(rawLevel))); err != nil {
			return Config{}, &ConfigError{
				Code:     "CONFIG_LOG_LEVEL_INVALID",
				Message:  "LOG_LEVEL must be one of debug, info, warn, error",
				Metadata: map[string]string{"value": rawLevel},
			}
		}
	}

	ledgerStore := strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_STORE")))
	if ledgerStore == "" {
		ledgerStore = LedgerStoreMemory
	}

	cfg := Config{
		Port:                     port,
		OpenAPISpecPath:          openAPISpecPath,
		ShutdownTimeout:          shutdownTimeout,
		LogLevel:                 logLevel,
		LedgerStore:              ledgerStore,
		DBReadinessTimeout:       defaultDBReadinessTimeout,
		DBReadinessRetryInterval: defaultDBReadinessRetryInterval,
		MigrationsPath:           defaultMigrationsPath,
		GenesisPath:              strings.TrimSpace(os.Getenv("GENESIS_PATH")),
	}

	switch ledgerStore {
	case LedgerStoreMemory:
	case LedgerStorePostgres:
		databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
		if databaseURL == "" {
			return Config{}, &ConfigError{
				Code:    "CONFIG_DATABASE_URL_REQUIRED",
				Message: "DATABASE_URL is required when LEDGER_STORE=postgres",
			}
		}
		databaseTarget, parseErr := parseDatabaseTarget(databaseURL)
		if parseErr != nil {
			return Config{}, parseErr
		}
		cfg.DatabaseURL = databaseURL
		cfg.DatabaseTarget = databaseTarget
		if migrationsPath := strings.TrimSpace(os.Getenv("MIGRATIONS_PATH")); migrationsPath != "" {
			cfg.MigrationsPath = migrationsPath
		}
	case LedgerStoreBolt:
		cfg.BoltPath = strings.TrimSpace(os.Getenv("BOLT_PATH"))
		if cfg.BoltPath == "" {
			cfg.BoltPath = defaultBoltPath
		}
	default:
		return Config{}, &ConfigError{
			Code:     "CONFIG_LEDGER_STORE_INVALID",
			Message:  "LEDGER_STORE must be one of memory, postgres, bolt",
			Metadata: map[string]string{"value": ledgerStore},
		}
	}

	rawProgramID := strings.TrimSpace(os.Getenv("PROGRAM_ID"))
	if rawProgramID == "" {
		rawProgramID = defaultProgramID
	}
	programID, appErr := valueobjects.ParseAddress(rawProgramID)
	if appErr != nil {
		return Config{}, &ConfigError{
			Code:     "CONFIG_PROGRAM_ID_INVALID",
			Message:  "PROGRAM_ID must be a base58 encoded 32 byte address",
			Metadata: map[string]string{"value": rawProgramID},
		}
	}
	if programID == valueobjects.SystemProgramAddress {
		return Config{}, &ConfigError{
			Code:    "CONFIG_PROGRAM_ID_RESERVED",
			Message: "PROGRAM_ID must not be the system program address",
		}
	}
	cfg.ProgramID = programID

	payloadCodec := strings.ToLower(strings.TrimSpace(os.Getenv("PAYLOAD_CODEC")))
	switch payloadCodec {
	case "":
		payloadCodec = PayloadCodecJSON
	case PayloadCodecJSON, PayloadCodecBinary:
	default:
		return Config{}, &ConfigError{
			Code:     "CONFIG_PAYLOAD_CODEC_INVALID",
			Message:  "PAYLOAD_CODEC must be json or binary",
			Metadata: map[string]string{"value": payloadCodec},
		}
	}
	cfg.PayloadCodec = payloadCodec

	cfg.AirdropMaxLamports = defaultAirdropMaxLamports
	if rawMax := strings.TrimSpace(os.Getenv("AIRDROP_MAX_LAMPORTS")); rawMax != "" {
		parsed, err := strconv.ParseUint(rawMax, 10, 64)
		if err != nil {
			return Config{}, &ConfigError{
				Code:     "CONFIG_AIRDROP_MAX_LAMPORTS_INVALID",
				Message:  "AIRDROP_MAX_LAMPORTS must be an unsigned integer",
				Metadata: map[string]string{"value": rawMax},
			}
		}
		cfg.AirdropMaxLamports = parsed
	}

	return cfg, nil
}

func (c Config) Address() string {
	return ":" + c.Port
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_" + key + "_INVALID",
			Message:  key + " must be a positive duration such as 10s",
			Metadata: map[string]string{"value": raw},
		}
	}
	return parsed, nil
}

func parseDatabaseTarget(databaseURL string) (string, *ConfigError) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_INVALID",
			Message: "DATABASE_URL is invalid",
		}
	}

	switch parsed.Scheme {
	case "postgres", "postgresql":
	default:
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_SCHEME_INVALID",
			Message: "DATABASE_URL must use postgres or postgresql scheme",
		}
	}

	if parsed.Host == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_HOST_MISSING",
			Message: "DATABASE_URL host is required",
		}
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_NAME_MISSING",
			Message: "DATABASE_URL database name is required",
		}
	}

	return parsed.Host + "/" + databaseName, nil
}
