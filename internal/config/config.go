package config

import (
	"crypto/sha256"
	"encoding/base64"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/crypto/hkdf"
)

type AppCfg struct{ Env, Port, BaseURL string }
type DBCfg struct{ DSN string }
type RedisCfg struct{ Addr string }

type SecurityCfg struct {
	AESKey []byte
}

// PipelineCfg holds the per-stage attempt caps and producer polling
// periods named in spec §6.
type PipelineCfg struct {
	FundsAvailableAttempts int
	FundsBlockedAttempts   int
	FundsDisbursementAttempts int
	MapperResolveAttempts int
	StatementProcessAttempts int

	FundsAvailablePeriod time.Duration
	FundsBlockedPeriod   time.Duration
	MapperResolvePeriod  time.Duration
	DispatchPeriod       time.Duration
	ReconcilePeriod      time.Duration

	WorkerPoolSize            int
	DispatchBatchLimitPerEnvelope int
}

// MapperCfg configures the external ID-mapper resolution client.
type MapperCfg struct {
	ResolveAPIURL string
	Timeout       time.Duration
}

// FACfg carries the regex strategies used to deconstruct financial
// addresses, one per FA type, overridable via env per spec §6.
type FACfg struct {
	BankAccountStrategy  string
	MobileWalletStrategy string
	EmailWalletStrategy  string
}

// BankCfg configures the reference bank connector's HTTP endpoints.
type BankCfg struct {
	BaseURL string
	Timeout time.Duration
}

// RateLimitCfg configures the per-program-mnemonic fixed-window counter
// (at most Limit calls per Window) guarding createDisbursements bursts.
type RateLimitCfg struct {
	Limit  int64
	Window time.Duration
}

type Cfg struct {
	App       AppCfg
	DB        DBCfg
	Redis     RedisCfg
	Sec       SecurityCfg
	Pipeline  PipelineCfg
	Mapper    MapperCfg
	FA        FACfg
	Bank      BankCfg
	RateLimit RateLimitCfg
}

func Load() Cfg {
	// 1) Load .env into process env (if file exists); ignore ENOENT.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env")
	}

	// 2) Read from env via viper
	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "sandbox")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("TZ", "UTC")

	viper.SetDefault("FUNDS_AVAILABLE_CHECK_ATTEMPTS", 5)
	viper.SetDefault("FUNDS_BLOCKED_ATTEMPTS", 5)
	viper.SetDefault("FUNDS_DISBURSEMENT_ATTEMPTS", 5)
	viper.SetDefault("MAPPER_RESOLVE_ATTEMPTS", 5)
	viper.SetDefault("STATEMENT_PROCESS_ATTEMPTS", 5)

	viper.SetDefault("FUNDS_AVAILABLE_PERIOD_SECONDS", 30)
	viper.SetDefault("FUNDS_BLOCKED_PERIOD_SECONDS", 30)
	viper.SetDefault("MAPPER_RESOLVE_PERIOD_SECONDS", 15)
	viper.SetDefault("DISPATCH_PERIOD_SECONDS", 15)
	viper.SetDefault("RECONCILE_PERIOD_SECONDS", 20)
	viper.SetDefault("WORKER_POOL_SIZE", 16)
	viper.SetDefault("DISPATCH_BATCH_LIMIT_PER_ENVELOPE", 50)

	viper.SetDefault("MAPPER_RESOLVE_API_URL", "http://localhost:9001/resolve")
	viper.SetDefault("MAPPER_RESOLVE_TIMEOUT_SECONDS", 15)

	viper.SetDefault("BANK_ACCOUNT_FA_DECONSTRUCT_STRATEGY",
		`^BANK_ACCOUNT@(?P<account_number>[^:]+):(?P<bank_code>[^:]+):(?P<branch_code>[^:]+)$`)
	viper.SetDefault("MOBILE_WALLET_FA_DECONSTRUCT_STRATEGY",
		`^MOBILE_WALLET@(?P<mobile_number>[^:]+):(?P<mobile_wallet_provider>[^:]+)$`)
	viper.SetDefault("EMAIL_WALLET_FA_DECONSTRUCT_STRATEGY",
		`^EMAIL_WALLET@(?P<email_address>[^:]+):(?P<email_wallet_provider>[^:]+)$`)

	viper.SetDefault("BANK_BASE_URL", "http://localhost:9002")
	viper.SetDefault("BANK_TIMEOUT_SECONDS", 15)

	viper.SetDefault("RATE_LIMIT_PER_PROGRAM", 50)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	if tz := viper.GetString("TZ"); tz != "" {
		os.Setenv("TZ", tz)
	}

	var aesKey []byte
	if keyB64 := viper.GetString("AES_256_KEY_BASE64"); keyB64 != "" {
		if k, err := decodeAESKey(keyB64); err == nil {
			aesKey = k
		}
	}

	cfg := Cfg{
		App: AppCfg{
			Env:     viper.GetString("APP_ENV"),
			Port:    viper.GetString("APP_PORT"),
			BaseURL: viper.GetString("APP_BASE_URL"),
		},
		DB:    DBCfg{DSN: viper.GetString("DB_DSN")},
		Redis: RedisCfg{Addr: viper.GetString("REDIS_ADDR")},
		Sec: SecurityCfg{
			AESKey: aesKey,
		},
		Pipeline: PipelineCfg{
			FundsAvailableAttempts:    viper.GetInt("FUNDS_AVAILABLE_CHECK_ATTEMPTS"),
			FundsBlockedAttempts:      viper.GetInt("FUNDS_BLOCKED_ATTEMPTS"),
			FundsDisbursementAttempts: viper.GetInt("FUNDS_DISBURSEMENT_ATTEMPTS"),
			MapperResolveAttempts:     viper.GetInt("MAPPER_RESOLVE_ATTEMPTS"),
			StatementProcessAttempts:  viper.GetInt("STATEMENT_PROCESS_ATTEMPTS"),
			FundsAvailablePeriod:      time.Duration(viper.GetInt("FUNDS_AVAILABLE_PERIOD_SECONDS")) * time.Second,
			FundsBlockedPeriod:        time.Duration(viper.GetInt("FUNDS_BLOCKED_PERIOD_SECONDS")) * time.Second,
			MapperResolvePeriod:       time.Duration(viper.GetInt("MAPPER_RESOLVE_PERIOD_SECONDS")) * time.Second,
			DispatchPeriod:            time.Duration(viper.GetInt("DISPATCH_PERIOD_SECONDS")) * time.Second,
			ReconcilePeriod:           time.Duration(viper.GetInt("RECONCILE_PERIOD_SECONDS")) * time.Second,
			WorkerPoolSize:            viper.GetInt("WORKER_POOL_SIZE"),
			DispatchBatchLimitPerEnvelope: viper.GetInt("DISPATCH_BATCH_LIMIT_PER_ENVELOPE"),
		},
		Mapper: MapperCfg{
			ResolveAPIURL: viper.GetString("MAPPER_RESOLVE_API_URL"),
			Timeout:       time.Duration(viper.GetInt("MAPPER_RESOLVE_TIMEOUT_SECONDS")) * time.Second,
		},
		FA: FACfg{
			BankAccountStrategy:  viper.GetString("BANK_ACCOUNT_FA_DECONSTRUCT_STRATEGY"),
			MobileWalletStrategy: viper.GetString("MOBILE_WALLET_FA_DECONSTRUCT_STRATEGY"),
			EmailWalletStrategy:  viper.GetString("EMAIL_WALLET_FA_DECONSTRUCT_STRATEGY"),
		},
		Bank: BankCfg{
			BaseURL: viper.GetString("BANK_BASE_URL"),
			Timeout: time.Duration(viper.GetInt("BANK_TIMEOUT_SECONDS")) * time.Second,
		},
		RateLimit: RateLimitCfg{
			Limit:  viper.GetInt64("RATE_LIMIT_PER_PROGRAM"),
			Window: time.Duration(viper.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
	}

	// 3) Fail fast on required settings
	if cfg.DB.DSN == "" {
		log.Fatal().Msg("DB_DSN is required")
	}

	return cfg
}

// decodeAESKey derives the 32-byte AES-256-GCM key used to encrypt
// bank connector credentials from AES_256_KEY_BASE64 via HKDF-SHA256,
// so the operator-supplied secret need not itself be exactly 32 raw
// bytes.
func decodeAESKey(keyB64 string) ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, err
	}

	kdf := hkdf.New(sha256.New, secret, nil, []byte("g2pbridge-connector-credential"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}
