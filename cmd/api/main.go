package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"g2pbridge/internal/config"
	"g2pbridge/internal/connector"
	"g2pbridge/internal/connector/examplebank"
	"g2pbridge/internal/crypto"
	"g2pbridge/internal/domain/programconfig"
	"g2pbridge/internal/fa"
	httpx "g2pbridge/internal/http"
	"g2pbridge/internal/ingress"
	"g2pbridge/internal/mapper"
	"g2pbridge/internal/pipeline/dispatch"
	"g2pbridge/internal/pipeline/fundsavailable"
	"g2pbridge/internal/pipeline/fundsblock"
	"g2pbridge/internal/pipeline/mapperresolve"
	"g2pbridge/internal/pipeline/reconcile"
	"g2pbridge/internal/ratelimit"
	"g2pbridge/internal/store/postgres"
	"g2pbridge/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info().Msg("starting disbursement bridge API server")

	pool := postgres.MustOpen(ctx, cfg.DB.DSN)
	defer pool.Close()

	configRepo := postgres.NewConfigRepository(pool)
	configs, err := configRepo.LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load program configuration")
	}
	log.Info().Int("program_count", len(configs)).Msg("loaded benefit program configuration")

	registry := connector.NewRegistry()
	credentialRepo := postgres.NewCredentialRepository(pool)
	registerConnectors(ctx, registry, credentialRepo, configs, cfg)

	strategies, err := fa.Compile(cfg.FA.BankAccountStrategy, cfg.FA.MobileWalletStrategy, cfg.FA.EmailWalletStrategy)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to compile FA deconstruction strategies")
	}

	mapperClient := mapper.New(cfg.Mapper.ResolveAPIURL, cfg.Mapper.Timeout)
	limiter := ratelimit.New(cfg.Redis.Addr, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	defer limiter.Close()

	uow := postgres.NewUnitOfWork(pool)
	ingressSvc := ingress.NewService(uow, configs, limiter)

	workers := cfg.Pipeline.WorkerPoolSize

	fundsAvailableStage := fundsavailable.New(pool, uow, registry, configs, cfg.Pipeline.FundsAvailableAttempts)
	fundsBlockStage := fundsblock.New(pool, uow, registry, configs, cfg.Pipeline.FundsBlockedAttempts)
	mapperResolveStage := mapperresolve.New(pool, uow, mapperClient, strategies, cfg.Pipeline.MapperResolveAttempts)
	dispatchStage := dispatch.New(pool, uow, registry, configs, cfg.Pipeline.FundsDisbursementAttempts, cfg.Pipeline.DispatchBatchLimitPerEnvelope)
	reconcileStage := reconcile.New(pool, uow, registry, configs, cfg.Pipeline.StatementProcessAttempts)

	go fundsAvailableStage.Runner(cfg.Pipeline.FundsAvailablePeriod, workers, workers).Run(ctx)
	go fundsBlockStage.Runner(cfg.Pipeline.FundsBlockedPeriod, workers, workers).Run(ctx)
	go mapperResolveStage.Runner(cfg.Pipeline.MapperResolvePeriod, workers, workers).Run(ctx)
	go dispatchStage.Runner(cfg.Pipeline.DispatchPeriod, workers, workers).Run(ctx)
	go reconcileStage.Runner(cfg.Pipeline.ReconcilePeriod, workers, workers).Run(ctx)
	log.Info().Int("workers", workers).Msg("pipeline stages started")

	r := httpx.NewRouter(httpx.RouterDependencies{Ingress: ingressSvc})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.App.Port).
			Str("environment", cfg.App.Env).
			Msg("disbursement bridge API listening")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped gracefully")
}

// registerConnectors builds one example-bank client per distinct
// sponsor_bank_code named in the loaded program configuration,
// decrypting its stored API key if a credential row exists. A program
// with no stored credential still gets a client (sandbox bank
// endpoints accept unauthenticated calls); only decryption failures
// are fatal, since they indicate a corrupt AES key or ciphertext.
func registerConnectors(ctx context.Context, registry *connector.Registry, credentialRepo repositories.CredentialRepository, configs []programconfig.Config, cfg config.Cfg) {
	seen := make(map[string]bool, len(configs))
	for _, pc := range configs {
		if seen[pc.SponsorBankCode] {
			continue
		}
		seen[pc.SponsorBankCode] = true

		apiKey := ""
		cred, err := credentialRepo.FindBySponsorBankCode(ctx, pc.SponsorBankCode)
		if err != nil {
			log.Warn().Err(err).Str("sponsor_bank_code", pc.SponsorBankCode).
				Msg("no stored connector credential, registering unauthenticated client")
		} else {
			decrypted, derr := crypto.DecryptString(cfg.Sec.AESKey, cred.APIKeyEnc)
			if derr != nil {
				log.Fatal().Err(derr).Str("sponsor_bank_code", pc.SponsorBankCode).
					Msg("failed to decrypt connector credential")
			}
			apiKey = decrypted
		}

		registry.Register(pc.SponsorBankCode, examplebank.New(cfg.Bank.BaseURL, cfg.Bank.Timeout, apiKey))
	}
}
