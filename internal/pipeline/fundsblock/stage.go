// Package fundsblock implements Stage 2: blocking sponsor-account
// funds for every envelope whose Stage-1 check came back Available.
package fundsblock

import (
	"context"
	"time"

	"g2pbridge/internal/connector"
	"g2pbridge/internal/domain/envelope"
	"g2pbridge/internal/domain/programconfig"
	"g2pbridge/internal/pipeline"
	"g2pbridge/internal/store/postgres"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Stage struct {
	repo             repositories.EnvelopeRepository
	uow              repositories.UnitOfWork
	registry         *connector.Registry
	configByMnemonic map[string]programconfig.Config
	maxAttempts      int
}

func New(pool *pgxpool.Pool, uow repositories.UnitOfWork, registry *connector.Registry, configs []programconfig.Config, maxAttempts int) *Stage {
	byMnemonic := make(map[string]programconfig.Config, len(configs))
	for _, c := range configs {
		byMnemonic[c.ProgramMnemonic] = c
	}
	return &Stage{
		repo:             postgres.NewEnvelopeRepository(pool),
		uow:              uow,
		registry:         registry,
		configByMnemonic: byMnemonic,
		maxAttempts:      maxAttempts,
	}
}

func (s *Stage) Runner(pollEvery time.Duration, workers, batchSize int) *pipeline.Runner[string] {
	return &pipeline.Runner[string]{
		Name:      "funds_block",
		PollEvery: pollEvery,
		BatchSize: batchSize,
		Workers:   workers,
		Fetch: func(ctx context.Context, limit int) ([]string, error) {
			return s.repo.FindEligibleForFundsBlock(ctx, s.maxAttempts, limit)
		},
		Process: s.process,
	}
}

// process reads plainly, calls blockFunds with no transaction open,
// then re-reads the batch status under FOR UPDATE in the write-back
// transaction to discard a stale result if another worker already
// recorded one since the plain read, per the same rule fundsavailable
// follows.
func (s *Stage) process(ctx context.Context, envelopeID string) error {
	env, err := s.repo.FindByID(ctx, envelopeID)
	if err != nil {
		return err
	}
	bs, err := s.repo.GetBatchStatus(ctx, envelopeID)
	if err != nil {
		return err
	}

	cfg, ok := s.configByMnemonic[env.ProgramMnemonic]
	if !ok {
		log.Error().Str("envelope_id", envelopeID).Str("program_mnemonic", env.ProgramMnemonic).
			Msg("no program configuration for envelope")
		return nil
	}

	conn, err := s.registry.Get(cfg.SponsorBankCode)
	if err != nil {
		return err
	}

	resp, callErr := conn.BlockFunds(ctx, connector.BlockFundsReq{
		AccountNumber: cfg.SponsorBankAccountNumber,
		Currency:      cfg.SponsorBankAccountCurrency,
		Amount:        env.TotalAmount,
	})

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, err := tx.Envelopes().GetBatchStatusForUpdate(ctx, envelopeID)
	if err != nil {
		return err
	}
	if current.FundsBlocked != bs.FundsBlocked || current.FundsBlockedAttempts != bs.FundsBlockedAttempts {
		log.Warn().Str("envelope_id", envelopeID).Msg("funds_blocked state changed since read, discarding stale result")
		return tx.Commit(ctx)
	}

	now := time.Now()
	attempts := current.FundsBlockedAttempts + 1
	if callErr != nil {
		log.Warn().Err(callErr).Str("envelope_id", envelopeID).Msg("blockFunds call failed")
		if werr := tx.Envelopes().UpdateFundsBlocked(ctx, envelopeID, envelope.BlockPendingCheck, "", "CONNECTOR_ERROR", attempts, now); werr != nil {
			return werr
		}
		return tx.Commit(ctx)
	}

	state := envelope.FundsBlockedState(resp.Status)
	if err := tx.Envelopes().UpdateFundsBlocked(ctx, envelopeID, state, resp.BlockReferenceNo, resp.ErrCode, attempts, now); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
