// Package fundsavailable implements Stage 1 of the disbursement
// pipeline: checking sponsor-account funds availability for every
// envelope whose declared totals have fully landed.
package fundsavailable

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

// Stage wires a Runner against the envelope repository, the bank
// connector registry, and the program configuration cache.
type Stage struct {
	repo       repositories.EnvelopeRepository
	uow        repositories.UnitOfWork
	registry   *connector.Registry
	configByMnemonic map[string]programconfig.Config
	maxAttempts int
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
		Name:      "funds_available",
		PollEvery: pollEvery,
		BatchSize: batchSize,
		Workers:   workers,
		Fetch: func(ctx context.Context, limit int) ([]string, error) {
			return s.repo.FindEligibleForFundsCheck(ctx, s.maxAttempts, limit)
		},
		Process: s.process,
	}
}

// process never holds a DB transaction across the outbound checkFunds
// call: it reads the envelope and its batch status plainly, calls the
// bank, then opens a single write-back transaction that re-reads the
// batch status under FOR UPDATE and only applies the result if nothing
// else has written a result since the plain read.
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

	resp, callErr := conn.CheckFunds(ctx, connector.CheckFundsReq{
		AccountNumber:    cfg.SponsorBankAccountNumber,
		AccountCurrency:  cfg.SponsorBankAccountCurrency,
		TotalFundsNeeded: env.TotalAmount,
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
	if current.FundsAvailable != bs.FundsAvailable || current.FundsAvailableAttempts != bs.FundsAvailableAttempts {
		log.Warn().Str("envelope_id", envelopeID).Msg("funds_available state changed since read, discarding stale result")
		return tx.Commit(ctx)
	}

	now := time.Now()
	attempts := current.FundsAvailableAttempts + 1
	if callErr != nil {
		log.Warn().Err(callErr).Str("envelope_id", envelopeID).Msg("checkFunds call failed")
		if werr := tx.Envelopes().UpdateFundsAvailable(ctx, envelopeID, envelope.FundsPendingCheck, "CONNECTOR_ERROR", attempts, now); werr != nil {
			return werr
		}
		return tx.Commit(ctx)
	}

	state := envelope.FundsAvailableState(resp.Status)
	if err := tx.Envelopes().UpdateFundsAvailable(ctx, envelopeID, state, resp.ErrCode, attempts, now); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
