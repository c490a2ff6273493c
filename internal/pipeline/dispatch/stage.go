// Package dispatch implements Stage 4: constructing and sending the
// final payment instruction for every bank-dispatch batch whose
// envelope has cleared funds-block.
package dispatch

import (
	"context"
	"time"

	"g2pbridge/internal/connector"
	"g2pbridge/internal/domain/bankbatch"
	"g2pbridge/internal/domain/mapperbatch"
	"g2pbridge/internal/domain/programconfig"
	"g2pbridge/internal/pipeline"
	"g2pbridge/internal/store/postgres"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Stage struct {
	envelopeRepo     repositories.EnvelopeRepository
	bankBatchRepo    repositories.BankBatchRepository
	disbursementRepo repositories.DisbursementRepository
	mapperBatchRepo  repositories.MapperBatchRepository
	uow              repositories.UnitOfWork
	registry         *connector.Registry
	configByMnemonic map[string]programconfig.Config
	maxAttempts      int
	batchLimitPerEnvelope int
}

func New(pool *pgxpool.Pool, uow repositories.UnitOfWork, registry *connector.Registry, configs []programconfig.Config, maxAttempts, batchLimitPerEnvelope int) *Stage {
	byMnemonic := make(map[string]programconfig.Config, len(configs))
	for _, c := range configs {
		byMnemonic[c.ProgramMnemonic] = c
	}
	return &Stage{
		envelopeRepo:          postgres.NewEnvelopeRepository(pool),
		bankBatchRepo:         postgres.NewBankBatchRepository(pool),
		disbursementRepo:      postgres.NewDisbursementRepository(pool),
		mapperBatchRepo:       postgres.NewMapperBatchRepository(pool),
		uow:                   uow,
		registry:              registry,
		configByMnemonic:      byMnemonic,
		maxAttempts:           maxAttempts,
		batchLimitPerEnvelope: batchLimitPerEnvelope,
	}
}

func (s *Stage) Runner(pollEvery time.Duration, workers, batchSize int) *pipeline.Runner[bankbatch.BatchStatus] {
	return &pipeline.Runner[bankbatch.BatchStatus]{
		Name:      "dispatch",
		PollEvery: pollEvery,
		BatchSize: batchSize,
		Workers:   workers,
		Fetch:     s.fetchEligibleBatches,
		Process:   s.process,
	}
}

// fetchEligibleBatches implements the two-level Stage-4 producer: first
// the eligible envelopes (not cancelled, fully received, block
// succeeded), then the Pending bank-dispatch batches within each.
func (s *Stage) fetchEligibleBatches(ctx context.Context, limit int) ([]bankbatch.BatchStatus, error) {
	envelopeIDs, err := s.envelopeRepo.FindEligibleForDispatch(ctx, limit)
	if err != nil {
		return nil, err
	}

	var out []bankbatch.BatchStatus
	for _, envelopeID := range envelopeIDs {
		if len(out) >= limit {
			break
		}
		batches, err := s.bankBatchRepo.FindEligible(ctx, envelopeID, s.maxAttempts, s.batchLimitPerEnvelope)
		if err != nil {
			return nil, err
		}
		out = append(out, batches...)
	}
	return out, nil
}

// process re-verifies the producer's claim before ever calling the
// bank: fetchEligibleBatches flips a batch to Dispatching atomically,
// but a worker only trusts that once it holds the row lock itself,
// since a batch can be requeued to Pending (on a prior attempt's
// failure) or marked Processed out from under a stale in-memory copy.
func (s *Stage) process(ctx context.Context, batch bankbatch.BatchStatus) error {
	controls, err := s.disbursementRepo.FindBatchControlsByBankBatch(ctx, batch.BatchID)
	if err != nil {
		return err
	}
	if len(controls) == 0 {
		return nil
	}

	ids := make([]string, 0, len(controls))
	for _, c := range controls {
		ids = append(ids, c.DisbursementID)
	}
	disbursements, err := s.disbursementRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	details, err := s.mapperBatchRepo.FindDetailsByDisbursementIDs(ctx, ids)
	if err != nil {
		return err
	}
	detailsByDisbursement := make(map[string]mapperbatch.Details, len(details))
	for _, d := range details {
		detailsByDisbursement[d.DisbursementID] = d
	}

	env, err := s.envelopeRepo.FindByID(ctx, batch.EnvelopeID)
	if err != nil {
		return err
	}
	bs, err := s.envelopeRepo.GetBatchStatus(ctx, batch.EnvelopeID)
	if err != nil {
		return err
	}
	cfg, ok := s.configByMnemonic[env.ProgramMnemonic]
	if !ok {
		log.Error().Str("envelope_id", env.EnvelopeID).Str("program_mnemonic", env.ProgramMnemonic).
			Msg("no program configuration for envelope")
		return nil
	}

	conn, err := s.registry.Get(cfg.SponsorBankCode)
	if err != nil {
		return err
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, err := tx.BankBatches().GetForUpdate(ctx, batch.BatchID)
	if err != nil {
		return err
	}
	if current.Status != bankbatch.Dispatching {
		log.Warn().Str("batch_id", batch.BatchID).Str("status", string(current.Status)).
			Msg("dispatch batch no longer claimed, skipping")
		return tx.Commit(ctx)
	}

	payloads := make([]connector.PaymentPayload, 0, len(disbursements))
	for _, d := range disbursements {
		p := connector.PaymentPayload{
			DisbursementID:   d.DisbursementID,
			BeneficiaryName:  d.BeneficiaryName,
			Narrative:        d.Narrative,
			Amount:           d.Amount,
			BlockReferenceNo: bs.BlockReferenceNumber,
		}
		if det, ok := detailsByDisbursement[d.DisbursementID]; ok {
			p.ResolvedFA = det.ResolvedFA
			p.AccountNumber = det.AccountNumber
			p.BankCode = det.BankCode
			p.BranchCode = det.BranchCode
			p.MobileNumber = det.MobileNumber
			p.MobileWalletProvider = det.MobileWalletProvider
			p.EmailAddress = det.EmailAddress
			p.EmailWalletProvider = det.EmailWalletProvider
		}
		payloads = append(payloads, p)
	}

	now := time.Now()
	attempts := current.Attempts + 1

	resp, err := conn.InitiatePayment(ctx, connector.InitiatePaymentReq{Payloads: payloads})
	if err != nil || resp.Status != connector.PaymentSuccess {
		errCode := resp.ErrCode
		if err != nil {
			log.Warn().Err(err).Str("batch_id", batch.BatchID).Msg("initiatePayment call failed")
			errCode = "CONNECTOR_ERROR"
		}
		if werr := tx.BankBatches().MarkPending(ctx, batch.BatchID, errCode, attempts, now); werr != nil {
			return werr
		}
		return tx.Commit(ctx)
	}

	if err := tx.BankBatches().MarkProcessed(ctx, batch.BatchID, attempts, now); err != nil {
		return err
	}
	if err := tx.Envelopes().IncrementShippedCount(ctx, batch.EnvelopeID, len(disbursements)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
