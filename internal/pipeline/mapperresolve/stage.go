// Package mapperresolve implements Stage 3: resolving beneficiary IDs
// to financial addresses via the external ID-mapper and deconstructing
// each resolved FA into its type-specific fields.
package mapperresolve

import (
	"context"
	"time"

	"g2pbridge/internal/domain/mapperbatch"
	"g2pbridge/internal/fa"
	"g2pbridge/internal/mapper"
	"g2pbridge/internal/pipeline"
	"g2pbridge/internal/store/postgres"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Stage struct {
	mapperBatchRepo  repositories.MapperBatchRepository
	disbursementRepo repositories.DisbursementRepository
	uow              repositories.UnitOfWork
	client           *mapper.Client
	strategies       *fa.Strategies
	maxAttempts      int
}

func New(pool *pgxpool.Pool, uow repositories.UnitOfWork, client *mapper.Client, strategies *fa.Strategies, maxAttempts int) *Stage {
	return &Stage{
		mapperBatchRepo:  postgres.NewMapperBatchRepository(pool),
		disbursementRepo: postgres.NewDisbursementRepository(pool),
		uow:              uow,
		client:           client,
		strategies:       strategies,
		maxAttempts:      maxAttempts,
	}
}

func (s *Stage) Runner(pollEvery time.Duration, workers, batchSize int) *pipeline.Runner[mapperbatch.BatchStatus] {
	return &pipeline.Runner[mapperbatch.BatchStatus]{
		Name:      "mapper_resolve",
		PollEvery: pollEvery,
		BatchSize: batchSize,
		Workers:   workers,
		Fetch: func(ctx context.Context, limit int) ([]mapperbatch.BatchStatus, error) {
			return s.mapperBatchRepo.FindEligible(ctx, s.maxAttempts, limit)
		},
		Process: s.process,
	}
}

func (s *Stage) process(ctx context.Context, batch mapperbatch.BatchStatus) error {
	controls, err := s.disbursementRepo.FindBatchControlsByMapperBatch(ctx, batch.BatchID)
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

	beneficiaryIDs := make([]string, 0, len(disbursements))
	disbursementByBeneficiary := make(map[string]string, len(disbursements))
	for _, d := range disbursements {
		beneficiaryIDs = append(beneficiaryIDs, d.BeneficiaryID)
		disbursementByBeneficiary[d.BeneficiaryID] = d.DisbursementID
	}

	// Resolve runs with no transaction open; the write-back below
	// re-reads and re-locks the batch row so a result computed against
	// a now-stale batch (e.g. already retried past this attempt by
	// another worker) is discarded instead of applied.
	results, callErr := s.client.Resolve(ctx, beneficiaryIDs)

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, err := tx.MapperBatches().GetForUpdate(ctx, batch.BatchID)
	if err != nil {
		return err
	}
	if current.Status != mapperbatch.Pending || current.Attempts != batch.Attempts {
		log.Warn().Str("batch_id", batch.BatchID).Str("status", string(current.Status)).
			Msg("mapper batch no longer pending, discarding stale resolve result")
		return tx.Commit(ctx)
	}

	now := time.Now()
	attempts := current.Attempts + 1

	if callErr != nil {
		log.Warn().Err(callErr).Str("batch_id", batch.BatchID).Msg("mapper resolve call failed")
		if werr := tx.MapperBatches().MarkPending(ctx, batch.BatchID, "MAPPER_CONNECTOR_ERROR", attempts, now); werr != nil {
			return werr
		}
		return tx.Commit(ctx)
	}

	details := make([]mapperbatch.Details, 0, len(results))
	for _, res := range results {
		if res.FA == "" {
			log.Warn().Str("batch_id", batch.BatchID).Str("beneficiary_id", res.BeneficiaryID).
				Msg("mapper returned no FA; batch stays pending, no partial insert")
			if werr := tx.MapperBatches().MarkPending(ctx, batch.BatchID, "FA_UNRESOLVED", attempts, now); werr != nil {
				return werr
			}
			return tx.Commit(ctx)
		}

		disbursementID, ok := disbursementByBeneficiary[res.BeneficiaryID]
		if !ok {
			continue
		}
		fields := s.strategies.Deconstruct(res.FA)
		details = append(details, mapperbatch.Details{
			DisbursementID:       disbursementID,
			ResolvedFA:           res.FA,
			ResolvedName:         res.Name,
			FAType:               mapperbatch.FAType(fields["fa_type"]),
			AccountNumber:        fields["account_number"],
			BankCode:             fields["bank_code"],
			BranchCode:           fields["branch_code"],
			MobileNumber:         fields["mobile_number"],
			MobileWalletProvider: fields["mobile_wallet_provider"],
			EmailAddress:         fields["email_address"],
			EmailWalletProvider:  fields["email_wallet_provider"],
		})
	}

	if err := tx.MapperBatches().InsertDetails(ctx, details); err != nil {
		return err
	}
	if err := tx.MapperBatches().MarkProcessed(ctx, batch.BatchID, attempts, now); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
