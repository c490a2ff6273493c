// Package reconcile implements the MT940 bank-statement reconciler
// (spec §4.F): one uploaded statement per worker invocation, parsed
// and matched line-by-line against known disbursements.
package reconcile

import (
	"context"
	"time"

	"g2pbridge/internal/connector"
	"g2pbridge/internal/domain/programconfig"
	"g2pbridge/internal/domain/recon"
	"g2pbridge/internal/domain/statement"
	"g2pbridge/internal/errs"
	"g2pbridge/internal/mt940"
	"g2pbridge/internal/pipeline"
	"g2pbridge/internal/store/postgres"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Stage struct {
	repo        repositories.StatementRepository
	disbursements repositories.DisbursementRepository
	uow         repositories.UnitOfWork
	registry    *connector.Registry
	configByAccount map[string]programconfig.Config
	maxAttempts int
}

func New(pool *pgxpool.Pool, uow repositories.UnitOfWork, registry *connector.Registry, configs []programconfig.Config, maxAttempts int) *Stage {
	byAccount := make(map[string]programconfig.Config, len(configs))
	for _, c := range configs {
		byAccount[c.SponsorBankAccountNumber] = c
	}
	return &Stage{
		repo:            postgres.NewStatementRepository(pool),
		disbursements:   postgres.NewDisbursementRepository(pool),
		uow:             uow,
		registry:        registry,
		configByAccount: byAccount,
		maxAttempts:     maxAttempts,
	}
}

func (s *Stage) Runner(pollEvery time.Duration, workers, batchSize int) *pipeline.Runner[statement.AccountStatement] {
	return &pipeline.Runner[statement.AccountStatement]{
		Name:      "reconcile",
		PollEvery: pollEvery,
		BatchSize: batchSize,
		Workers:   workers,
		Fetch: func(ctx context.Context, limit int) ([]statement.AccountStatement, error) {
			return s.repo.FindEligible(ctx, s.maxAttempts, limit)
		},
		Process: s.process,
	}
}

func (s *Stage) process(ctx context.Context, stmtMeta statement.AccountStatement) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, lob, err := s.repo.GetForUpdate(ctx, stmtMeta.StatementID)
	if err != nil {
		return err
	}

	now := time.Now()
	attempts := stmtMeta.Attempts + 1

	parsed, err := mt940.Parse(lob.Content)
	if err != nil {
		log.Warn().Err(err).Str("statement_id", stmtMeta.StatementID).Msg("MT940 parse failed; retryable")
		if werr := tx.Statements().MarkPendingWithError(ctx, stmtMeta.StatementID, err.Error(), attempts, now); werr != nil {
			return werr
		}
		return tx.Commit(ctx)
	}

	cfg, ok := s.configByAccount[parsed.AccountNumber]
	if !ok {
		if werr := tx.Statements().MarkError(ctx, stmtMeta.StatementID, errs.InvalidAccountNumber, attempts, now); werr != nil {
			return werr
		}
		return tx.Commit(ctx)
	}

	conn, err := s.registry.Get(cfg.SponsorBankCode)
	if err != nil {
		return err
	}

	for _, txn := range parsed.Transactions {
		if err := s.reconcileTransaction(ctx, tx, conn, stmtMeta, parsed, txn); err != nil {
			return err
		}
	}

	if err := tx.Statements().MarkProcessed(ctx, stmtMeta.StatementID, attempts, now); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Stage) reconcileTransaction(ctx context.Context, tx repositories.Transaction, conn connector.Connector, stmtMeta statement.AccountStatement, parsed *mt940.Statement, txn mt940.Transaction) error {
	disbursementID := conn.RetrieveDisbursementID(txn.BankReference, txn.CustomerReference, txn.Narratives)

	control, err := s.disbursements.FindBatchControlByDisbursementID(ctx, disbursementID)
	if err != nil {
		if err != pgx.ErrNoRows {
			return err
		}
		return tx.Recon().InsertErrorRecon(ctx, &recon.ErrorRecon{
			StatementID:   stmtMeta.StatementID,
			BankReference: txn.BankReference,
			Reason:        recon.InvalidDisbursementID,
		})
	}

	existing, err := tx.Recon().FindByDisbursementID(ctx, control.DisbursementID)
	if err != nil {
		return err
	}

	switch txn.Indicator {
	case "D":
		if existing != nil {
			return tx.Recon().InsertErrorRecon(ctx, &recon.ErrorRecon{
				StatementID:   stmtMeta.StatementID,
				BankReference: txn.BankReference,
				Reason:        recon.DuplicateDisbursement,
			})
		}
		return tx.Recon().InsertRecon(ctx, &recon.DisbursementRecon{
			DisbursementID:    control.DisbursementID,
			StatementID:       stmtMeta.StatementID,
			StatementNumber:   parsed.StatementNumber,
			TransactionAmount: txn.Amount,
			CustomerReference: txn.CustomerReference,
			BankReference:     txn.BankReference,
			Narratives:        txn.Narratives,
			ValueDate:         txn.ValueDate,
			EntryDate:         txn.EntryDate,
		})
	case "RD":
		if existing == nil {
			return tx.Recon().InsertErrorRecon(ctx, &recon.ErrorRecon{
				StatementID:   stmtMeta.StatementID,
				BankReference: txn.BankReference,
				Reason:        recon.InvalidReversal,
			})
		}
		now := time.Now()
		existing.ReversalFound = true
		// Both reversal fields take the reversing statement's
		// statement_number, matching the original reconciler.
		existing.ReversalStatementID = parsed.StatementNumber
		existing.ReversalStatementNumber = parsed.StatementNumber
		existing.ReversalReason = conn.RetrieveReversalReason(txn.Narratives)
		existing.ReversalTS = &now
		return tx.Recon().UpdateReversal(ctx, existing)
	}
	return nil
}
