package postgres

import (
	"context"

	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// unitOfWork implements repositories.UnitOfWork over a connection pool.
type unitOfWork struct {
	db *pgxpool.Pool
}

func NewUnitOfWork(db *pgxpool.Pool) repositories.UnitOfWork {
	return &unitOfWork{db: db}
}

func (uow *unitOfWork) Begin(ctx context.Context) (repositories.Transaction, error) {
	tx, err := uow.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &transaction{tx: tx}, nil
}

// transaction implements repositories.Transaction. Every accessor builds
// its repository against the same pgx.Tx, which satisfies dbtx, so a
// single repository implementation serves both pool-backed and
// transaction-backed callers.
type transaction struct {
	tx pgx.Tx
}

func (t *transaction) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *transaction) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func (t *transaction) Envelopes() repositories.EnvelopeRepository {
	return NewEnvelopeRepository(t.tx)
}

func (t *transaction) Disbursements() repositories.DisbursementRepository {
	return NewDisbursementRepository(t.tx)
}

func (t *transaction) BankBatches() repositories.BankBatchRepository {
	return NewBankBatchRepository(t.tx)
}

func (t *transaction) MapperBatches() repositories.MapperBatchRepository {
	return NewMapperBatchRepository(t.tx)
}

func (t *transaction) Statements() repositories.StatementRepository {
	return NewStatementRepository(t.tx)
}

func (t *transaction) Recon() repositories.ReconRepository {
	return NewReconRepository(t.tx)
}
