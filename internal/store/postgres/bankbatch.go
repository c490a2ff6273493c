package postgres

import (
	"context"
	"database/sql"
	"time"

	"g2pbridge/internal/domain/bankbatch"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
)

type bankBatchRepo struct{ db dbtx }

func NewBankBatchRepository(db dbtx) repositories.BankBatchRepository { return &bankBatchRepo{db: db} }

func (r *bankBatchRepo) Create(ctx context.Context, b *bankbatch.BatchStatus) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bank_disbursement_batch_status (batch_id, envelope_id, status, attempts)
		VALUES ($1,$2,$3,0)`, b.BatchID, b.EnvelopeID, string(b.Status))
	return err
}

func scanBankBatch(row pgx.Row) (*bankbatch.BatchStatus, error) {
	var b bankbatch.BatchStatus
	var status string
	var errCode sql.NullString
	var ts sql.NullTime
	err := row.Scan(&b.BatchID, &b.EnvelopeID, &status, &b.Attempts, &errCode, &ts)
	if err != nil {
		return nil, err
	}
	b.Status = bankbatch.Status(status)
	b.LatestErrCode = errCode.String
	if ts.Valid {
		b.TS = &ts.Time
	}
	return &b, nil
}

const bankBatchCols = `batch_id, envelope_id, status, attempts, latest_error_code, ts`

// FindEligible atomically claims up to limit Pending batches by
// flipping them to Dispatching in the same statement that selects
// them, mirroring the event-queue claim-UPDATE pattern: the
// FOR UPDATE SKIP LOCKED subselect and the claiming UPDATE run as one
// round trip, so the row is never visible as Pending to a second
// producer tick once this one has picked it up.
func (r *bankBatchRepo) FindEligible(ctx context.Context, envelopeID string, maxAttempts, limit int) ([]bankbatch.BatchStatus, error) {
	var rows pgx.Rows
	var err error
	if envelopeID != "" {
		rows, err = r.db.Query(ctx, `
			WITH due AS (
			  SELECT batch_id FROM bank_disbursement_batch_status
			  WHERE envelope_id=$1 AND status='Pending' AND attempts < $2
			  ORDER BY batch_id LIMIT $3
			  FOR UPDATE SKIP LOCKED
			)
			UPDATE bank_disbursement_batch_status b
			   SET status='Dispatching'
			  FROM due d
			 WHERE b.batch_id = d.batch_id
			RETURNING `+bankBatchColsPrefixed("b"), envelopeID, maxAttempts, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			WITH due AS (
			  SELECT batch_id FROM bank_disbursement_batch_status
			  WHERE status='Pending' AND attempts < $1
			  ORDER BY batch_id LIMIT $2
			  FOR UPDATE SKIP LOCKED
			)
			UPDATE bank_disbursement_batch_status b
			   SET status='Dispatching'
			  FROM due d
			 WHERE b.batch_id = d.batch_id
			RETURNING `+bankBatchColsPrefixed("b"), maxAttempts, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bankbatch.BatchStatus
	for rows.Next() {
		b, err := scanBankBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func bankBatchColsPrefixed(alias string) string {
	return alias + ".batch_id, " + alias + ".envelope_id, " + alias + ".status, " + alias + ".attempts, " +
		alias + ".latest_error_code, " + alias + ".ts"
}

func (r *bankBatchRepo) GetForUpdate(ctx context.Context, batchID string) (*bankbatch.BatchStatus, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bankBatchCols+` FROM bank_disbursement_batch_status WHERE batch_id=$1 FOR UPDATE`, batchID)
	return scanBankBatch(row)
}

func (r *bankBatchRepo) MarkProcessed(ctx context.Context, batchID string, attempts int, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bank_disbursement_batch_status
		   SET status='Processed', attempts=$2, latest_error_code=NULL, ts=$3
		 WHERE batch_id=$1`, batchID, attempts, ts)
	return err
}

func (r *bankBatchRepo) MarkPending(ctx context.Context, batchID, errCode string, attempts int, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bank_disbursement_batch_status
		   SET status='Pending', attempts=$2, latest_error_code=$3, ts=$4
		 WHERE batch_id=$1`, batchID, attempts, nullIfEmpty(errCode), ts)
	return err
}
