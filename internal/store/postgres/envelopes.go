package postgres

import (
	"context"
	"database/sql"
	"time"

	"g2pbridge/internal/domain/envelope"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
)

type envelopeRepo struct{ db dbtx }

func NewEnvelopeRepository(db dbtx) repositories.EnvelopeRepository { return &envelopeRepo{db: db} }

func (r *envelopeRepo) NextEnvelopeID(ctx context.Context) (string, error) {
	return nextPaddedID(ctx, r.db, "envelope_id_seq", "ENV")
}

func (r *envelopeRepo) Create(ctx context.Context, e *envelope.Envelope, bs *envelope.BatchStatus) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO envelopes (envelope_id, program_mnemonic, cycle_code_mnemonic, frequency,
		                        beneficiary_count, disbursement_count, total_amount, schedule_date,
		                        cancellation_status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())`,
		e.EnvelopeID, e.ProgramMnemonic, e.CycleCodeMnemonic, string(e.Frequency),
		e.BeneficiaryCount, e.DisbursementCount, e.TotalAmount, e.ScheduleDate,
		string(envelope.NotCancelled),
	)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO envelope_batch_status (envelope_id, received_count, received_amount, shipped_count,
		                                    succeeded_count, failed_count, funds_available, funds_blocked,
		                                    id_mapper_resolution_required)
		VALUES ($1,0,0,0,0,0,$2,$3,$4)`,
		bs.EnvelopeID, string(envelope.FundsPendingCheck), string(envelope.BlockPendingCheck),
		bs.IDMapperResolutionRequired,
	)
	return err
}

func (r *envelopeRepo) scan(row pgx.Row) (*envelope.Envelope, error) {
	var e envelope.Envelope
	var freq, cancelStatus string
	var cancellationTS sql.NullTime
	err := row.Scan(&e.EnvelopeID, &e.ProgramMnemonic, &e.CycleCodeMnemonic, &freq,
		&e.BeneficiaryCount, &e.DisbursementCount, &e.TotalAmount, &e.ScheduleDate,
		&cancelStatus, &cancellationTS, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Frequency = envelope.Frequency(freq)
	e.CancellationStatus = envelope.CancellationStatus(cancelStatus)
	if cancellationTS.Valid {
		e.CancellationTS = &cancellationTS.Time
	}
	return &e, nil
}

const envelopeCols = `envelope_id, program_mnemonic, cycle_code_mnemonic, frequency, beneficiary_count,
	disbursement_count, total_amount, schedule_date, cancellation_status, cancellation_ts, created_at`

func (r *envelopeRepo) FindByID(ctx context.Context, envelopeID string) (*envelope.Envelope, error) {
	row := r.db.QueryRow(ctx, `SELECT `+envelopeCols+` FROM envelopes WHERE envelope_id=$1`, envelopeID)
	return r.scan(row)
}

func (r *envelopeRepo) FindForUpdate(ctx context.Context, envelopeID string) (*envelope.Envelope, error) {
	row := r.db.QueryRow(ctx, `SELECT `+envelopeCols+` FROM envelopes WHERE envelope_id=$1 FOR UPDATE`, envelopeID)
	return r.scan(row)
}

func (r *envelopeRepo) Cancel(ctx context.Context, envelopeID string, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE envelopes SET cancellation_status=$2, cancellation_ts=$3
		WHERE envelope_id=$1`, envelopeID, string(envelope.Cancelled), ts)
	return err
}

const batchStatusCols = `envelope_id, received_count, received_amount, shipped_count, succeeded_count,
	failed_count, funds_available, funds_available_ts, funds_available_err_code, funds_available_attempts,
	funds_blocked, block_reference_number, funds_blocked_ts, funds_blocked_err_code, funds_blocked_attempts,
	id_mapper_resolution_required`

func scanBatchStatus(row pgx.Row) (*envelope.BatchStatus, error) {
	var bs envelope.BatchStatus
	var fa, fb string
	var faTS, fbTS sql.NullTime
	var faErr, fbErr, blockRef sql.NullString
	err := row.Scan(&bs.EnvelopeID, &bs.ReceivedCount, &bs.ReceivedAmount, &bs.ShippedCount,
		&bs.SucceededCount, &bs.FailedCount, &fa, &faTS, &faErr, &bs.FundsAvailableAttempts,
		&fb, &blockRef, &fbTS, &fbErr, &bs.FundsBlockedAttempts, &bs.IDMapperResolutionRequired)
	if err != nil {
		return nil, err
	}
	bs.FundsAvailable = envelope.FundsAvailableState(fa)
	bs.FundsBlocked = envelope.FundsBlockedState(fb)
	if faTS.Valid {
		bs.FundsAvailableTS = &faTS.Time
	}
	if fbTS.Valid {
		bs.FundsBlockedTS = &fbTS.Time
	}
	bs.FundsAvailableErrCode = faErr.String
	bs.FundsBlockedErrCode = fbErr.String
	bs.BlockReferenceNumber = blockRef.String
	return &bs, nil
}

func (r *envelopeRepo) GetBatchStatus(ctx context.Context, envelopeID string) (*envelope.BatchStatus, error) {
	row := r.db.QueryRow(ctx, `SELECT `+batchStatusCols+` FROM envelope_batch_status WHERE envelope_id=$1`, envelopeID)
	return scanBatchStatus(row)
}

func (r *envelopeRepo) GetBatchStatusForUpdate(ctx context.Context, envelopeID string) (*envelope.BatchStatus, error) {
	row := r.db.QueryRow(ctx, `SELECT `+batchStatusCols+` FROM envelope_batch_status WHERE envelope_id=$1 FOR UPDATE`, envelopeID)
	return scanBatchStatus(row)
}

// AdjustCounters is only ever called from ingress transactions
// (create/cancel disbursements), never by pipeline workers, per §5's
// race-avoidance rule. The UPDATE applies the deltas as given; the
// check that keeps counters from going negative is made by ingress
// CancelDisbursements before it calls this.
func (r *envelopeRepo) AdjustCounters(ctx context.Context, envelopeID string, deltaCount int, deltaAmount int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE envelope_batch_status
		   SET received_count = received_count + $2,
		       received_amount = received_amount + $3
		 WHERE envelope_id = $1`, envelopeID, deltaCount, deltaAmount)
	return err
}

func (r *envelopeRepo) UpdateFundsAvailable(ctx context.Context, envelopeID string, state envelope.FundsAvailableState, errCode string, attempts int, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE envelope_batch_status
		   SET funds_available=$2, funds_available_err_code=$3, funds_available_attempts=$4, funds_available_ts=$5
		 WHERE envelope_id=$1`, envelopeID, string(state), nullIfEmpty(errCode), attempts, ts)
	return err
}

func (r *envelopeRepo) UpdateFundsBlocked(ctx context.Context, envelopeID string, state envelope.FundsBlockedState, blockRef, errCode string, attempts int, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE envelope_batch_status
		   SET funds_blocked=$2, block_reference_number=$3, funds_blocked_err_code=$4,
		       funds_blocked_attempts=$5, funds_blocked_ts=$6
		 WHERE envelope_id=$1`, envelopeID, string(state), nullIfEmpty(blockRef), nullIfEmpty(errCode), attempts, ts)
	return err
}

func (r *envelopeRepo) IncrementShippedCount(ctx context.Context, envelopeID string, delta int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE envelope_batch_status SET shipped_count = shipped_count + $2 WHERE envelope_id=$1`,
		envelopeID, delta)
	return err
}

// FindEligibleForFundsCheck implements Stage 1's eligibility predicate
// from §4.E: not cancelled, past schedule, fully received, and still
// within its attempt cap.
func (r *envelopeRepo) FindEligibleForFundsCheck(ctx context.Context, maxAttempts, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ebs.envelope_id
		  FROM envelope_batch_status ebs
		  JOIN envelopes e ON e.envelope_id = ebs.envelope_id
		 WHERE e.cancellation_status = 'NotCancelled'
		   AND e.schedule_date < CURRENT_DATE
		   AND ebs.received_count = e.disbursement_count
		   AND ebs.received_amount = e.total_amount
		   AND ebs.funds_available IN ('PendingCheck','NotAvailable')
		   AND ebs.funds_available_attempts < $1
		 ORDER BY ebs.envelope_id
		 LIMIT $2
		   FOR UPDATE OF ebs SKIP LOCKED`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// FindEligibleForFundsBlock implements Stage 2's predicate: Stage 1
// succeeded and block state is retryable.
func (r *envelopeRepo) FindEligibleForFundsBlock(ctx context.Context, maxAttempts, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ebs.envelope_id
		  FROM envelope_batch_status ebs
		  JOIN envelopes e ON e.envelope_id = ebs.envelope_id
		 WHERE e.cancellation_status = 'NotCancelled'
		   AND ebs.funds_available = 'Available'
		   AND ebs.funds_blocked IN ('PendingCheck','BlockFailure')
		   AND ebs.funds_blocked_attempts < $1
		 ORDER BY ebs.envelope_id
		 LIMIT $2
		   FOR UPDATE OF ebs SKIP LOCKED`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// FindEligibleForDispatch implements Stage 4's envelope-level gate:
// fully received and funds blocked successfully. The dispatch
// producer then selects that envelope's pending bank-batches itself.
func (r *envelopeRepo) FindEligibleForDispatch(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ebs.envelope_id
		  FROM envelope_batch_status ebs
		  JOIN envelopes e ON e.envelope_id = ebs.envelope_id
		 WHERE e.cancellation_status = 'NotCancelled'
		   AND ebs.received_count = e.disbursement_count
		   AND ebs.funds_blocked = 'BlockSuccess'
		 ORDER BY ebs.envelope_id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

func scanIDs(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
