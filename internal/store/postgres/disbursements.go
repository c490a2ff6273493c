package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"g2pbridge/internal/domain/disbursement"
	"g2pbridge/internal/domain/envelope"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
)

type disbursementRepo struct{ db dbtx }

func NewDisbursementRepository(db dbtx) repositories.DisbursementRepository {
	return &disbursementRepo{db: db}
}

func (r *disbursementRepo) NextDisbursementID(ctx context.Context) (string, error) {
	return nextPaddedID(ctx, r.db, "disbursement_id_seq", "DSB")
}

func (r *disbursementRepo) CreateBatch(ctx context.Context, ds []disbursement.Disbursement, bc []disbursement.BatchControl) error {
	for i := range ds {
		d := &ds[i]
		_, err := r.db.Exec(ctx, `
			INSERT INTO disbursements (disbursement_id, envelope_id, beneficiary_id, beneficiary_name,
			                           narrative, amount, cancellation_status, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,now())`,
			d.DisbursementID, d.EnvelopeID, d.BeneficiaryID, d.BeneficiaryName, d.Narrative, d.Amount,
			string(envelope.NotCancelled))
		if err != nil {
			return fmt.Errorf("insert disbursement %s: %w", d.DisbursementID, err)
		}
	}
	for _, c := range bc {
		_, err := r.db.Exec(ctx, `
			INSERT INTO disbursement_batch_control (disbursement_id, mapper_batch_id, bank_batch_id)
			VALUES ($1,$2,$3)`, c.DisbursementID, c.MapperBatchID, c.BankBatchID)
		if err != nil {
			return fmt.Errorf("insert batch control %s: %w", c.DisbursementID, err)
		}
	}
	return nil
}

const disbursementCols = `disbursement_id, envelope_id, beneficiary_id, beneficiary_name, narrative,
	amount, cancellation_status, cancellation_ts, created_at`

func scanDisbursement(row pgx.Row) (*disbursement.Disbursement, error) {
	var d disbursement.Disbursement
	var cancelStatus string
	var cancellationTS sql.NullTime
	err := row.Scan(&d.DisbursementID, &d.EnvelopeID, &d.BeneficiaryID, &d.BeneficiaryName, &d.Narrative,
		&d.Amount, &cancelStatus, &cancellationTS, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.CancellationStatus = envelope.CancellationStatus(cancelStatus)
	if cancellationTS.Valid {
		d.CancellationTS = &cancellationTS.Time
	}
	return &d, nil
}

func placeholders(n, startAt int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = "$" + strconv.Itoa(startAt+i)
	}
	return strings.Join(parts, ",")
}

func (r *disbursementRepo) FindByIDs(ctx context.Context, ids []string) ([]disbursement.Disbursement, error) {
	return r.findByIDs(ctx, ids, false)
}

func (r *disbursementRepo) FindForUpdate(ctx context.Context, ids []string) ([]disbursement.Disbursement, error) {
	return r.findByIDs(ctx, ids, true)
}

func (r *disbursementRepo) findByIDs(ctx context.Context, ids []string, forUpdate bool) ([]disbursement.Disbursement, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + disbursementCols + ` FROM disbursements WHERE disbursement_id IN (` + placeholders(len(ids), 1) + `)`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []disbursement.Disbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *disbursementRepo) CancelBatch(ctx context.Context, ids []string, ts time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+2)
	args = append(args, string(envelope.Cancelled), ts)
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := r.db.Exec(ctx, `
		UPDATE disbursements SET cancellation_status=$1, cancellation_ts=$2
		WHERE disbursement_id IN (`+placeholders(len(ids), 3)+`)`, args...)
	return err
}

func (r *disbursementRepo) FindBatchControlByDisbursementID(ctx context.Context, disbursementID string) (*disbursement.BatchControl, error) {
	var bc disbursement.BatchControl
	err := r.db.QueryRow(ctx, `
		SELECT disbursement_id, mapper_batch_id, bank_batch_id FROM disbursement_batch_control
		WHERE disbursement_id=$1`, disbursementID).Scan(&bc.DisbursementID, &bc.MapperBatchID, &bc.BankBatchID)
	if err != nil {
		return nil, err
	}
	return &bc, nil
}

func (r *disbursementRepo) FindBatchControlsByMapperBatch(ctx context.Context, mapperBatchID string) ([]disbursement.BatchControl, error) {
	rows, err := r.db.Query(ctx, `
		SELECT disbursement_id, mapper_batch_id, bank_batch_id FROM disbursement_batch_control
		WHERE mapper_batch_id=$1`, mapperBatchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []disbursement.BatchControl
	for rows.Next() {
		var bc disbursement.BatchControl
		if err := rows.Scan(&bc.DisbursementID, &bc.MapperBatchID, &bc.BankBatchID); err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, rows.Err()
}

func (r *disbursementRepo) FindBatchControlsByBankBatch(ctx context.Context, bankBatchID string) ([]disbursement.BatchControl, error) {
	rows, err := r.db.Query(ctx, `
		SELECT disbursement_id, mapper_batch_id, bank_batch_id FROM disbursement_batch_control
		WHERE bank_batch_id=$1`, bankBatchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []disbursement.BatchControl
	for rows.Next() {
		var bc disbursement.BatchControl
		if err := rows.Scan(&bc.DisbursementID, &bc.MapperBatchID, &bc.BankBatchID); err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, rows.Err()
}
