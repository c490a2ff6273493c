package postgres

import (
	"context"
	"database/sql"
	"time"

	"g2pbridge/internal/domain/mapperbatch"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
)

type mapperBatchRepo struct{ db dbtx }

func NewMapperBatchRepository(db dbtx) repositories.MapperBatchRepository {
	return &mapperBatchRepo{db: db}
}

func (r *mapperBatchRepo) Create(ctx context.Context, b *mapperbatch.BatchStatus) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO mapper_resolution_batch_status (batch_id, status, attempts)
		VALUES ($1,$2,0)`, b.BatchID, string(b.Status))
	return err
}

const mapperBatchCols = `batch_id, status, attempts, latest_error_code, resolution_ts`

func scanMapperBatch(row pgx.Row) (*mapperbatch.BatchStatus, error) {
	var b mapperbatch.BatchStatus
	var status string
	var errCode sql.NullString
	var ts sql.NullTime
	if err := row.Scan(&b.BatchID, &status, &b.Attempts, &errCode, &ts); err != nil {
		return nil, err
	}
	b.Status = mapperbatch.Status(status)
	b.LatestErrCode = errCode.String
	if ts.Valid {
		b.ResolutionTS = &ts.Time
	}
	return &b, nil
}

func (r *mapperBatchRepo) FindEligible(ctx context.Context, maxAttempts, limit int) ([]mapperbatch.BatchStatus, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mapperBatchCols+` FROM mapper_resolution_batch_status
		WHERE status='Pending' AND attempts < $1
		ORDER BY batch_id LIMIT $2 FOR UPDATE SKIP LOCKED`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []mapperbatch.BatchStatus
	for rows.Next() {
		b, err := scanMapperBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *mapperBatchRepo) GetForUpdate(ctx context.Context, batchID string) (*mapperbatch.BatchStatus, error) {
	row := r.db.QueryRow(ctx, `SELECT `+mapperBatchCols+` FROM mapper_resolution_batch_status WHERE batch_id=$1 FOR UPDATE`, batchID)
	return scanMapperBatch(row)
}

func (r *mapperBatchRepo) MarkProcessed(ctx context.Context, batchID string, attempts int, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE mapper_resolution_batch_status
		   SET status='Processed', attempts=$2, latest_error_code=NULL, resolution_ts=$3
		 WHERE batch_id=$1`, batchID, attempts, ts)
	return err
}

func (r *mapperBatchRepo) MarkPending(ctx context.Context, batchID, errCode string, attempts int, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE mapper_resolution_batch_status
		   SET status='Pending', attempts=$2, latest_error_code=$3, resolution_ts=$4
		 WHERE batch_id=$1`, batchID, attempts, nullIfEmpty(errCode), ts)
	return err
}

// InsertDetails writes every resolved FA row for a batch in one call;
// §4.E's "no partial insert" rule means the caller only invokes this
// once every beneficiary in the batch resolved successfully.
func (r *mapperBatchRepo) InsertDetails(ctx context.Context, details []mapperbatch.Details) error {
	for _, d := range details {
		_, err := r.db.Exec(ctx, `
			INSERT INTO mapper_resolution_details (disbursement_id, resolved_fa, resolved_name, fa_type,
			                                        account_number, bank_code, branch_code,
			                                        mobile_number, mobile_wallet_provider,
			                                        email_address, email_wallet_provider)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			d.DisbursementID, d.ResolvedFA, d.ResolvedName, string(d.FAType),
			nullIfEmpty(d.AccountNumber), nullIfEmpty(d.BankCode), nullIfEmpty(d.BranchCode),
			nullIfEmpty(d.MobileNumber), nullIfEmpty(d.MobileWalletProvider),
			nullIfEmpty(d.EmailAddress), nullIfEmpty(d.EmailWalletProvider))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *mapperBatchRepo) FindDetailsByDisbursementIDs(ctx context.Context, ids []string) ([]mapperbatch.Details, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.Query(ctx, `
		SELECT disbursement_id, resolved_fa, resolved_name, fa_type, account_number, bank_code, branch_code,
		       mobile_number, mobile_wallet_provider, email_address, email_wallet_provider
		  FROM mapper_resolution_details
		 WHERE disbursement_id IN (`+placeholders(len(ids), 1)+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []mapperbatch.Details
	for rows.Next() {
		var d mapperbatch.Details
		var faType string
		var acct, bank, branch, mobile, mobileProv, email, emailProv sql.NullString
		if err := rows.Scan(&d.DisbursementID, &d.ResolvedFA, &d.ResolvedName, &faType,
			&acct, &bank, &branch, &mobile, &mobileProv, &email, &emailProv); err != nil {
			return nil, err
		}
		d.FAType = mapperbatch.FAType(faType)
		d.AccountNumber, d.BankCode, d.BranchCode = acct.String, bank.String, branch.String
		d.MobileNumber, d.MobileWalletProvider = mobile.String, mobileProv.String
		d.EmailAddress, d.EmailWalletProvider = email.String, emailProv.String
		out = append(out, d)
	}
	return out, rows.Err()
}
