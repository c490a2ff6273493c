package postgres

import (
	"context"
	"database/sql"

	"g2pbridge/internal/domain/recon"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
)

type reconRepo struct{ db dbtx }

func NewReconRepository(db dbtx) repositories.ReconRepository { return &reconRepo{db: db} }

const disbursementReconCols = `id, disbursement_id, statement_id, statement_number, transaction_amount,
	customer_reference, bank_reference, narratives, value_date, entry_date,
	reversal_found, reversal_statement_id, reversal_statement_number, reversal_reason, reversal_ts, created_at`

func scanDisbursementRecon(row pgx.Row) (*recon.DisbursementRecon, error) {
	var r recon.DisbursementRecon
	var reversalStmtID, reversalStmtNum, reversalReason sql.NullString
	var reversalTS sql.NullTime
	err := row.Scan(&r.ID, &r.DisbursementID, &r.StatementID, &r.StatementNumber, &r.TransactionAmount,
		&r.CustomerReference, &r.BankReference, &r.Narratives, &r.ValueDate, &r.EntryDate,
		&r.ReversalFound, &reversalStmtID, &reversalStmtNum, &reversalReason, &reversalTS, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ReversalStatementID = reversalStmtID.String
	r.ReversalStatementNumber = reversalStmtNum.String
	r.ReversalReason = reversalReason.String
	if reversalTS.Valid {
		r.ReversalTS = &reversalTS.Time
	}
	return &r, nil
}

func (r *reconRepo) FindByDisbursementID(ctx context.Context, disbursementID string) (*recon.DisbursementRecon, error) {
	row := r.db.QueryRow(ctx, `SELECT `+disbursementReconCols+` FROM disbursement_recon WHERE disbursement_id=$1`, disbursementID)
	dr, err := scanDisbursementRecon(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return dr, nil
}

func (r *reconRepo) InsertRecon(ctx context.Context, rc *recon.DisbursementRecon) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO disbursement_recon (disbursement_id, statement_id, statement_number, transaction_amount,
		                                 customer_reference, bank_reference, narratives, value_date, entry_date,
		                                 reversal_found, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,false,now())
		RETURNING id`,
		rc.DisbursementID, rc.StatementID, rc.StatementNumber, rc.TransactionAmount,
		rc.CustomerReference, rc.BankReference, rc.Narratives, rc.ValueDate, rc.EntryDate,
	).Scan(&rc.ID)
}

func (r *reconRepo) UpdateReversal(ctx context.Context, rc *recon.DisbursementRecon) error {
	_, err := r.db.Exec(ctx, `
		UPDATE disbursement_recon
		   SET reversal_found=true, reversal_statement_id=$2, reversal_statement_number=$3,
		       reversal_reason=$4, reversal_ts=$5
		 WHERE disbursement_id=$1`,
		rc.DisbursementID, rc.ReversalStatementID, rc.ReversalStatementNumber, rc.ReversalReason, rc.ReversalTS)
	return err
}

func (r *reconRepo) InsertErrorRecon(ctx context.Context, rc *recon.ErrorRecon) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO error_recon (statement_id, bank_reference, reason, created_at)
		VALUES ($1,$2,$3,now())
		RETURNING id`, rc.StatementID, rc.BankReference, string(rc.Reason)).Scan(&rc.ID)
}
