package postgres

import (
	"context"
	"database/sql"
	"time"

	"g2pbridge/internal/domain/statement"
	"g2pbridge/internal/errs"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
)

type statementRepo struct{ db dbtx }

func NewStatementRepository(db dbtx) repositories.StatementRepository {
	return &statementRepo{db: db}
}

func (r *statementRepo) NextStatementID(ctx context.Context) (string, error) {
	return nextPaddedID(ctx, r.db, "statement_id_seq", "STM")
}

func (r *statementRepo) Create(ctx context.Context, s *statement.AccountStatement, lob *statement.AccountStatementLob) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO account_statements (statement_id, account_number, process_status, attempts, uploaded_at)
		VALUES ($1,$2,$3,0,now())`, s.StatementID, s.AccountNumber, string(s.ProcessStatus))
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO account_statement_lobs (statement_id, content) VALUES ($1,$2)`,
		lob.StatementID, lob.Content)
	return err
}

const statementCols = `statement_id, account_number, process_status, attempts, latest_error_code, latest_error_detail, uploaded_at`

func scanStatement(row pgx.Row) (*statement.AccountStatement, error) {
	var s statement.AccountStatement
	var status string
	var errCode, errDetail sql.NullString
	err := row.Scan(&s.StatementID, &s.AccountNumber, &status, &s.Attempts, &errCode, &errDetail, &s.UploadedAt)
	if err != nil {
		return nil, err
	}
	s.ProcessStatus = statement.ProcessStatus(status)
	s.LatestErrCode = errCode.String
	s.LatestErrDetail = errDetail.String
	return &s, nil
}

func (r *statementRepo) FindEligible(ctx context.Context, maxAttempts, limit int) ([]statement.AccountStatement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+statementCols+` FROM account_statements
		WHERE process_status='Pending' AND attempts < $1
		ORDER BY uploaded_at LIMIT $2 FOR UPDATE SKIP LOCKED`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []statement.AccountStatement
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *statementRepo) GetForUpdate(ctx context.Context, statementID string) (*statement.AccountStatement, *statement.AccountStatementLob, error) {
	row := r.db.QueryRow(ctx, `SELECT `+statementCols+` FROM account_statements WHERE statement_id=$1 FOR UPDATE`, statementID)
	s, err := scanStatement(row)
	if err != nil {
		return nil, nil, err
	}
	var lob statement.AccountStatementLob
	lob.StatementID = statementID
	err = r.db.QueryRow(ctx, `SELECT content FROM account_statement_lobs WHERE statement_id=$1`, statementID).Scan(&lob.Content)
	if err != nil {
		return nil, nil, err
	}
	return s, &lob, nil
}

func (r *statementRepo) MarkProcessed(ctx context.Context, statementID string, attempts int, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE account_statements
		   SET process_status='Processed', attempts=$2, latest_error_code=NULL, latest_error_detail=NULL, processed_at=$3
		 WHERE statement_id=$1`, statementID, attempts, ts)
	return err
}

func (r *statementRepo) MarkError(ctx context.Context, statementID string, code errs.Code, attempts int, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE account_statements
		   SET process_status='Error', attempts=$2, latest_error_code=$3, processed_at=$4
		 WHERE statement_id=$1`, statementID, attempts, string(code), ts)
	return err
}

func (r *statementRepo) MarkPendingWithError(ctx context.Context, statementID, detail string, attempts int, ts time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE account_statements
		   SET process_status='Pending', attempts=$2, latest_error_detail=$3, processed_at=$4
		 WHERE statement_id=$1`, statementID, attempts, detail, ts)
	return err
}
