// Package statement holds the uploaded MT940 file metadata and its
// raw content, pending reconciliation by the pipeline.
package statement

import "time"

type ProcessStatus string

const (
	Pending   ProcessStatus = "Pending"
	Processed ProcessStatus = "Processed"
	Error     ProcessStatus = "Error"
)

// AccountStatement is the metadata row for one uploaded bank statement.
type AccountStatement struct {
	StatementID   string
	AccountNumber string
	ProcessStatus ProcessStatus
	Attempts      int
	LatestErrCode string
	LatestErrDetail string
	UploadedAt    time.Time
}

// AccountStatementLob carries the raw statement bytes, kept separate
// from the metadata row the way large objects usually are.
type AccountStatementLob struct {
	StatementID string
	Content     []byte
}

func New(statementID string, content []byte) (*AccountStatement, *AccountStatementLob) {
	return &AccountStatement{
			StatementID:   statementID,
			ProcessStatus: Pending,
		}, &AccountStatementLob{
			StatementID: statementID,
			Content:     content,
		}
}
