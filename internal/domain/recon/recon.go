// Package recon holds the per-transaction reconciliation outcomes
// produced by the MT940 reconciler: successful pairings against a
// known disbursement, and unattributable errors.
package recon

import "time"

type ErrorReason string

const (
	InvalidDisbursementID ErrorReason = "InvalidDisbursementID"
	DuplicateDisbursement ErrorReason = "DuplicateDisbursement"
	InvalidReversal       ErrorReason = "InvalidReversal"
)

// DisbursementRecon ties a bank statement debit (and, later, its
// reversal) to a known disbursement.
type DisbursementRecon struct {
	ID             int64
	DisbursementID string
	StatementID    string
	StatementNumber string

	TransactionAmount int64
	CustomerReference string
	BankReference     string
	Narratives        []string
	ValueDate         time.Time
	EntryDate         time.Time

	ReversalFound           bool
	ReversalStatementID     string
	ReversalStatementNumber string
	ReversalReason          string
	ReversalTS              *time.Time

	CreatedAt time.Time
}

// ErrorRecon records a statement line that could not be attributed to
// a known disbursement, or that violates the debit/reversal pairing.
type ErrorRecon struct {
	ID            int64
	StatementID   string
	BankReference string
	Reason        ErrorReason
	CreatedAt     time.Time
}
