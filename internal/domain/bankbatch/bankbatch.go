// Package bankbatch holds BankDisbursementBatchStatus, one row per
// bank-dispatch batch shared across the disbursements it carries.
package bankbatch

import "time"

type Status string

const (
	Pending     Status = "Pending"
	Dispatching Status = "Dispatching"
	Processed   Status = "Processed"
)

type BatchStatus struct {
	BatchID        string
	EnvelopeID     string
	Status         Status
	Attempts       int
	LatestErrCode  string
	TS             *time.Time
}

func New(batchID, envelopeID string) *BatchStatus {
	return &BatchStatus{BatchID: batchID, EnvelopeID: envelopeID, Status: Pending}
}
