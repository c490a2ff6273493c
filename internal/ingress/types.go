package ingress

import (
	"g2pbridge/internal/domain/disbursement"
)

// CreateEnvelopeResult is createEnvelope's successful outcome.
type CreateEnvelopeResult struct {
	EnvelopeID string
}

// CreateDisbursementsBatch is createDisbursements' input.
type CreateDisbursementsBatch struct {
	Payloads []disbursement.CreatePayload
}

// CreateDisbursementsResult is createDisbursements' successful outcome.
type CreateDisbursementsResult struct {
	DisbursementIDs []string
	MapperBatchID   string
	BankBatchID     string
}

// CancelDisbursementsBatch is cancelDisbursements' input.
type CancelDisbursementsBatch struct {
	DisbursementIDs []string
}

// UploadStatementResult is uploadStatement's successful outcome.
type UploadStatementResult struct {
	StatementID string
}
