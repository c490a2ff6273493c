// Package disbursement holds the Disbursement line item and the
// batch-control links tying it to its mapper and bank dispatch batches.
package disbursement

import (
	"time"

	"g2pbridge/internal/domain/envelope"
	"g2pbridge/internal/errs"
)

// Disbursement is a single beneficiary line inside an envelope.
type Disbursement struct {
	DisbursementID     string
	EnvelopeID         string
	BeneficiaryID      string
	BeneficiaryName    string
	Narrative          string
	Amount             int64
	CancellationStatus envelope.CancellationStatus
	CancellationTS     *time.Time
	CreatedAt          time.Time
}

func (d *Disbursement) IsCancelled() bool {
	return d.CancellationStatus == envelope.Cancelled
}

// BatchControl links a Disbursement to its mapper-resolution batch and
// its bank-dispatch batch. One row per disbursement.
type BatchControl struct {
	DisbursementID string
	MapperBatchID  string
	BankBatchID    string
}

// CreatePayload is one unvalidated line in a createDisbursements call.
type CreatePayload struct {
	EnvelopeID      string
	BeneficiaryID   string
	BeneficiaryName string
	Narrative       string
	Amount          int64
}

// PayloadError attaches a stable code to the offending index of a
// rejected createDisbursements batch.
type PayloadError struct {
	Index int
	Code  errs.Code
}

// ValidatePayloads validates each payload and returns the full list of
// per-index violations (nil if all valid). The caller rejects the
// whole batch on any violation, per §4.D.
func ValidatePayloads(payloads []CreatePayload) []PayloadError {
	var violations []PayloadError
	for i, p := range payloads {
		switch {
		case p.EnvelopeID == "":
			violations = append(violations, PayloadError{i, errs.InvalidDisbursementEnvelope})
		case p.Amount <= 0:
			violations = append(violations, PayloadError{i, errs.InvalidDisbursementAmount})
		case p.BeneficiaryID == "":
			violations = append(violations, PayloadError{i, errs.InvalidBeneficiaryID})
		case p.BeneficiaryName == "":
			violations = append(violations, PayloadError{i, errs.InvalidBeneficiaryName})
		case p.Narrative == "":
			violations = append(violations, PayloadError{i, errs.InvalidNarrative})
		}
	}
	return violations
}

// SameEnvelope reports whether every payload targets the same envelope,
// returning that envelope ID ("" and true for an empty batch).
func SameEnvelope(payloads []CreatePayload) (string, bool) {
	if len(payloads) == 0 {
		return "", true
	}
	id := payloads[0].EnvelopeID
	for _, p := range payloads[1:] {
		if p.EnvelopeID != id {
			return "", false
		}
	}
	return id, true
}

func SumAmount(payloads []CreatePayload) int64 {
	var total int64
	for _, p := range payloads {
		total += p.Amount
	}
	return total
}
