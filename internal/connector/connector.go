// Package connector defines the uniform bank-connector interface the
// pipeline drives each envelope's funds-check, fund-block and payment
// dispatch stages through, plus the process-wide registry of bank
// implementations keyed by sponsor_bank_code.
package connector

import "context"

// Connector calls never panic through the worker boundary. A
// transport/timeout failure comes back as a non-nil error alongside a
// failure-shaped response; the stages record any such error as a
// retryable CONNECTOR_ERROR (PendingCheck/Pending) rather than
// returning it.
type Connector interface {
	CheckFunds(ctx context.Context, req CheckFundsReq) (CheckFundsResp, error)
	BlockFunds(ctx context.Context, req BlockFundsReq) (BlockFundsResp, error)
	InitiatePayment(ctx context.Context, req InitiatePaymentReq) (InitiatePaymentResp, error)

	// RetrieveDisbursementID, RetrieveBeneficiaryName and
	// RetrieveReversalReason extract fields from MT940 narrative
	// lines; the extraction strategy is bank-specific.
	RetrieveDisbursementID(bankRef, customerRef string, narratives []string) string
	RetrieveBeneficiaryName(narratives []string) string
	RetrieveReversalReason(narratives []string) string

	Name() string
}

// Error is the uniform error shape surfaced by a Connector call.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }
