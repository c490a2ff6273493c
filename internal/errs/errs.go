// Package errs carries the stable error-code taxonomy surfaced to
// ingress callers and recorded as latest_error_code on pipeline rows.
package errs

import "errors"

// Code is a stable, client-visible error identifier.
type Code string

const (
	InvalidProgramMnemonic       Code = "INVALID_PROGRAM_MNEMONIC"
	InvalidDisbursementFrequency Code = "INVALID_DISBURSEMENT_FREQUENCY"
	InvalidCycleCodeMnemonic     Code = "INVALID_CYCLE_CODE_MNEMONIC"
	InvalidNoOfBeneficiaries     Code = "INVALID_NO_OF_BENEFICIARIES"
	InvalidNoOfDisbursements     Code = "INVALID_NO_OF_DISBURSEMENTS"
	InvalidTotalDisbursementAmt  Code = "INVALID_TOTAL_DISBURSEMENT_AMOUNT"
	InvalidDisbursementSchedule  Code = "INVALID_DISBURSEMENT_SCHEDULE_DATE"

	EnvelopeNotFound            Code = "DISBURSEMENT_ENVELOPE_NOT_FOUND"
	EnvelopeAlreadyCanceled      Code = "DISBURSEMENT_ENVELOPE_ALREADY_CANCELED"
	EnvelopeScheduleDateReached  Code = "DISBURSEMENT_ENVELOPE_SCHEDULE_DATE_REACHED"

	InvalidDisbursementPayload  Code = "INVALID_DISBURSEMENT_PAYLOAD"
	InvalidDisbursementEnvelope Code = "INVALID_DISBURSEMENT_ENVELOPE_ID"
	InvalidDisbursementAmount   Code = "INVALID_DISBURSEMENT_AMOUNT"
	InvalidBeneficiaryID        Code = "INVALID_BENEFICIARY_ID"
	InvalidBeneficiaryName      Code = "INVALID_BENEFICIARY_NAME"
	InvalidNarrative            Code = "INVALID_NARRATIVE"
	InvalidDisbursementID       Code = "INVALID_DISBURSEMENT_ID"
	DisbursementAlreadyCanceled Code = "DISBURSEMENT_ALREADY_CANCELED"

	MultipleEnvelopesFound          Code = "MULTIPLE_ENVELOPES_FOUND"
	NoOfDisbursementsExceedsDeclared    Code = "NO_OF_DISBURSEMENTS_EXCEEDS_DECLARED"
	TotalDisbursementAmtExceedsDeclared Code = "TOTAL_DISBURSEMENT_AMOUNT_EXCEEDS_DECLARED"
	NoOfDisbursementsLessThanZero       Code = "NO_OF_DISBURSEMENTS_LESS_THAN_ZERO"
	TotalDisbursementAmtLessThanZero    Code = "TOTAL_DISBURSEMENT_AMOUNT_LESS_THAN_ZERO"

	StatementUploadError Code = "STATEMENT_UPLOAD_ERROR"
	InvalidAccountNumber Code = "INVALID_ACCOUNT_NUMBER"

	DuplicateDisbursement Code = "DUPLICATE_DISBURSEMENT"
	InvalidReversal       Code = "INVALID_REVERSAL"

	RateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
)

// Violation attaches a stable code to one offending index of a
// rejected batch, carried on BridgeError so per-disbursement errors
// survive to the ingress response (§4.D/§7).
type Violation struct {
	Index int
	Code  Code
}

// BridgeError is the typed error surfaced across ingress and pipeline
// boundaries, mirroring the shape of a provider-level domain error.
// Violations is populated for batch-validation failures that reject one
// or more payloads, one entry per rejected payload; it is empty for
// errors that are not tied to a payload index.
type BridgeError struct {
	Code       Code
	Message    string
	Err        error
	Violations []Violation
}

func (e *BridgeError) Error() string {
	if e.Message != "" {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code)
}

func (e *BridgeError) Unwrap() error { return e.Err }

func New(code Code, message string) *BridgeError {
	return &BridgeError{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *BridgeError {
	return &BridgeError{Code: code, Message: message, Err: err}
}

// WrapViolations builds a BridgeError for a batch rejected on one or
// more payloads, keeping Code/Message as the summary for callers that
// only look at those two fields.
func WrapViolations(code Code, message string, violations []Violation) *BridgeError {
	return &BridgeError{Code: code, Message: message, Violations: violations}
}

// CodeOf extracts the Code from err if it is (or wraps) a *BridgeError.
func CodeOf(err error) (Code, bool) {
	var be *BridgeError
	if !errors.As(err, &be) {
		return "", false
	}
	return be.Code, true
}

// ViolationsOf extracts the per-payload violation list from err if it
// is (or wraps) a *BridgeError carrying one.
func ViolationsOf(err error) ([]Violation, bool) {
	var be *BridgeError
	if !errors.As(err, &be) || len(be.Violations) == 0 {
		return nil, false
	}
	return be.Violations, true
}
