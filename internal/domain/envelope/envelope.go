// Package envelope holds the DisbursementEnvelope aggregate: the
// immutable campaign declaration and its mutable running batch status.
package envelope

import (
	"time"

	"g2pbridge/internal/errs"
)

type Frequency string

const (
	Daily        Frequency = "Daily"
	Weekly       Frequency = "Weekly"
	Fortnightly  Frequency = "Fortnightly"
	Monthly      Frequency = "Monthly"
	BiMonthly    Frequency = "BiMonthly"
	Quarterly    Frequency = "Quarterly"
	SemiAnnually Frequency = "SemiAnnually"
	Annually     Frequency = "Annually"
	OnDemand     Frequency = "OnDemand"
)

var validFrequencies = map[Frequency]bool{
	Daily: true, Weekly: true, Fortnightly: true, Monthly: true,
	BiMonthly: true, Quarterly: true, SemiAnnually: true,
	Annually: true, OnDemand: true,
}

func ValidFrequency(f Frequency) bool { return validFrequencies[f] }

type CancellationStatus string

const (
	NotCancelled CancellationStatus = "NotCancelled"
	Cancelled    CancellationStatus = "Cancelled"
)

// Envelope is the immutable declaration of a payment campaign.
// Only CancellationStatus/CancellationTS ever mutate post-creation.
type Envelope struct {
	EnvelopeID         string
	ProgramMnemonic    string
	CycleCodeMnemonic  string
	Frequency          Frequency
	BeneficiaryCount   int
	DisbursementCount  int
	TotalAmount        int64
	ScheduleDate       time.Time
	CancellationStatus CancellationStatus
	CancellationTS     *time.Time
	CreatedAt          time.Time
}

func (e *Envelope) IsCancelled() bool { return e.CancellationStatus == Cancelled }

// CreatePayload is the validated input to createEnvelope.
type CreatePayload struct {
	ProgramMnemonic   string
	CycleCodeMnemonic string
	Frequency         Frequency
	BeneficiaryCount  int
	DisbursementCount int
	TotalAmount       int64
	ScheduleDate      time.Time
}

// Validate enforces the §4.D createEnvelope invariants, returning the
// first violated rule as a *errs.BridgeError.
func (p CreatePayload) Validate(today time.Time) error {
	if p.ProgramMnemonic == "" {
		return errs.New(errs.InvalidProgramMnemonic, "program_mnemonic is required")
	}
	if p.CycleCodeMnemonic == "" {
		return errs.New(errs.InvalidCycleCodeMnemonic, "cycle_code_mnemonic is required")
	}
	if !ValidFrequency(p.Frequency) {
		return errs.New(errs.InvalidDisbursementFrequency, "unknown frequency: "+string(p.Frequency))
	}
	if p.BeneficiaryCount < 1 {
		return errs.New(errs.InvalidNoOfBeneficiaries, "beneficiary_count must be >= 1")
	}
	if p.DisbursementCount < 1 {
		return errs.New(errs.InvalidNoOfDisbursements, "disbursement_count must be >= 1")
	}
	if p.TotalAmount < 0 {
		return errs.New(errs.InvalidTotalDisbursementAmt, "total_amount must be >= 0")
	}
	if p.ScheduleDate.Before(dateOnly(today)) {
		return errs.New(errs.InvalidDisbursementSchedule, "schedule_date must be >= today")
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// BatchStatus tracks running totals and per-stage state for one
// envelope, 1:1 with it.
type BatchStatus struct {
	EnvelopeID      string
	ReceivedCount   int
	ReceivedAmount  int64
	ShippedCount    int
	SucceededCount  int
	FailedCount     int

	FundsAvailable       FundsAvailableState
	FundsAvailableTS     *time.Time
	FundsAvailableErrCode string
	FundsAvailableAttempts int

	FundsBlocked        FundsBlockedState
	BlockReferenceNumber string
	FundsBlockedTS       *time.Time
	FundsBlockedErrCode  string
	FundsBlockedAttempts int

	IDMapperResolutionRequired bool
}

type FundsAvailableState string

const (
	FundsPendingCheck FundsAvailableState = "PendingCheck"
	FundsAvailableOK  FundsAvailableState = "Available"
	FundsNotAvailable FundsAvailableState = "NotAvailable"
)

type FundsBlockedState string

const (
	BlockPendingCheck FundsBlockedState = "PendingCheck"
	BlockSuccess      FundsBlockedState = "BlockSuccess"
	BlockFailure      FundsBlockedState = "BlockFailure"
)

// NewBatchStatus builds the zeroed batch status created alongside an
// envelope at ingress time.
func NewBatchStatus(envelopeID string, mapperResolutionRequired bool) *BatchStatus {
	return &BatchStatus{
		EnvelopeID:                 envelopeID,
		FundsAvailable:             FundsPendingCheck,
		FundsBlocked:               BlockPendingCheck,
		IDMapperResolutionRequired: mapperResolutionRequired,
	}
}
