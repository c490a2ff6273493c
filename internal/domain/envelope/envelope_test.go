package envelope

import (
	"testing"
	"time"

	"g2pbridge/internal/errs"
)

func validPayload(today time.Time) CreatePayload {
	return CreatePayload{
		ProgramMnemonic:   "CASH_TRANSFER",
		CycleCodeMnemonic: "2026-Q1",
		Frequency:         Monthly,
		BeneficiaryCount:  10,
		DisbursementCount: 10,
		TotalAmount:       1000,
		ScheduleDate:      today,
	}
}

func TestCreatePayloadValidate(t *testing.T) {
	today := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	if err := validPayload(today).Validate(today); err != nil {
		t.Fatalf("expected valid payload to pass, got %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(p CreatePayload) CreatePayload
		wantErr errs.Code
	}{
		{"missing program mnemonic", func(p CreatePayload) CreatePayload { p.ProgramMnemonic = ""; return p }, errs.InvalidProgramMnemonic},
		{"missing cycle code", func(p CreatePayload) CreatePayload { p.CycleCodeMnemonic = ""; return p }, errs.InvalidCycleCodeMnemonic},
		{"bad frequency", func(p CreatePayload) CreatePayload { p.Frequency = "Fortnightely"; return p }, errs.InvalidDisbursementFrequency},
		{"zero beneficiaries", func(p CreatePayload) CreatePayload { p.BeneficiaryCount = 0; return p }, errs.InvalidNoOfBeneficiaries},
		{"zero disbursements", func(p CreatePayload) CreatePayload { p.DisbursementCount = 0; return p }, errs.InvalidNoOfDisbursements},
		{"negative total", func(p CreatePayload) CreatePayload { p.TotalAmount = -1; return p }, errs.InvalidTotalDisbursementAmt},
		{"schedule in the past", func(p CreatePayload) CreatePayload { p.ScheduleDate = today.AddDate(0, 0, -1); return p }, errs.InvalidDisbursementSchedule},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mutate(validPayload(today)).Validate(today)
			code, ok := errs.CodeOf(err)
			if !ok || code != tc.wantErr {
				t.Fatalf("got %v, want code %s", err, tc.wantErr)
			}
		})
	}
}

func TestNewBatchStatus(t *testing.T) {
	bs := NewBatchStatus("ENV000000000001", true)
	if bs.FundsAvailable != FundsPendingCheck || bs.FundsBlocked != BlockPendingCheck {
		t.Errorf("new batch status should start pending, got %+v", bs)
	}
	if !bs.IDMapperResolutionRequired {
		t.Errorf("expected mapper resolution required to be carried through")
	}
}

func TestIsCancelled(t *testing.T) {
	e := Envelope{CancellationStatus: NotCancelled}
	if e.IsCancelled() {
		t.Errorf("fresh envelope should not be cancelled")
	}
	e.CancellationStatus = Cancelled
	if !e.IsCancelled() {
		t.Errorf("expected cancelled envelope to report true")
	}
}
