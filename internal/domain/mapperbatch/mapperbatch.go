// Package mapperbatch holds MapperResolutionBatchStatus and the
// per-disbursement MapperResolutionDetails rows it produces.
package mapperbatch

import "time"

type Status string

const (
	Pending   Status = "Pending"
	Processed Status = "Processed"
)

type BatchStatus struct {
	BatchID       string
	Status        Status
	Attempts      int
	LatestErrCode string
	ResolutionTS  *time.Time
}

func New(batchID string) *BatchStatus {
	return &BatchStatus{BatchID: batchID, Status: Pending}
}

type FAType string

const (
	FABankAccount   FAType = "BankAccount"
	FAMobileWallet  FAType = "MobileWallet"
	FAEmailWallet   FAType = "EmailWallet"
)

// Details is the resolved financial address for one disbursement.
type Details struct {
	DisbursementID string
	ResolvedFA     string
	ResolvedName   string
	FAType         FAType

	AccountNumber string
	BankCode      string
	BranchCode    string

	MobileNumber         string
	MobileWalletProvider string

	EmailAddress       string
	EmailWalletProvider string
}
