package connector

// FundsAvailableStatus is the result of a checkFunds call.
type FundsAvailableStatus string

const (
	Available    FundsAvailableStatus = "Available"
	NotAvailable FundsAvailableStatus = "NotAvailable"
	PendingCheck FundsAvailableStatus = "PendingCheck"
)

// FundsBlockedStatus is the result of a blockFunds call.
type FundsBlockedStatus string

const (
	BlockSuccess FundsBlockedStatus = "BlockSuccess"
	BlockFailure FundsBlockedStatus = "BlockFailure"
)

// PaymentStatus is the result of an initiatePayment call.
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "Success"
	PaymentError   PaymentStatus = "Error"
)

type CheckFundsReq struct {
	AccountNumber   string
	AccountCurrency string
	TotalFundsNeeded int64
}

type CheckFundsResp struct {
	Status   FundsAvailableStatus
	ErrCode  string
}

type BlockFundsReq struct {
	AccountNumber string
	Currency      string
	Amount        int64
}

type BlockFundsResp struct {
	Status             FundsBlockedStatus
	BlockReferenceNo   string
	ErrCode            string
}

// PaymentPayload is one indivisible beneficiary instruction within a
// single initiatePayment call.
type PaymentPayload struct {
	DisbursementID       string
	BeneficiaryName      string
	Narrative            string
	Amount               int64
	BlockReferenceNo     string

	ResolvedFA           string
	AccountNumber        string
	BankCode             string
	BranchCode           string
	MobileNumber         string
	MobileWalletProvider string
	EmailAddress         string
	EmailWalletProvider  string
}

type InitiatePaymentReq struct {
	Payloads []PaymentPayload
}

type InitiatePaymentResp struct {
	Status        PaymentStatus
	ErrCode       string
	AckReferenceNo string
}
