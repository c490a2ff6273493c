// Package examplebank is the reference Connector implementation
// against the mock "example bank" HTTP backend named in spec §6: its
// request/response shape is the only contract that matters to the
// pipeline, not its internal behavior.
package examplebank

import (
	"context"
	"regexp"
	"time"

	"g2pbridge/internal/connector"
	"g2pbridge/internal/connector/base"
)

const Name = "example_bank"

type Client struct {
	http *base.HTTPClient
}

func New(baseURL string, timeout time.Duration, apiKey string) *Client {
	http := base.NewHTTPClient(Name, baseURL, timeout)
	http.SetAPIKey(apiKey)
	return &Client{http: http}
}

func (c *Client) Name() string { return Name }

type checkFundsReq struct {
	AccountNumber    string `json:"account_number"`
	AccountCurrency  string `json:"account_currency"`
	TotalFundsNeeded int64  `json:"total_funds_needed"`
}

type checkFundsResp struct {
	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
}

func (c *Client) CheckFunds(ctx context.Context, req connector.CheckFundsReq) (connector.CheckFundsResp, error) {
	var resp checkFundsResp
	err := c.http.PostJSON(ctx, "/check_funds", checkFundsReq{
		AccountNumber:    req.AccountNumber,
		AccountCurrency:  req.AccountCurrency,
		TotalFundsNeeded: req.TotalFundsNeeded,
	}, &resp)
	if err != nil {
		return connector.CheckFundsResp{Status: connector.PendingCheck}, err
	}
	if resp.Status == "success" {
		return connector.CheckFundsResp{Status: connector.Available}, nil
	}
	return connector.CheckFundsResp{Status: connector.NotAvailable, ErrCode: resp.ErrorCode}, nil
}

type blockFundsReq struct {
	AccountNumber string `json:"account_number"`
	Currency      string `json:"currency"`
	Amount        int64  `json:"amount"`
}

type blockFundsResp struct {
	Status           string `json:"status"`
	BlockReferenceNo string `json:"block_reference_no"`
	ErrorCode        string `json:"error_code"`
}

func (c *Client) BlockFunds(ctx context.Context, req connector.BlockFundsReq) (connector.BlockFundsResp, error) {
	var resp blockFundsResp
	err := c.http.PostJSON(ctx, "/block_funds", blockFundsReq{
		AccountNumber: req.AccountNumber,
		Currency:      req.Currency,
		Amount:        req.Amount,
	}, &resp)
	if err != nil {
		return connector.BlockFundsResp{Status: connector.BlockFailure}, err
	}
	if resp.Status == "success" {
		return connector.BlockFundsResp{Status: connector.BlockSuccess, BlockReferenceNo: resp.BlockReferenceNo}, nil
	}
	return connector.BlockFundsResp{Status: connector.BlockFailure, ErrCode: resp.ErrorCode}, nil
}

type initiatePaymentPayload struct {
	DisbursementID   string `json:"disbursement_id"`
	BeneficiaryName  string `json:"beneficiary_name"`
	Narrative        string `json:"narrative"`
	Amount           int64  `json:"amount"`
	BlockReferenceNo string `json:"block_reference_no"`
	ResolvedFA       string `json:"resolved_fa,omitempty"`
}

type initiatePaymentReq struct {
	Payloads []initiatePaymentPayload `json:"initiate_payment_payloads"`
}

type initiatePaymentResp struct {
	Status         string `json:"status"`
	ErrorMessage   string `json:"error_message"`
	AckReferenceNo string `json:"ack_reference_no"`
}

func (c *Client) InitiatePayment(ctx context.Context, req connector.InitiatePaymentReq) (connector.InitiatePaymentResp, error) {
	payloads := make([]initiatePaymentPayload, 0, len(req.Payloads))
	for _, p := range req.Payloads {
		payloads = append(payloads, initiatePaymentPayload{
			DisbursementID:   p.DisbursementID,
			BeneficiaryName:  p.BeneficiaryName,
			Narrative:        p.Narrative,
			Amount:           p.Amount,
			BlockReferenceNo: p.BlockReferenceNo,
			ResolvedFA:       p.ResolvedFA,
		})
	}

	var resp initiatePaymentResp
	err := c.http.PostJSON(ctx, "/initiate_payment", initiatePaymentReq{Payloads: payloads}, &resp)
	if err != nil {
		return connector.InitiatePaymentResp{Status: connector.PaymentError}, err
	}
	if resp.Status == "success" {
		return connector.InitiatePaymentResp{Status: connector.PaymentSuccess, AckReferenceNo: resp.AckReferenceNo}, nil
	}
	return connector.InitiatePaymentResp{Status: connector.PaymentError, ErrCode: resp.ErrorMessage}, nil
}

var (
	disbursementRefRe = regexp.MustCompile(`DISB-([A-Za-z0-9]+)`)
	reversalReasonRe  = regexp.MustCompile(`REASON:([^;]+)`)
)

// RetrieveDisbursementID extracts the bridge-assigned disbursement ID
// the example bank echoes back in its narrative lines, falling back to
// the bank's own customer_reference when no narrative tag is present.
func (c *Client) RetrieveDisbursementID(bankRef, customerRef string, narratives []string) string {
	for _, n := range narratives {
		if m := disbursementRefRe.FindStringSubmatch(n); m != nil {
			return m[1]
		}
	}
	return customerRef
}

func (c *Client) RetrieveBeneficiaryName(narratives []string) string {
	if len(narratives) == 0 {
		return ""
	}
	return narratives[0]
}

func (c *Client) RetrieveReversalReason(narratives []string) string {
	for _, n := range narratives {
		if m := reversalReasonRe.FindStringSubmatch(n); m != nil {
			return m[1]
		}
	}
	return ""
}
