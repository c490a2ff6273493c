// Package mapper is the client for the external ID-mapper resolution
// service: it translates beneficiary IDs into financial addresses.
// Only its request/response contract is specified (spec §1); this
// client implements that contract over the shared backoff-wrapped
// HTTP helper.
package mapper

import (
	"context"
	"time"

	"g2pbridge/internal/connector/base"
)

const clientName = "mapper_resolution"

type Client struct {
	http *base.HTTPClient
	timeout time.Duration
}

func New(resolveAPIURL string, timeout time.Duration) *Client {
	return &Client{
		http:    base.NewHTTPClient(clientName, resolveAPIURL, timeout),
		timeout: timeout,
	}
}

type ResolveRequestItem struct {
	BeneficiaryID string `json:"beneficiary_id"`
}

type resolveRequest struct {
	Beneficiaries []ResolveRequestItem `json:"beneficiaries"`
}

// ResolveResult is the per-beneficiary outcome of a resolve call. FA
// is empty when the mapper has no resolution for that beneficiary.
type ResolveResult struct {
	BeneficiaryID string `json:"beneficiary_id"`
	FA            string `json:"fa"`
	Name          string `json:"name"`
}

type resolveResponse struct {
	Results []ResolveResult `json:"results"`
}

// Resolve posts one batched request (one entry per beneficiary_id) and
// returns the per-beneficiary results in the mapper's response order.
func (c *Client) Resolve(ctx context.Context, beneficiaryIDs []string) ([]ResolveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	items := make([]ResolveRequestItem, 0, len(beneficiaryIDs))
	for _, id := range beneficiaryIDs {
		items = append(items, ResolveRequestItem{BeneficiaryID: id})
	}

	var resp resolveResponse
	if err := c.http.PostJSON(ctx, "", resolveRequest{Beneficiaries: items}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}
