// Package credential models a sponsor bank's encrypted connector
// credential: the API key the bridge presents to a bank's HTTP
// endpoint, stored encrypted at rest and decrypted once at startup.
package credential

import "fmt"

// BankCredential is one sponsor_bank_code's encrypted API key.
type BankCredential struct {
	ID              int64
	SponsorBankCode string
	APIKeyEnc       string
	IsActive        bool
}

// NewBankCredential validates and constructs a credential ready for
// encryption by the caller (internal/crypto) before persistence.
func NewBankCredential(sponsorBankCode, apiKeyEnc string) (*BankCredential, error) {
	if sponsorBankCode == "" {
		return nil, fmt.Errorf("sponsor_bank_code is required")
	}
	if apiKeyEnc == "" {
		return nil, fmt.Errorf("encrypted api key is required")
	}
	return &BankCredential{SponsorBankCode: sponsorBankCode, APIKeyEnc: apiKeyEnc, IsActive: true}, nil
}
