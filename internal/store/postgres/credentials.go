package postgres

import (
	"context"

	"g2pbridge/internal/domain/credential"
	"g2pbridge/internal/store/repositories"
)

type credentialRepo struct {
	db dbtx
}

func NewCredentialRepository(db dbtx) repositories.CredentialRepository {
	return &credentialRepo{db: db}
}

func (r *credentialRepo) FindBySponsorBankCode(ctx context.Context, sponsorBankCode string) (*credential.BankCredential, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, sponsor_bank_code, api_key_enc, is_active
		FROM bank_connector_credentials
		WHERE sponsor_bank_code = $1 AND is_active = true`, sponsorBankCode)

	var c credential.BankCredential
	if err := row.Scan(&c.ID, &c.SponsorBankCode, &c.APIKeyEnc, &c.IsActive); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *credentialRepo) Create(ctx context.Context, c *credential.BankCredential) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO bank_connector_credentials (sponsor_bank_code, api_key_enc, is_active)
		VALUES ($1, $2, $3)
		RETURNING id`, c.SponsorBankCode, c.APIKeyEnc, c.IsActive).Scan(&c.ID)
}
