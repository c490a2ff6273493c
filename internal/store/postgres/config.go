package postgres

import (
	"context"

	"g2pbridge/internal/domain/programconfig"
	"g2pbridge/internal/store/repositories"

	"github.com/jackc/pgx/v5"
)

type configRepo struct{ db dbtx }

func NewConfigRepository(db dbtx) repositories.ConfigRepository { return &configRepo{db: db} }

const programConfigCols = `program_mnemonic, sponsor_bank_code, sponsor_bank_account_number,
	sponsor_bank_account_currency, id_mapper_resolution_required`

func scanProgramConfig(row pgx.Row) (*programconfig.Config, error) {
	var c programconfig.Config
	err := row.Scan(&c.ProgramMnemonic, &c.SponsorBankCode, &c.SponsorBankAccountNumber,
		&c.SponsorBankAccountCurrency, &c.IDMapperResolutionRequired)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *configRepo) LoadAll(ctx context.Context) ([]programconfig.Config, error) {
	rows, err := r.db.Query(ctx, `SELECT `+programConfigCols+` FROM benefit_program_configuration`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []programconfig.Config
	for rows.Next() {
		c, err := scanProgramConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *configRepo) FindByAccountNumber(ctx context.Context, accountNumber string) (*programconfig.Config, error) {
	row := r.db.QueryRow(ctx, `SELECT `+programConfigCols+` FROM benefit_program_configuration WHERE sponsor_bank_account_number=$1`, accountNumber)
	return scanProgramConfig(row)
}

func (r *configRepo) FindByProgramMnemonic(ctx context.Context, mnemonic string) (*programconfig.Config, error) {
	row := r.db.QueryRow(ctx, `SELECT `+programConfigCols+` FROM benefit_program_configuration WHERE program_mnemonic=$1`, mnemonic)
	return scanProgramConfig(row)
}
