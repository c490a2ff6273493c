// Package repositories defines the storage-agnostic contracts the
// ingress service and pipeline stages depend on. Concrete
// implementations live in internal/store/postgres; depending only on
// these interfaces is what makes pipeline stages testable with fakes.
package repositories

import (
	"context"
	"time"

	"g2pbridge/internal/domain/bankbatch"
	"g2pbridge/internal/domain/credential"
	"g2pbridge/internal/domain/disbursement"
	"g2pbridge/internal/domain/envelope"
	"g2pbridge/internal/domain/mapperbatch"
	"g2pbridge/internal/domain/programconfig"
	"g2pbridge/internal/domain/recon"
	"g2pbridge/internal/domain/statement"
	"g2pbridge/internal/errs"
)

// EnvelopeRepository owns DisbursementEnvelope and its 1:1 batch
// status row.
type EnvelopeRepository interface {
	NextEnvelopeID(ctx context.Context) (string, error)
	Create(ctx context.Context, e *envelope.Envelope, bs *envelope.BatchStatus) error
	FindByID(ctx context.Context, envelopeID string) (*envelope.Envelope, error)
	FindForUpdate(ctx context.Context, envelopeID string) (*envelope.Envelope, error)
	Cancel(ctx context.Context, envelopeID string, ts time.Time) error

	GetBatchStatus(ctx context.Context, envelopeID string) (*envelope.BatchStatus, error)
	GetBatchStatusForUpdate(ctx context.Context, envelopeID string) (*envelope.BatchStatus, error)
	AdjustCounters(ctx context.Context, envelopeID string, deltaCount int, deltaAmount int64) error
	UpdateFundsAvailable(ctx context.Context, envelopeID string, state envelope.FundsAvailableState, errCode string, attempts int, ts time.Time) error
	UpdateFundsBlocked(ctx context.Context, envelopeID string, state envelope.FundsBlockedState, blockRef, errCode string, attempts int, ts time.Time) error
	IncrementShippedCount(ctx context.Context, envelopeID string, delta int) error

	// FindEligibleForFundsCheck selects (skipping locked rows) up to
	// limit envelope IDs meeting Stage 1's eligibility predicate. It
	// does not mark them claimed; the worker's write-back re-check
	// discards a result another worker already recorded.
	FindEligibleForFundsCheck(ctx context.Context, maxAttempts, limit int) ([]string, error)
	FindEligibleForFundsBlock(ctx context.Context, maxAttempts, limit int) ([]string, error)
	FindEligibleForDispatch(ctx context.Context, limit int) ([]string, error)
}

// DisbursementRepository owns Disbursement rows and their batch
// control links.
type DisbursementRepository interface {
	NextDisbursementID(ctx context.Context) (string, error)
	CreateBatch(ctx context.Context, ds []disbursement.Disbursement, bc []disbursement.BatchControl) error
	FindByIDs(ctx context.Context, ids []string) ([]disbursement.Disbursement, error)
	FindForUpdate(ctx context.Context, ids []string) ([]disbursement.Disbursement, error)
	CancelBatch(ctx context.Context, ids []string, ts time.Time) error

	FindBatchControlByDisbursementID(ctx context.Context, disbursementID string) (*disbursement.BatchControl, error)
	FindBatchControlsByMapperBatch(ctx context.Context, mapperBatchID string) ([]disbursement.BatchControl, error)
	FindBatchControlsByBankBatch(ctx context.Context, bankBatchID string) ([]disbursement.BatchControl, error)
}

// BankBatchRepository owns BankDisbursementBatchStatus.
type BankBatchRepository interface {
	Create(ctx context.Context, b *bankbatch.BatchStatus) error
	FindEligible(ctx context.Context, envelopeID string, maxAttempts, limit int) ([]bankbatch.BatchStatus, error)
	GetForUpdate(ctx context.Context, batchID string) (*bankbatch.BatchStatus, error)
	MarkProcessed(ctx context.Context, batchID string, attempts int, ts time.Time) error
	MarkPending(ctx context.Context, batchID, errCode string, attempts int, ts time.Time) error
}

// MapperBatchRepository owns MapperResolutionBatchStatus and the
// MapperResolutionDetails rows it produces.
type MapperBatchRepository interface {
	Create(ctx context.Context, b *mapperbatch.BatchStatus) error
	FindEligible(ctx context.Context, maxAttempts, limit int) ([]mapperbatch.BatchStatus, error)
	GetForUpdate(ctx context.Context, batchID string) (*mapperbatch.BatchStatus, error)
	MarkProcessed(ctx context.Context, batchID string, attempts int, ts time.Time) error
	MarkPending(ctx context.Context, batchID, errCode string, attempts int, ts time.Time) error
	InsertDetails(ctx context.Context, details []mapperbatch.Details) error
	FindDetailsByDisbursementIDs(ctx context.Context, ids []string) ([]mapperbatch.Details, error)
}

// StatementRepository owns AccountStatement/AccountStatementLob.
type StatementRepository interface {
	NextStatementID(ctx context.Context) (string, error)
	Create(ctx context.Context, s *statement.AccountStatement, lob *statement.AccountStatementLob) error
	FindEligible(ctx context.Context, maxAttempts, limit int) ([]statement.AccountStatement, error)
	GetForUpdate(ctx context.Context, statementID string) (*statement.AccountStatement, *statement.AccountStatementLob, error)
	MarkProcessed(ctx context.Context, statementID string, attempts int, ts time.Time) error
	MarkError(ctx context.Context, statementID string, code errs.Code, attempts int, ts time.Time) error
	MarkPendingWithError(ctx context.Context, statementID, detail string, attempts int, ts time.Time) error
}

// ReconRepository owns DisbursementRecon/DisbursementErrorRecon.
type ReconRepository interface {
	FindByDisbursementID(ctx context.Context, disbursementID string) (*recon.DisbursementRecon, error)
	InsertRecon(ctx context.Context, r *recon.DisbursementRecon) error
	UpdateReversal(ctx context.Context, r *recon.DisbursementRecon) error
	InsertErrorRecon(ctx context.Context, r *recon.ErrorRecon) error
}

// ConfigRepository owns BenefitProgramConfiguration, read-only after
// startup per §9.
type ConfigRepository interface {
	LoadAll(ctx context.Context) ([]programconfig.Config, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (*programconfig.Config, error)
	FindByProgramMnemonic(ctx context.Context, mnemonic string) (*programconfig.Config, error)
}

// CredentialRepository owns the encrypted sponsor-bank connector
// credentials loaded once at startup.
type CredentialRepository interface {
	FindBySponsorBankCode(ctx context.Context, sponsorBankCode string) (*credential.BankCredential, error)
	Create(ctx context.Context, c *credential.BankCredential) error
}

// UnitOfWork opens the single transaction that ingress write paths
// (createDisbursements, cancelDisbursements) commit atomically.
type UnitOfWork interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Transaction exposes tx-bound repository views plus commit/rollback.
// Pipeline workers that only need envelope/disbursement mutation reach
// for the same views; everything still commits or rolls back as one
// unit.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Envelopes() EnvelopeRepository
	Disbursements() DisbursementRepository
	BankBatches() BankBatchRepository
	MapperBatches() MapperBatchRepository
	Statements() StatementRepository
	Recon() ReconRepository
}
