// Package ingress implements the HTTP-agnostic envelope and
// disbursement operations of §4.D: synchronous validation plus
// transactional writes that respect envelope quotas.
package ingress

import (
	"context"
	"time"

	"g2pbridge/internal/domain/bankbatch"
	"g2pbridge/internal/domain/disbursement"
	"g2pbridge/internal/domain/envelope"
	"g2pbridge/internal/domain/mapperbatch"
	"g2pbridge/internal/domain/programconfig"
	"g2pbridge/internal/domain/statement"
	"g2pbridge/internal/errs"
	"g2pbridge/internal/ratelimit"
	"g2pbridge/internal/store/repositories"

	"github.com/google/uuid"
)

// Service implements createEnvelope, cancelEnvelope, createDisbursements,
// cancelDisbursements and uploadStatement over a shared UnitOfWork.
// configByMnemonic is the process-wide, startup-loaded program
// configuration cache (§9: read-only after boot).
type Service struct {
	uow              repositories.UnitOfWork
	configByMnemonic map[string]programconfig.Config
	limiter          *ratelimit.Limiter
}

func NewService(uow repositories.UnitOfWork, configs []programconfig.Config, limiter *ratelimit.Limiter) *Service {
	byMnemonic := make(map[string]programconfig.Config, len(configs))
	for _, c := range configs {
		byMnemonic[c.ProgramMnemonic] = c
	}
	return &Service{uow: uow, configByMnemonic: byMnemonic, limiter: limiter}
}

func (s *Service) CreateEnvelope(ctx context.Context, payload envelope.CreatePayload) (*CreateEnvelopeResult, error) {
	if err := payload.Validate(time.Now()); err != nil {
		return nil, err
	}

	cfg, ok := s.configByMnemonic[payload.ProgramMnemonic]
	if !ok {
		return nil, errs.New(errs.InvalidProgramMnemonic, "unknown program_mnemonic: "+payload.ProgramMnemonic)
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	envelopeID, err := tx.Envelopes().NextEnvelopeID(ctx)
	if err != nil {
		return nil, err
	}

	env := &envelope.Envelope{
		EnvelopeID:         envelopeID,
		ProgramMnemonic:    payload.ProgramMnemonic,
		CycleCodeMnemonic:  payload.CycleCodeMnemonic,
		Frequency:          payload.Frequency,
		BeneficiaryCount:   payload.BeneficiaryCount,
		DisbursementCount:  payload.DisbursementCount,
		TotalAmount:        payload.TotalAmount,
		ScheduleDate:       payload.ScheduleDate,
		CancellationStatus: envelope.NotCancelled,
		CreatedAt:          time.Now(),
	}
	bs := envelope.NewBatchStatus(envelopeID, cfg.IDMapperResolutionRequired)

	if err := tx.Envelopes().Create(ctx, env, bs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &CreateEnvelopeResult{EnvelopeID: envelopeID}, nil
}

func (s *Service) CancelEnvelope(ctx context.Context, envelopeID string) error {
	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	env, err := tx.Envelopes().FindForUpdate(ctx, envelopeID)
	if err != nil {
		return errs.Wrap(errs.EnvelopeNotFound, "envelope not found: "+envelopeID, err)
	}
	if env.IsCancelled() {
		return errs.New(errs.EnvelopeAlreadyCanceled, "envelope already cancelled: "+envelopeID)
	}

	if err := tx.Envelopes().Cancel(ctx, envelopeID, time.Now()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) CreateDisbursements(ctx context.Context, batch CreateDisbursementsBatch) (*CreateDisbursementsResult, error) {
	envelopeID, same := disbursement.SameEnvelope(batch.Payloads)
	if !same {
		return nil, errs.New(errs.MultipleEnvelopesFound, "all payloads must target the same envelope_id")
	}
	if envelopeID == "" {
		return nil, errs.New(errs.InvalidDisbursementEnvelope, "envelope_id is required")
	}

	if violations := disbursement.ValidatePayloads(batch.Payloads); len(violations) > 0 {
		return nil, errs.WrapViolations(errs.InvalidDisbursementPayload, firstViolationMessage(violations), toErrsViolations(violations))
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	env, err := tx.Envelopes().FindForUpdate(ctx, envelopeID)
	if err != nil {
		return nil, errs.Wrap(errs.EnvelopeNotFound, "envelope not found: "+envelopeID, err)
	}
	if env.IsCancelled() {
		return nil, errs.New(errs.EnvelopeAlreadyCanceled, "envelope already cancelled: "+envelopeID)
	}

	bs, err := tx.Envelopes().GetBatchStatusForUpdate(ctx, envelopeID)
	if err != nil {
		return nil, err
	}

	total := disbursement.SumAmount(batch.Payloads)
	if bs.ReceivedCount+len(batch.Payloads) > env.DisbursementCount {
		return nil, errs.New(errs.NoOfDisbursementsExceedsDeclared, "batch exceeds envelope's declared disbursement_count")
	}
	if bs.ReceivedAmount+total > env.TotalAmount {
		return nil, errs.New(errs.TotalDisbursementAmtExceedsDeclared, "batch exceeds envelope's declared total_amount")
	}

	cfg, ok := s.configByMnemonic[env.ProgramMnemonic]
	if !ok {
		return nil, errs.New(errs.InvalidProgramMnemonic, "unknown program_mnemonic: "+env.ProgramMnemonic)
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, env.ProgramMnemonic)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, errs.New(errs.RateLimitExceeded, "createDisbursements rate limit exceeded for program_mnemonic: "+env.ProgramMnemonic)
		}
	}

	mapperBatchID := uuid.NewString()
	bankBatchID := uuid.NewString()

	disbursementIDs := make([]string, 0, len(batch.Payloads))
	disbursements := make([]disbursement.Disbursement, 0, len(batch.Payloads))
	controls := make([]disbursement.BatchControl, 0, len(batch.Payloads))

	for _, p := range batch.Payloads {
		id, err := tx.Disbursements().NextDisbursementID(ctx)
		if err != nil {
			return nil, err
		}
		disbursementIDs = append(disbursementIDs, id)
		disbursements = append(disbursements, disbursement.Disbursement{
			DisbursementID:     id,
			EnvelopeID:         envelopeID,
			BeneficiaryID:      p.BeneficiaryID,
			BeneficiaryName:    p.BeneficiaryName,
			Narrative:          p.Narrative,
			Amount:             p.Amount,
			CancellationStatus: envelope.NotCancelled,
			CreatedAt:          time.Now(),
		})
		controls = append(controls, disbursement.BatchControl{
			DisbursementID: id,
			MapperBatchID:  mapperBatchID,
			BankBatchID:    bankBatchID,
		})
	}

	if err := tx.Disbursements().CreateBatch(ctx, disbursements, controls); err != nil {
		return nil, err
	}

	if err := tx.BankBatches().Create(ctx, bankbatch.New(bankBatchID, envelopeID)); err != nil {
		return nil, err
	}
	if cfg.IDMapperResolutionRequired {
		if err := tx.MapperBatches().Create(ctx, mapperbatch.New(mapperBatchID)); err != nil {
			return nil, err
		}
	}

	if err := tx.Envelopes().AdjustCounters(ctx, envelopeID, len(batch.Payloads), total); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &CreateDisbursementsResult{
		DisbursementIDs: disbursementIDs,
		MapperBatchID:   mapperBatchID,
		BankBatchID:     bankBatchID,
	}, nil
}

func (s *Service) CancelDisbursements(ctx context.Context, batch CancelDisbursementsBatch) error {
	if len(batch.DisbursementIDs) == 0 {
		return errs.New(errs.InvalidDisbursementID, "disbursement_ids is required")
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Disbursements().FindForUpdate(ctx, batch.DisbursementIDs)
	if err != nil {
		return err
	}
	if len(rows) != len(batch.DisbursementIDs) {
		return errs.New(errs.InvalidDisbursementID, "one or more disbursement_ids not found")
	}

	envelopeID := rows[0].EnvelopeID
	var amount int64
	for _, r := range rows {
		if r.EnvelopeID != envelopeID {
			return errs.New(errs.MultipleEnvelopesFound, "all disbursements must share one envelope")
		}
		if r.IsCancelled() {
			return errs.New(errs.DisbursementAlreadyCanceled, "disbursement already cancelled: "+r.DisbursementID)
		}
		amount += r.Amount
	}

	env, err := tx.Envelopes().FindForUpdate(ctx, envelopeID)
	if err != nil {
		return errs.Wrap(errs.EnvelopeNotFound, "envelope not found: "+envelopeID, err)
	}
	if env.IsCancelled() {
		return errs.New(errs.EnvelopeAlreadyCanceled, "envelope already cancelled: "+envelopeID)
	}
	if !env.ScheduleDate.After(dateOnly(time.Now())) {
		return errs.New(errs.EnvelopeScheduleDateReached, "envelope schedule_date has been reached: "+envelopeID)
	}

	bs, err := tx.Envelopes().GetBatchStatusForUpdate(ctx, envelopeID)
	if err != nil {
		return err
	}
	if bs.ReceivedCount-len(rows) < 0 {
		return errs.New(errs.NoOfDisbursementsLessThanZero, "cancel batch would drive received_count negative")
	}
	if bs.ReceivedAmount-amount < 0 {
		return errs.New(errs.TotalDisbursementAmtLessThanZero, "cancel batch would drive received_amount negative")
	}

	if err := tx.Disbursements().CancelBatch(ctx, batch.DisbursementIDs, time.Now()); err != nil {
		return err
	}
	if err := tx.Envelopes().AdjustCounters(ctx, envelopeID, -len(rows), -amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) UploadStatement(ctx context.Context, accountNumber string, content []byte) (*UploadStatementResult, error) {
	if len(content) == 0 {
		return nil, errs.New(errs.StatementUploadError, "statement content is empty")
	}

	tx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	statementID, err := tx.Statements().NextStatementID(ctx)
	if err != nil {
		return nil, err
	}

	meta, lob := statement.New(statementID, content)
	meta.AccountNumber = accountNumber
	if err := tx.Statements().Create(ctx, meta, lob); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &UploadStatementResult{StatementID: statementID}, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func firstViolationMessage(violations []disbursement.PayloadError) string {
	if len(violations) == 0 {
		return ""
	}
	return string(violations[0].Code)
}

func toErrsViolations(violations []disbursement.PayloadError) []errs.Violation {
	out := make([]errs.Violation, len(violations))
	for i, v := range violations {
		out[i] = errs.Violation{Index: v.Index, Code: v.Code}
	}
	return out
}
