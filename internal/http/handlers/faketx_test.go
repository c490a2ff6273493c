package handlers

import (
	"context"
	"fmt"
	"time"

	"g2pbridge/internal/domain/bankbatch"
	"g2pbridge/internal/domain/disbursement"
	"g2pbridge/internal/domain/envelope"
	"g2pbridge/internal/domain/mapperbatch"
	"g2pbridge/internal/domain/recon"
	"g2pbridge/internal/domain/statement"
	"g2pbridge/internal/errs"
	"g2pbridge/internal/store/repositories"
)

// fakeStore backs the handler-layer tests' UnitOfWork the same way
// ingress's own service tests fake the repository interfaces directly
// rather than standing up a database.
type fakeStore struct {
	envelopes   map[string]*envelope.Envelope
	batchStatus map[string]*envelope.BatchStatus
	statements  map[string]*statement.AccountStatement
	disbursements map[string]*disbursement.Disbursement
	nextSeq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		envelopes:   make(map[string]*envelope.Envelope),
		batchStatus: make(map[string]*envelope.BatchStatus),
		statements:  make(map[string]*statement.AccountStatement),
		disbursements: make(map[string]*disbursement.Disbursement),
	}
}

type fakeUoW struct{ store *fakeStore }

func newFakeUoW() *fakeUoW { return &fakeUoW{store: newFakeStore()} }

func (u *fakeUoW) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &fakeTx{store: u.store}, nil
}

type fakeTx struct{ store *fakeStore }

func (t *fakeTx) Commit(ctx context.Context) error   { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { return nil }

func (t *fakeTx) Envelopes() repositories.EnvelopeRepository     { return &fakeEnvelopeRepo{t.store} }
func (t *fakeTx) Disbursements() repositories.DisbursementRepository { return &fakeDisbursementRepo{t.store} }
func (t *fakeTx) BankBatches() repositories.BankBatchRepository   { return &fakeBankBatchRepo{} }
func (t *fakeTx) MapperBatches() repositories.MapperBatchRepository { return &fakeMapperBatchRepo{} }
func (t *fakeTx) Statements() repositories.StatementRepository   { return &fakeStatementRepo{t.store} }
func (t *fakeTx) Recon() repositories.ReconRepository            { return &fakeReconRepo{} }

type fakeEnvelopeRepo struct{ s *fakeStore }

func (r *fakeEnvelopeRepo) NextEnvelopeID(ctx context.Context) (string, error) {
	r.s.nextSeq++
	return fmt.Sprintf("ENV%06d", r.s.nextSeq), nil
}
func (r *fakeEnvelopeRepo) Create(ctx context.Context, e *envelope.Envelope, bs *envelope.BatchStatus) error {
	r.s.envelopes[e.EnvelopeID] = e
	r.s.batchStatus[e.EnvelopeID] = bs
	return nil
}
func (r *fakeEnvelopeRepo) FindByID(ctx context.Context, envelopeID string) (*envelope.Envelope, error) {
	e, ok := r.s.envelopes[envelopeID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return e, nil
}
func (r *fakeEnvelopeRepo) FindForUpdate(ctx context.Context, envelopeID string) (*envelope.Envelope, error) {
	return r.FindByID(ctx, envelopeID)
}
func (r *fakeEnvelopeRepo) Cancel(ctx context.Context, envelopeID string, ts time.Time) error {
	e, ok := r.s.envelopes[envelopeID]
	if !ok {
		return fmt.Errorf("not found")
	}
	e.CancellationStatus = envelope.Cancelled
	e.CancellationTS = &ts
	return nil
}
func (r *fakeEnvelopeRepo) GetBatchStatus(ctx context.Context, envelopeID string) (*envelope.BatchStatus, error) {
	bs, ok := r.s.batchStatus[envelopeID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return bs, nil
}
func (r *fakeEnvelopeRepo) GetBatchStatusForUpdate(ctx context.Context, envelopeID string) (*envelope.BatchStatus, error) {
	return r.GetBatchStatus(ctx, envelopeID)
}
func (r *fakeEnvelopeRepo) AdjustCounters(ctx context.Context, envelopeID string, deltaCount int, deltaAmount int64) error {
	bs, ok := r.s.batchStatus[envelopeID]
	if !ok {
		return fmt.Errorf("not found")
	}
	bs.ReceivedCount += deltaCount
	bs.ReceivedAmount += deltaAmount
	return nil
}
func (r *fakeEnvelopeRepo) UpdateFundsAvailable(ctx context.Context, envelopeID string, state envelope.FundsAvailableState, errCode string, attempts int, ts time.Time) error {
	return nil
}
func (r *fakeEnvelopeRepo) UpdateFundsBlocked(ctx context.Context, envelopeID string, state envelope.FundsBlockedState, blockRef, errCode string, attempts int, ts time.Time) error {
	return nil
}
func (r *fakeEnvelopeRepo) IncrementShippedCount(ctx context.Context, envelopeID string, delta int) error {
	return nil
}
func (r *fakeEnvelopeRepo) FindEligibleForFundsCheck(ctx context.Context, maxAttempts, limit int) ([]string, error) {
	return nil, nil
}
func (r *fakeEnvelopeRepo) FindEligibleForFundsBlock(ctx context.Context, maxAttempts, limit int) ([]string, error) {
	return nil, nil
}
func (r *fakeEnvelopeRepo) FindEligibleForDispatch(ctx context.Context, limit int) ([]string, error) {
	return nil, nil
}

type fakeDisbursementRepo struct{ s *fakeStore }

func (r *fakeDisbursementRepo) NextDisbursementID(ctx context.Context) (string, error) {
	r.s.nextSeq++
	return fmt.Sprintf("DSB%06d", r.s.nextSeq), nil
}
func (r *fakeDisbursementRepo) CreateBatch(ctx context.Context, ds []disbursement.Disbursement, bc []disbursement.BatchControl) error {
	for i := range ds {
		d := ds[i]
		r.s.disbursements[d.DisbursementID] = &d
	}
	return nil
}
func (r *fakeDisbursementRepo) FindByIDs(ctx context.Context, ids []string) ([]disbursement.Disbursement, error) {
	out := make([]disbursement.Disbursement, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.s.disbursements[id]; ok {
			out = append(out, *d)
		}
	}
	return out, nil
}
func (r *fakeDisbursementRepo) FindForUpdate(ctx context.Context, ids []string) ([]disbursement.Disbursement, error) {
	return r.FindByIDs(ctx, ids)
}
func (r *fakeDisbursementRepo) CancelBatch(ctx context.Context, ids []string, ts time.Time) error {
	for _, id := range ids {
		if d, ok := r.s.disbursements[id]; ok {
			d.CancellationStatus = envelope.Cancelled
			d.CancellationTS = &ts
		}
	}
	return nil
}
func (r *fakeDisbursementRepo) FindBatchControlByDisbursementID(ctx context.Context, disbursementID string) (*disbursement.BatchControl, error) {
	return nil, nil
}
func (r *fakeDisbursementRepo) FindBatchControlsByMapperBatch(ctx context.Context, mapperBatchID string) ([]disbursement.BatchControl, error) {
	return nil, nil
}
func (r *fakeDisbursementRepo) FindBatchControlsByBankBatch(ctx context.Context, bankBatchID string) ([]disbursement.BatchControl, error) {
	return nil, nil
}

type fakeBankBatchRepo struct{}

func (r *fakeBankBatchRepo) Create(ctx context.Context, b *bankbatch.BatchStatus) error { return nil }
func (r *fakeBankBatchRepo) FindEligible(ctx context.Context, envelopeID string, maxAttempts, limit int) ([]bankbatch.BatchStatus, error) {
	return nil, nil
}
func (r *fakeBankBatchRepo) GetForUpdate(ctx context.Context, batchID string) (*bankbatch.BatchStatus, error) {
	return nil, nil
}
func (r *fakeBankBatchRepo) MarkProcessed(ctx context.Context, batchID string, attempts int, ts time.Time) error {
	return nil
}
func (r *fakeBankBatchRepo) MarkPending(ctx context.Context, batchID, errCode string, attempts int, ts time.Time) error {
	return nil
}

type fakeMapperBatchRepo struct{}

func (r *fakeMapperBatchRepo) Create(ctx context.Context, b *mapperbatch.BatchStatus) error { return nil }
func (r *fakeMapperBatchRepo) FindEligible(ctx context.Context, maxAttempts, limit int) ([]mapperbatch.BatchStatus, error) {
	return nil, nil
}
func (r *fakeMapperBatchRepo) GetForUpdate(ctx context.Context, batchID string) (*mapperbatch.BatchStatus, error) {
	return nil, nil
}
func (r *fakeMapperBatchRepo) MarkProcessed(ctx context.Context, batchID string, attempts int, ts time.Time) error {
	return nil
}
func (r *fakeMapperBatchRepo) MarkPending(ctx context.Context, batchID, errCode string, attempts int, ts time.Time) error {
	return nil
}
func (r *fakeMapperBatchRepo) InsertDetails(ctx context.Context, details []mapperbatch.Details) error {
	return nil
}
func (r *fakeMapperBatchRepo) FindDetailsByDisbursementIDs(ctx context.Context, ids []string) ([]mapperbatch.Details, error) {
	return nil, nil
}

type fakeStatementRepo struct{ s *fakeStore }

func (r *fakeStatementRepo) NextStatementID(ctx context.Context) (string, error) {
	r.s.nextSeq++
	return fmt.Sprintf("STM%06d", r.s.nextSeq), nil
}
func (r *fakeStatementRepo) Create(ctx context.Context, st *statement.AccountStatement, lob *statement.AccountStatementLob) error {
	r.s.statements[st.StatementID] = st
	return nil
}
func (r *fakeStatementRepo) FindEligible(ctx context.Context, maxAttempts, limit int) ([]statement.AccountStatement, error) {
	return nil, nil
}
func (r *fakeStatementRepo) GetForUpdate(ctx context.Context, statementID string) (*statement.AccountStatement, *statement.AccountStatementLob, error) {
	return r.s.statements[statementID], nil, nil
}
func (r *fakeStatementRepo) MarkProcessed(ctx context.Context, statementID string, attempts int, ts time.Time) error {
	return nil
}
func (r *fakeStatementRepo) MarkError(ctx context.Context, statementID string, code errs.Code, attempts int, ts time.Time) error {
	return nil
}
func (r *fakeStatementRepo) MarkPendingWithError(ctx context.Context, statementID, detail string, attempts int, ts time.Time) error {
	return nil
}

type fakeReconRepo struct{}

func (r *fakeReconRepo) FindByDisbursementID(ctx context.Context, disbursementID string) (*recon.DisbursementRecon, error) {
	return nil, nil
}
func (r *fakeReconRepo) InsertRecon(ctx context.Context, rec *recon.DisbursementRecon) error {
	return nil
}
func (r *fakeReconRepo) UpdateReversal(ctx context.Context, rec *recon.DisbursementRecon) error {
	return nil
}
func (r *fakeReconRepo) InsertErrorRecon(ctx context.Context, rec *recon.ErrorRecon) error {
	return nil
}
