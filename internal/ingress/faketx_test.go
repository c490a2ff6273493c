package ingress

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

// fakeStore is the shared in-memory backing for every fake repository
// view handed out by a fakeTx, standing in for Postgres in ingress
// unit tests the way the teacher's own tests fake small repository
// interfaces directly instead of standing up a database.
type fakeStore struct {
	envelopes      map[string]*envelope.Envelope
	batchStatus    map[string]*envelope.BatchStatus
	disbursements  map[string]*disbursement.Disbursement
	batchControls  map[string]*disbursement.BatchControl
	bankBatches    map[string]*bankbatch.BatchStatus
	mapperBatches  map[string]*mapperbatch.BatchStatus
	statements     map[string]*statement.AccountStatement
	nextEnvelopeID int
	nextDisbID     int
	nextStmtID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		envelopes:     make(map[string]*envelope.Envelope),
		batchStatus:   make(map[string]*envelope.BatchStatus),
		disbursements: make(map[string]*disbursement.Disbursement),
		batchControls: make(map[string]*disbursement.BatchControl),
		bankBatches:   make(map[string]*bankbatch.BatchStatus),
		mapperBatches: make(map[string]*mapperbatch.BatchStatus),
		statements:    make(map[string]*statement.AccountStatement),
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
func (t *fakeTx) BankBatches() repositories.BankBatchRepository   { return &fakeBankBatchRepo{t.store} }
func (t *fakeTx) MapperBatches() repositories.MapperBatchRepository { return &fakeMapperBatchRepo{t.store} }
func (t *fakeTx) Statements() repositories.StatementRepository   { return &fakeStatementRepo{t.store} }
func (t *fakeTx) Recon() repositories.ReconRepository            { return &fakeReconRepo{t.store} }

// --- EnvelopeRepository ---

type fakeEnvelopeRepo struct{ s *fakeStore }

func (r *fakeEnvelopeRepo) NextEnvelopeID(ctx context.Context) (string, error) {
	r.s.nextEnvelopeID++
	return fmt.Sprintf("ENV%012d", r.s.nextEnvelopeID), nil
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

// --- DisbursementRepository ---

type fakeDisbursementRepo struct{ s *fakeStore }

func (r *fakeDisbursementRepo) NextDisbursementID(ctx context.Context) (string, error) {
	r.s.nextDisbID++
	return fmt.Sprintf("DSB%012d", r.s.nextDisbID), nil
}

func (r *fakeDisbursementRepo) CreateBatch(ctx context.Context, ds []disbursement.Disbursement, bc []disbursement.BatchControl) error {
	for i := range ds {
		d := ds[i]
		r.s.disbursements[d.DisbursementID] = &d
	}
	for i := range bc {
		c := bc[i]
		r.s.batchControls[c.DisbursementID] = &c
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
	c, ok := r.s.batchControls[disbursementID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return c, nil
}

func (r *fakeDisbursementRepo) FindBatchControlsByMapperBatch(ctx context.Context, mapperBatchID string) ([]disbursement.BatchControl, error) {
	return nil, nil
}

func (r *fakeDisbursementRepo) FindBatchControlsByBankBatch(ctx context.Context, bankBatchID string) ([]disbursement.BatchControl, error) {
	return nil, nil
}

// --- BankBatchRepository ---

type fakeBankBatchRepo struct{ s *fakeStore }

func (r *fakeBankBatchRepo) Create(ctx context.Context, b *bankbatch.BatchStatus) error {
	r.s.bankBatches[b.BatchID] = b
	return nil
}
func (r *fakeBankBatchRepo) FindEligible(ctx context.Context, envelopeID string, maxAttempts, limit int) ([]bankbatch.BatchStatus, error) {
	return nil, nil
}
func (r *fakeBankBatchRepo) GetForUpdate(ctx context.Context, batchID string) (*bankbatch.BatchStatus, error) {
	return r.s.bankBatches[batchID], nil
}
func (r *fakeBankBatchRepo) MarkProcessed(ctx context.Context, batchID string, attempts int, ts time.Time) error {
	return nil
}
func (r *fakeBankBatchRepo) MarkPending(ctx context.Context, batchID, errCode string, attempts int, ts time.Time) error {
	return nil
}

// --- MapperBatchRepository ---

type fakeMapperBatchRepo struct{ s *fakeStore }

func (r *fakeMapperBatchRepo) Create(ctx context.Context, b *mapperbatch.BatchStatus) error {
	r.s.mapperBatches[b.BatchID] = b
	return nil
}
func (r *fakeMapperBatchRepo) FindEligible(ctx context.Context, maxAttempts, limit int) ([]mapperbatch.BatchStatus, error) {
	return nil, nil
}
func (r *fakeMapperBatchRepo) GetForUpdate(ctx context.Context, batchID string) (*mapperbatch.BatchStatus, error) {
	return r.s.mapperBatches[batchID], nil
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

// --- StatementRepository ---

type fakeStatementRepo struct{ s *fakeStore }

func (r *fakeStatementRepo) NextStatementID(ctx context.Context) (string, error) {
	r.s.nextStmtID++
	return fmt.Sprintf("STM%012d", r.s.nextStmtID), nil
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

// --- ReconRepository ---

type fakeReconRepo struct{ s *fakeStore }

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
