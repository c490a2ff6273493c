package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"g2pbridge/internal/domain/programconfig"
	"g2pbridge/internal/ingress"

	"github.com/go-chi/chi/v5"
)

func testConfigs() []programconfig.Config {
	return []programconfig.Config{
		{
			ProgramMnemonic:            "CASH001",
			SponsorBankCode:            "EXAMPLEBANK",
			SponsorBankAccountNumber:   "ACCT001",
			SponsorBankAccountCurrency: "USD",
			IDMapperResolutionRequired: false,
		},
	}
}

func newTestService() *ingress.Service {
	return ingress.NewService(newFakeUoW(), testConfigs(), nil)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body: %v (body=%s)", err, rec.Body.String())
	}
	return out
}

// decodePayload unwraps response_payload, the shape every handler
// nests its data under per §6.
func decodePayload(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := decodeBody(t, rec)
	payload, _ := out["response_payload"].(map[string]any)
	return payload
}

func envelopePayload() map[string]any {
	return map[string]any{
		"program_mnemonic":    "CASH001",
		"cycle_code_mnemonic": "2026-Q1",
		"frequency":           "Monthly",
		"beneficiary_count":   2,
		"disbursement_count":  2,
		"total_amount":        10000,
		"schedule_date":       time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}
}

func TestCreateEnvelopeHandler(t *testing.T) {
	svc := newTestService()
	body, _ := json.Marshal(envelopePayload())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/envelopes", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	CreateEnvelope(svc)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["response_status"] != string(statusSuccess) {
		t.Errorf("response_status = %v, want SUCCESS", out["response_status"])
	}
	payload := decodePayload(t, rec)
	if payload["envelope_id"] == "" || payload["envelope_id"] == nil {
		t.Errorf("expected non-empty envelope_id, got %+v", payload)
	}
}

func TestCreateEnvelopeHandlerInvalidJSON(t *testing.T) {
	svc := newTestService()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/envelopes", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()

	CreateEnvelope(svc)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateEnvelopeHandlerUnknownProgram(t *testing.T) {
	svc := newTestService()
	payload := envelopePayload()
	payload["program_mnemonic"] = "UNKNOWN"
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/envelopes", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	CreateEnvelope(svc)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["response_status"] != string(statusFailure) {
		t.Errorf("response_status = %v, want FAILURE", out["response_status"])
	}
	if out["response_error_code"] != "INVALID_PROGRAM_MNEMONIC" {
		t.Errorf("response_error_code = %v, want INVALID_PROGRAM_MNEMONIC", out["response_error_code"])
	}
}

func mustCreateEnvelope(t *testing.T, svc *ingress.Service) string {
	t.Helper()
	body, _ := json.Marshal(envelopePayload())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/envelopes", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	CreateEnvelope(svc)(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup: create envelope failed, status=%d body=%s", rec.Code, rec.Body.String())
	}
	payload := decodePayload(t, rec)
	return payload["envelope_id"].(string)
}

func TestCancelEnvelopeHandler(t *testing.T) {
	svc := newTestService()
	envelopeID := mustCreateEnvelope(t, svc)

	router := chi.NewRouter()
	router.Post("/api/v1/envelopes/{envelopeID}/cancel", CancelEnvelope(svc))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/envelopes/"+envelopeID+"/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	payload := decodePayload(t, rec)
	if payload["cancelled"] != true {
		t.Errorf("cancelled = %v, want true", payload["cancelled"])
	}
}

func TestCancelEnvelopeHandlerNotFound(t *testing.T) {
	svc := newTestService()

	router := chi.NewRouter()
	router.Post("/api/v1/envelopes/{envelopeID}/cancel", CancelEnvelope(svc))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/envelopes/MISSING/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateDisbursementsHandler(t *testing.T) {
	svc := newTestService()
	envelopeID := mustCreateEnvelope(t, svc)

	payload := map[string]any{
		"payloads": []map[string]any{
			{"envelope_id": envelopeID, "beneficiary_id": "BEN1", "beneficiary_name": "Alice", "narrative": "benefit", "amount": 5000},
			{"envelope_id": envelopeID, "beneficiary_id": "BEN2", "beneficiary_name": "Bob", "narrative": "benefit", "amount": 5000},
		},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/disbursements", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	CreateDisbursements(svc)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	resPayload := decodePayload(t, rec)
	ids, ok := resPayload["disbursement_ids"].([]any)
	if !ok || len(ids) != 2 {
		t.Errorf("disbursement_ids = %+v, want 2 entries", resPayload["disbursement_ids"])
	}
	if resPayload["bank_batch_id"] == "" {
		t.Errorf("expected non-empty bank_batch_id")
	}
}

func TestCreateDisbursementsHandlerMultipleViolations(t *testing.T) {
	svc := newTestService()
	envelopeID := mustCreateEnvelope(t, svc)

	payload := map[string]any{
		"payloads": []map[string]any{
			{"envelope_id": envelopeID, "beneficiary_id": "", "beneficiary_name": "Alice", "narrative": "benefit", "amount": 5000},
			{"envelope_id": envelopeID, "beneficiary_id": "BEN2", "beneficiary_name": "Bob", "narrative": "benefit", "amount": 0},
		},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/disbursements", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	CreateDisbursements(svc)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["response_error_code"] != "INVALID_DISBURSEMENT_PAYLOAD" {
		t.Errorf("response_error_code = %v, want INVALID_DISBURSEMENT_PAYLOAD", out["response_error_code"])
	}
	resPayload := decodePayload(t, rec)
	violations, ok := resPayload["violations"].([]any)
	if !ok || len(violations) != 2 {
		t.Fatalf("violations = %+v, want 2 entries", resPayload["violations"])
	}
}

func TestCreateDisbursementsHandlerExceedsDeclared(t *testing.T) {
	svc := newTestService()
	envelopeID := mustCreateEnvelope(t, svc)

	payload := map[string]any{
		"payloads": []map[string]any{
			{"envelope_id": envelopeID, "beneficiary_id": "BEN1", "beneficiary_name": "Alice", "narrative": "benefit", "amount": 5000},
			{"envelope_id": envelopeID, "beneficiary_id": "BEN2", "beneficiary_name": "Bob", "narrative": "benefit", "amount": 5000},
			{"envelope_id": envelopeID, "beneficiary_id": "BEN3", "beneficiary_name": "Carol", "narrative": "benefit", "amount": 5000},
		},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/disbursements", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	CreateDisbursements(svc)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
	}
	out := decodeBody(t, rec)
	if out["response_status"] != string(statusFailure) {
		t.Errorf("response_status = %v, want FAILURE", out["response_status"])
	}
}

func TestCancelDisbursementsHandler(t *testing.T) {
	svc := newTestService()
	envelopeID := mustCreateEnvelope(t, svc)

	createBody, _ := json.Marshal(map[string]any{
		"payloads": []map[string]any{
			{"envelope_id": envelopeID, "beneficiary_id": "BEN1", "beneficiary_name": "Alice", "narrative": "benefit", "amount": 5000},
		},
	})
	createReq := httptest.NewRequest(http.MethodPost, "/api/v1/disbursements", bytes.NewReader(createBody))
	createRec := httptest.NewRecorder()
	CreateDisbursements(svc)(createRec, createReq)
	created := decodePayload(t, createRec)
	ids := created["disbursement_ids"].([]any)
	disbursementID := ids[0].(string)

	cancelBody, _ := json.Marshal(map[string]any{"disbursement_ids": []string{disbursementID}})
	cancelReq := httptest.NewRequest(http.MethodPost, "/api/v1/disbursements/cancel", bytes.NewReader(cancelBody))
	cancelRec := httptest.NewRecorder()

	CancelDisbursements(svc)(cancelRec, cancelReq)

	if cancelRec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", cancelRec.Code, cancelRec.Body.String())
	}
	payload := decodePayload(t, cancelRec)
	if payload["cancelled"] != true {
		t.Errorf("cancelled = %v, want true", payload["cancelled"])
	}
}

func TestUploadStatementHandler(t *testing.T) {
	svc := newTestService()
	content := []byte(":20:REF1\n:25:ACCT001\n:28C:1\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/statements?account_number=ACCT001", bytes.NewReader(content))
	rec := httptest.NewRecorder()

	UploadStatement(svc)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	payload := decodePayload(t, rec)
	if payload["statement_id"] == "" || payload["statement_id"] == nil {
		t.Errorf("expected non-empty statement_id, got %+v", payload)
	}
}
