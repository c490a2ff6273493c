package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"g2pbridge/internal/domain/envelope"
	"g2pbridge/internal/ingress"

	"github.com/go-chi/chi/v5"
)

type createEnvelopeRequest struct {
	ProgramMnemonic   string    `json:"program_mnemonic"`
	CycleCodeMnemonic string    `json:"cycle_code_mnemonic"`
	Frequency         string    `json:"frequency"`
	BeneficiaryCount  int       `json:"beneficiary_count"`
	DisbursementCount int       `json:"disbursement_count"`
	TotalAmount       int64     `json:"total_amount"`
	ScheduleDate      time.Time `json:"schedule_date"`
}

func CreateEnvelope(svc *ingress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createEnvelopeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST_BODY", "invalid JSON request")
			return
		}

		result, err := svc.CreateEnvelope(r.Context(), envelope.CreatePayload{
			ProgramMnemonic:   req.ProgramMnemonic,
			CycleCodeMnemonic: req.CycleCodeMnemonic,
			Frequency:         envelope.Frequency(req.Frequency),
			BeneficiaryCount:  req.BeneficiaryCount,
			DisbursementCount: req.DisbursementCount,
			TotalAmount:       req.TotalAmount,
			ScheduleDate:      req.ScheduleDate,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeSuccess(w, http.StatusCreated, map[string]any{"envelope_id": result.EnvelopeID})
	}
}

func CancelEnvelope(svc *ingress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		envelopeID := chi.URLParam(r, "envelopeID")
		if err := svc.CancelEnvelope(r.Context(), envelopeID); err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]any{"envelope_id": envelopeID, "cancelled": true})
	}
}
