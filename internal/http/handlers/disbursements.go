package handlers

import (
	"encoding/json"
	"net/http"

	"g2pbridge/internal/domain/disbursement"
	"g2pbridge/internal/ingress"
)

type disbursementPayloadRequest struct {
	EnvelopeID      string `json:"envelope_id"`
	BeneficiaryID   string `json:"beneficiary_id"`
	BeneficiaryName string `json:"beneficiary_name"`
	Narrative       string `json:"narrative"`
	Amount          int64  `json:"amount"`
}

type createDisbursementsRequest struct {
	Payloads []disbursementPayloadRequest `json:"payloads"`
}

func CreateDisbursements(svc *ingress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDisbursementsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST_BODY", "invalid JSON request")
			return
		}

		payloads := make([]disbursement.CreatePayload, 0, len(req.Payloads))
		for _, p := range req.Payloads {
			payloads = append(payloads, disbursement.CreatePayload{
				EnvelopeID:      p.EnvelopeID,
				BeneficiaryID:   p.BeneficiaryID,
				BeneficiaryName: p.BeneficiaryName,
				Narrative:       p.Narrative,
				Amount:          p.Amount,
			})
		}

		result, err := svc.CreateDisbursements(r.Context(), ingress.CreateDisbursementsBatch{Payloads: payloads})
		if err != nil {
			writeError(w, err)
			return
		}

		writeSuccess(w, http.StatusCreated, map[string]any{
			"disbursement_ids": result.DisbursementIDs,
			"mapper_batch_id":  result.MapperBatchID,
			"bank_batch_id":    result.BankBatchID,
		})
	}
}

type cancelDisbursementsRequest struct {
	DisbursementIDs []string `json:"disbursement_ids"`
}

func CancelDisbursements(svc *ingress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelDisbursementsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "INVALID_REQUEST_BODY", "invalid JSON request")
			return
		}

		if err := svc.CancelDisbursements(r.Context(), ingress.CancelDisbursementsBatch{DisbursementIDs: req.DisbursementIDs}); err != nil {
			writeError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, map[string]any{"cancelled": true})
	}
}
