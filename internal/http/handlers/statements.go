package handlers

import (
	"io"
	"net/http"

	"g2pbridge/internal/ingress"
)

// UploadStatement accepts a raw MT940 file body; the uploading
// account number is carried as a query parameter since the bank's
// push mechanism is out of scope (§1) and only the persisted-bytes
// contract matters here.
func UploadStatement(svc *ingress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := io.ReadAll(r.Body)
		if err != nil {
			writeBadRequest(w, "INVALID_REQUEST_BODY", "failed to read request body")
			return
		}

		accountNumber := r.URL.Query().Get("account_number")
		result, err := svc.UploadStatement(r.Context(), accountNumber, content)
		if err != nil {
			writeError(w, err)
			return
		}

		writeSuccess(w, http.StatusCreated, map[string]any{"statement_id": result.StatementID})
	}
}
