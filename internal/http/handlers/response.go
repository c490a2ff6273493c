// Package handlers holds the thin JSON-envelope adapters over
// internal/ingress.Service; request parsing, response shaping and
// error-code-to-status mapping only, no business logic.
package handlers

import (
	"encoding/json"
	"net/http"

	"g2pbridge/internal/errs"

	"github.com/rs/zerolog/log"
)

// responseStatus is the SUCCESS/FAILURE discriminant every ingress
// response carries per §6.
type responseStatus string

const (
	statusSuccess responseStatus = "SUCCESS"
	statusFailure responseStatus = "FAILURE"
)

// apiResponse is the `{response_status, response_payload, response_error_code}`
// shape every HTTP ingress handler replies with.
type apiResponse struct {
	ResponseStatus    responseStatus `json:"response_status"`
	ResponsePayload   any            `json:"response_payload,omitempty"`
	ResponseErrorCode string         `json:"response_error_code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeSuccess wraps payload in the SUCCESS envelope.
func writeSuccess(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, apiResponse{ResponseStatus: statusSuccess, ResponsePayload: payload})
}

// writeBadRequest wraps a request-parsing failure (not a BridgeError)
// in the FAILURE envelope.
func writeBadRequest(w http.ResponseWriter, errorCode, message string) {
	writeJSON(w, http.StatusBadRequest, apiResponse{
		ResponseStatus:    statusFailure,
		ResponsePayload:   map[string]any{"message": message},
		ResponseErrorCode: errorCode,
	})
}

// violationPayload mirrors one errs.Violation for the wire, keyed the
// way the createDisbursements payload index maps back to a request line.
type violationPayload struct {
	Index int    `json:"index"`
	Code  string `json:"code"`
}

// writeError maps a BridgeError's stable code to an HTTP status and
// wraps it in the FAILURE envelope, or falls back to 500 for anything
// that isn't one. Batch-validation errors that rejected one or more
// payloads carry their full per-index violation list in response_payload
// so callers don't lose anything past the first bad line.
func writeError(w http.ResponseWriter, err error) {
	code, ok := errs.CodeOf(err)
	if !ok {
		log.Error().Err(err).Msg("unhandled ingress error")
		writeJSON(w, http.StatusInternalServerError, apiResponse{
			ResponseStatus:    statusFailure,
			ResponseErrorCode: "INTERNAL_ERROR",
		})
		return
	}

	status := http.StatusBadRequest
	switch code {
	case errs.EnvelopeNotFound:
		status = http.StatusNotFound
	case errs.EnvelopeAlreadyCanceled, errs.DisbursementAlreadyCanceled:
		status = http.StatusConflict
	case errs.RateLimitExceeded:
		status = http.StatusTooManyRequests
	}

	var payload any
	if violations, ok := errs.ViolationsOf(err); ok {
		vs := make([]violationPayload, len(violations))
		for i, v := range violations {
			vs[i] = violationPayload{Index: v.Index, Code: string(v.Code)}
		}
		payload = map[string]any{"violations": vs}
	}

	writeJSON(w, status, apiResponse{
		ResponseStatus:    statusFailure,
		ResponsePayload:   payload,
		ResponseErrorCode: string(code),
	})
}
