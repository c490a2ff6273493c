package httpx

import (
	"encoding/json"
	"net/http"

	"g2pbridge/internal/http/handlers"
	"g2pbridge/internal/ingress"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDependencies holds everything the ingress HTTP surface needs.
type RouterDependencies struct {
	Ingress *ingress.Service
}

// NewRouter wires the ingress API's HTTP-agnostic operations behind
// chi, keeping the teacher's global middleware stack (request ID,
// structured access log, panic recovery) — auth and request-signature
// verification stay out of scope per spec.
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/envelopes", handlers.CreateEnvelope(deps.Ingress))
		r.Post("/envelopes/{envelopeID}/cancel", handlers.CancelEnvelope(deps.Ingress))

		r.Post("/disbursements", handlers.CreateDisbursements(deps.Ingress))
		r.Post("/disbursements/cancel", handlers.CancelDisbursements(deps.Ingress))

		r.Post("/statements", handlers.UploadStatement(deps.Ingress))
	})

	return r
}
