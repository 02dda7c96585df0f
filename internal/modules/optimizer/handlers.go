package optimizer

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dkarag/finboard/internal/domain"
)

// Handler handles optimization HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new optimizer handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "optimizer").Logger(),
	}
}

// Routes mounts the optimizer and recommendation endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/optimizer/run", h.HandleRun)
	r.Get("/recommendations", h.HandleGetAll)
	r.Get("/recommendations/pending", h.HandleGetPending)
	r.Get("/recommendations/accepted", h.HandleGetAccepted)
	r.Post("/recommendations/{id}/status", h.HandleUpdateStatus)
}

// HandleRun runs the advisory pipeline over a submitted snapshot.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var in RunInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Run(in)
	if err != nil {
		h.log.Error().Err(err).Msg("Optimization run failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetAll returns every recommendation in the ledger.
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.Ledger().All()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

// HandleGetPending returns recommendations awaiting a decision.
func (h *Handler) HandleGetPending(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.Ledger().Pending()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

// HandleGetAccepted returns recommendations the user accepted.
func (h *Handler) HandleGetAccepted(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.Ledger().Accepted()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}

// HandleUpdateStatus accepts or dismisses a recommendation.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status domain.RecommendationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !domain.ValidStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "Unknown status")
		return
	}

	found, err := h.service.Ledger().UpdateStatus(id, req.Status)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "Recommendation not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": req.Status,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
