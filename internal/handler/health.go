package handler

import (
	"net/http"
)

type healthResponse struct {
	Status      string   `json:"status"`
	Collections []string `json:"collections,omitempty"`
	Chat        bool     `json:"chat"`
}

// handleHealth is the liveness probe. It never touches the catalog.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Chat:   h.concierge != nil,
	})
}

// handleReady reports the configured collections.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ready",
		Collections: h.catalog.Names(),
		Chat:        h.concierge != nil,
	})
}
