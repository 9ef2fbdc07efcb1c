package handler

import (
	"log/slog"
	"net/http"

	"storefront-catalog/internal/chat"
	"storefront-catalog/internal/model"
)

type chatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleChat answers a shopper message.
// POST /api/chat {"message": "...", "history": [...]}
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.concierge == nil {
		h.writeError(w, r, &model.APIError{
			Code:       "CHAT_DISABLED",
			Message:    model.ChatQuotaMessage,
			StatusCode: http.StatusServiceUnavailable,
		})
		return
	}

	var req chat.Request
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	reply, err := h.concierge.Reply(r.Context(), req)
	if err != nil {
		h.logger.WarnContext(r.Context(), "chat reply failed", slog.String("error", err.Error()))
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, chatResponse{Success: true, Message: reply})
}
