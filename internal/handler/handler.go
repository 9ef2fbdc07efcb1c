// Package handler provides the storefront's JSON API and MCP endpoint.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront-catalog/internal/adapter"
	"storefront-catalog/internal/model"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	catalog   adapter.Catalog
	concierge adapter.Concierge
	chatLimit func(http.Handler) http.Handler
	logger    *slog.Logger
}

// New creates a Handler. concierge may be nil when no OpenAI key is
// configured; the chat route then answers 503.
func New(catalog adapter.Catalog, concierge adapter.Concierge, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:   catalog,
		concierge: concierge,
		logger:    logger,
	}
}

// WithChatLimit wraps the chat route in mw (typically a per-IP rate limiter).
func (h *Handler) WithChatLimit(mw func(http.Handler) http.Handler) *Handler {
	h.chatLimit = mw
	return h
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Catalog proxy
	mux.HandleFunc("GET /api/products", h.handleProducts)
	mux.HandleFunc("GET /api/categories", h.handleCategories)

	// Assembled collections
	mux.HandleFunc("GET /api/collections", h.handleCollections)
	mux.HandleFunc("GET /api/collections/{name}", h.handleCollection)

	// Concierge
	var chat http.Handler = http.HandlerFunc(h.handleChat)
	if h.chatLimit != nil {
		chat = h.chatLimit(chat)
	}
	mux.Handle("POST /api/chat", chat)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /readyz", h.handleReady)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends {success:false, message, code}, extracting status and
// code from an APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError

	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
	}
	if apiErr.StatusCode >= 500 {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("code", apiErr.Code),
			slog.String("error", err.Error()),
		)
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Success: false,
		Message: apiErr.Message,
		Code:    apiErr.Code,
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
