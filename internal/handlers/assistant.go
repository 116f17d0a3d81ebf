package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/craftday/craftday-api/internal/authz"
	"github.com/rs/zerolog"
)

// AssistantHandler is the quota-gated boundary in front of the AI
// assistant. The upstream model call is not wired here; the handler
// validates and acknowledges so clients and the quota middleware have a
// stable contract to integrate against.
type AssistantHandler struct {
	logger zerolog.Logger
}

func NewAssistantHandler(logger zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{logger: logger}
}

func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := authz.TenantIDFromRequest(r)
	if !ok {
		http.Error(w, "missing tenant identity", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	h.logger.Info().Str("tenant_id", tenantID).Int("message_len", len(payload.Message)).Msg("assistant chat accepted")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotImplemented)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "assistant_unavailable",
		"message": "The assistant backend is not configured for this deployment.",
	})
}
