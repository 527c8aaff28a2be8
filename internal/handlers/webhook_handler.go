package handlers

import (
	"io"
	"net/http"

	"palabras/internal/service"
)

// WebhookHandler receives signed payment provider callbacks
type WebhookHandler struct {
	billing *service.BillingService
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(billing *service.BillingService) *WebhookHandler {
	return &WebhookHandler{billing: billing}
}

// Payment verifies the body signature and applies the event
func (h *WebhookHandler) Payment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Could not read body", "", nil)
		return
	}

	applied, err := h.billing.HandleWebhook(r.Context(), r.Header.Get(webhookSignatureKey), body)
	if err != nil {
		respondServiceError(w, "Error handling payment webhook", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"received": true, "applied": applied})
}
