package handlers

import (
	"net/http"

	"palabras/internal/service"
)

// AIHandler proxies translate and summarize requests to the language model
type AIHandler struct {
	ai *service.AIService
}

// NewAIHandler creates an AI handler
func NewAIHandler(ai *service.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

type aiRequest struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

type aiResponse struct {
	Text string `json:"text"`
}

// Translate renders text in the target language, English by default
func (h *AIHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := h.ai.Translate(r.Context(), GetUserFromContext(r.Context()), req.Text, req.Target)
	if err != nil {
		respondServiceError(w, "Error translating text", err)
		return
	}
	respondJSON(w, http.StatusOK, aiResponse{Text: out})
}

// Summarize condenses text into simple Spanish
func (h *AIHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := h.ai.Summarize(r.Context(), GetUserFromContext(r.Context()), req.Text)
	if err != nil {
		respondServiceError(w, "Error summarizing text", err)
		return
	}
	respondJSON(w, http.StatusOK, aiResponse{Text: out})
}
