package handlers

import (
	"net/http"
	"strings"

	"palabras/internal/service"
)

// WordInfoHandler serves the public dictionary lookup endpoint
type WordInfoHandler struct {
	lookup      service.Lookuper
	allowOrigin string
}

// NewWordInfoHandler creates a lookup handler. allowOrigin is sent as
// Access-Control-Allow-Origin.
func NewWordInfoHandler(lookup service.Lookuper, allowOrigin string) *WordInfoHandler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return &WordInfoHandler{lookup: lookup, allowOrigin: allowOrigin}
}

func (h *WordInfoHandler) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", h.allowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// Preflight answers CORS preflight requests with an empty body
func (h *WordInfoHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
}

// Lookup returns the normalized entries for ?word=. Upstream failures are
// reported inside the envelope, never as an error status.
func (h *WordInfoHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)

	word := strings.TrimSpace(r.URL.Query().Get("word"))
	if word == "" {
		respondWithError(w, http.StatusBadRequest, "Missing required query parameter: word", "", nil)
		return
	}

	respondJSON(w, http.StatusOK, h.lookup.Lookup(r.Context(), word))
}
