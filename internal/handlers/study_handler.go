package handlers

import (
	"net/http"
	"strconv"

	"palabras/internal/models"
	"palabras/internal/review"
	"palabras/internal/service"
)

// StudyHandler serves review sets, study rounds, progress and usage
type StudyHandler struct {
	study *service.StudyService
}

// NewStudyHandler creates a study handler
func NewStudyHandler(study *service.StudyService) *StudyHandler {
	return &StudyHandler{study: study}
}

// Review returns the working set for ?category= and ?smart=
func (h *StudyHandler) Review(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	ownerID, ok := ownerFromRequest(w, r, user)
	if !ok {
		return
	}

	smart := false
	if raw := r.URL.Query().Get("smart"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "smart must be true or false", "", nil)
			return
		}
		smart = parsed
	}

	items, err := h.study.Review(r.Context(), user, ownerID, review.Options{
		Category: r.URL.Query().Get("category"),
		Smart:    smart,
	})
	if err != nil {
		respondServiceError(w, "Error building review set", err)
		return
	}
	if items == nil {
		items = []models.VocabularyItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

type roundRequest struct {
	Kind     string                `json:"kind"`
	Outcomes []models.RoundOutcome `json:"outcomes"`
}

// RecordRound applies the outcomes of a finished quiz or match round
func (h *StudyHandler) RecordRound(w http.ResponseWriter, r *http.Request) {
	var req roundRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Outcomes) == 0 {
		respondWithError(w, http.StatusBadRequest, "outcomes are required", "", nil)
		return
	}

	results, err := h.study.RecordRound(r.Context(), GetUserFromContext(r.Context()), req.Kind, req.Outcomes)
	if err != nil {
		respondServiceError(w, "Error recording round", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// Progress returns level, XP and streak for the addressed bank
func (h *StudyHandler) Progress(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	ownerID, ok := ownerFromRequest(w, r, user)
	if !ok {
		return
	}

	snapshot, err := h.study.Progress(r.Context(), user, ownerID)
	if err != nil {
		respondServiceError(w, "Error computing progress", err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// Usage returns today's counters and limits for the caller
func (h *StudyHandler) Usage(w http.ResponseWriter, r *http.Request) {
	summary, err := h.study.Usage(r.Context(), GetUserFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, "Error loading usage", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
