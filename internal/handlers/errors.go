package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"palabras/internal/security"
	"palabras/internal/service"
	"palabras/internal/spreadsheet"
	"palabras/internal/usage"
	"palabras/internal/validation"
)

type errorResponse struct {
	Error   string `json:"error"`
	Feature string `json:"feature,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondServiceError maps a service error onto a status code. Client errors
// carry the error text; anything unrecognised is logged and hidden.
func respondServiceError(w http.ResponseWriter, logMsg string, err error) {
	var limitErr *service.LimitError
	if errors.As(err, &limitErr) {
		limit := limitErr.Limit
		respondJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:   limitErr.Error(),
			Feature: limitErr.Feature,
			Limit:   &limit,
		})
		return
	}

	var validationErr validation.ValidationError
	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, service.ErrEmptyText),
		errors.Is(err, service.ErrTextTooLong),
		errors.Is(err, service.ErrUnknownRound),
		errors.Is(err, service.ErrInviteInvalid),
		errors.Is(err, service.ErrSelfTutoring),
		errors.Is(err, service.ErrMalformedEvent),
		errors.Is(err, usage.ErrUnknownFeature),
		errors.Is(err, spreadsheet.ErrEmpty),
		errors.Is(err, spreadsheet.ErrTooManyRows):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, security.ErrInvalidIDToken),
		errors.Is(err, security.ErrInvalidSignature):
		respondWithError(w, http.StatusUnauthorized, err.Error(), "", nil)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, err.Error(), "", nil)
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrUnknownUser):
		respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrEnrichmentInFlight):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrAIDisabled):
		respondWithError(w, http.StatusServiceUnavailable, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return false
	}
	return true
}

// pathID parses a positive integer path parameter
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return 0, false
	}
	return id, true
}
