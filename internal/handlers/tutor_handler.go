package handlers

import (
	"net/http"

	"palabras/internal/service"
)

// TutorHandler manages tutor invites and links
type TutorHandler struct {
	tutors *service.TutorService
}

// NewTutorHandler creates a tutor handler
func NewTutorHandler(tutors *service.TutorService) *TutorHandler {
	return &TutorHandler{tutors: tutors}
}

// Invite issues a code for the caller's bank, optionally emailing it
func (h *TutorHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TutorEmail string `json:"tutorEmail"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	invite, err := h.tutors.CreateInvite(r.Context(), GetUserFromContext(r.Context()), req.TutorEmail)
	if err != nil {
		respondServiceError(w, "Error creating tutor invite", err)
		return
	}
	respondJSON(w, http.StatusCreated, invite)
}

// Accept redeems an invite code for the caller
func (h *TutorHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		respondWithError(w, http.StatusBadRequest, "code is required", "", nil)
		return
	}

	link, err := h.tutors.Accept(r.Context(), GetUserFromContext(r.Context()), req.Code)
	if err != nil {
		respondServiceError(w, "Error accepting tutor invite", err)
		return
	}
	respondJSON(w, http.StatusOK, link)
}

// Students lists the caller's students
func (h *TutorHandler) Students(w http.ResponseWriter, r *http.Request) {
	links, err := h.tutors.Students(r.Context(), GetUserFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, "Error listing students", err)
		return
	}
	respondJSON(w, http.StatusOK, links)
}

// RemoveStudent ends the link to {studentId}
func (h *TutorHandler) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	studentID, ok := pathID(w, r, "studentId")
	if !ok {
		return
	}

	if err := h.tutors.RemoveStudent(r.Context(), GetUserFromContext(r.Context()), studentID); err != nil {
		respondServiceError(w, "Error removing student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
