package handlers

import (
	"bytes"
	"net/http"
	"time"

	"palabras/internal/models"
	"palabras/internal/service"
)

// AdminHandler exposes quota tuning, account management and backups
type AdminHandler struct {
	admin  *service.AdminService
	backup *service.BackupService
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(admin *service.AdminService, backup *service.BackupService) *AdminHandler {
	return &AdminHandler{admin: admin, backup: backup}
}

// Quotas returns the active daily quota table
func (h *AdminHandler) Quotas(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.admin.Quotas())
}

// SetQuota updates one quota, {key} in the path
func (h *AdminHandler) SetQuota(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit *int `json:"limit"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Limit == nil || *req.Limit < 0 {
		respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer", "", nil)
		return
	}

	key := models.FeatureKey(r.PathValue("key"))
	if err := h.admin.SetQuota(r.Context(), key, *req.Limit); err != nil {
		respondServiceError(w, "Error setting quota", err)
		return
	}
	respondJSON(w, http.StatusOK, h.admin.Quotas())
}

// Users lists every account
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.Users(r.Context())
	if err != nil {
		respondServiceError(w, "Error listing users", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

// DeleteUser removes an account other than the caller's
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if current := GetUserFromContext(r.Context()); current != nil && current.ID == userID {
		respondWithError(w, http.StatusBadRequest, "Cannot delete your own account", "", nil)
		return
	}

	if err := h.admin.DeleteUser(r.Context(), userID); err != nil {
		respondServiceError(w, "Error deleting user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Backup streams a JSON export of the database
func (h *AdminHandler) Backup(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.backup.ExportTo(r.Context(), &buf); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error exporting backup", err)
		return
	}

	filename := "palabras-backup-" + time.Now().Format("20060102-150405") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
