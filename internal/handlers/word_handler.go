package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"palabras/internal/models"
	"palabras/internal/service"
	"palabras/internal/spreadsheet"
)

// WordHandler serves the word bank, for the caller's own bank and for
// students of a tutor under /api/students/{studentId}/...
type WordHandler struct {
	wordBank *service.WordBankService
}

// NewWordHandler creates a word bank handler
func NewWordHandler(wordBank *service.WordBankService) *WordHandler {
	return &WordHandler{wordBank: wordBank}
}

// ownerFromRequest is the bank being addressed: the student in the path, or
// the caller
func ownerFromRequest(w http.ResponseWriter, r *http.Request, user *models.User) (int64, bool) {
	if r.PathValue("studentId") == "" {
		return user.ID, true
	}
	return pathID(w, r, "studentId")
}

// List returns the addressed bank, optionally filtered by ?category=
func (h *WordHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	ownerID, ok := ownerFromRequest(w, r, user)
	if !ok {
		return
	}

	items, err := h.wordBank.List(r.Context(), user, ownerID, r.URL.Query().Get("category"))
	if err != nil {
		respondServiceError(w, "Error listing words", err)
		return
	}
	if items == nil {
		items = []models.VocabularyItem{}
	}
	respondJSON(w, http.StatusOK, items)
}

// Categories lists the distinct collection names of the addressed bank
func (h *WordHandler) Categories(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	ownerID, ok := ownerFromRequest(w, r, user)
	if !ok {
		return
	}

	categories, err := h.wordBank.Categories(r.Context(), user, ownerID)
	if err != nil {
		respondServiceError(w, "Error listing categories", err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	respondJSON(w, http.StatusOK, categories)
}

// Create adds a word; the stored row is returned and enrichment runs in the
// background
func (h *WordHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	ownerID, ok := ownerFromRequest(w, r, user)
	if !ok {
		return
	}

	var input service.NewItem
	if !decodeJSON(w, r, &input) {
		return
	}

	item, err := h.wordBank.Add(r.Context(), user, ownerID, input)
	if err != nil {
		respondServiceError(w, "Error adding word", err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// Get returns one item
func (h *WordHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.addressedItem(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Update edits the term, category or definition of an item
func (h *WordHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.addressedItem(w, r)
	if !ok {
		return
	}

	var update models.ItemUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	updated, err := h.wordBank.Update(r.Context(), GetUserFromContext(r.Context()), item.ID, update)
	if err != nil {
		respondServiceError(w, "Error updating word", err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes an item once the store confirms it
func (h *WordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, ok := h.addressedItem(w, r)
	if !ok {
		return
	}

	if err := h.wordBank.Delete(r.Context(), GetUserFromContext(r.Context()), item.ID); err != nil {
		respondServiceError(w, "Error deleting word", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Enrich retries the dictionary lookup for an item
func (h *WordHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	item, ok := h.addressedItem(w, r)
	if !ok {
		return
	}

	state, err := h.wordBank.Enrich(r.Context(), GetUserFromContext(r.Context()), item.ID)
	if err != nil {
		respondServiceError(w, "Error starting enrichment", err)
		return
	}
	respondJSON(w, http.StatusAccepted, state)
}

// EnrichmentState reports where the item's lookup stands
func (h *WordHandler) EnrichmentState(w http.ResponseWriter, r *http.Request) {
	item, ok := h.addressedItem(w, r)
	if !ok {
		return
	}

	state, err := h.wordBank.EnrichmentState(r.Context(), GetUserFromContext(r.Context()), item.ID)
	if err != nil {
		respondServiceError(w, "Error reading enrichment state", err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// Export downloads the addressed bank as an .xlsx workbook
func (h *WordHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	ownerID, ok := ownerFromRequest(w, r, user)
	if !ok {
		return
	}

	items, err := h.wordBank.List(r.Context(), user, ownerID, r.URL.Query().Get("category"))
	if err != nil {
		respondServiceError(w, "Error listing words for export", err)
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.Export(&buf, items); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error building spreadsheet", err)
		return
	}

	filename := "palabras-" + time.Now().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Import adds the rows of an uploaded .xlsx or .csv file (form field "file")
func (h *WordHandler) Import(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	ownerID, ok := ownerFromRequest(w, r, user)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportFileBytes)
	if err := r.ParseMultipartForm(maxImportFileBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid upload", "", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file", "", nil)
		return
	}
	defer file.Close()

	rows, err := spreadsheet.Parse(file, header.Filename)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrEmpty) || errors.Is(err, spreadsheet.ErrTooManyRows) {
			respondServiceError(w, "", err)
			return
		}
		respondWithError(w, http.StatusBadRequest, "Could not read spreadsheet", "Error parsing import", err)
		return
	}

	items := make([]service.NewItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, service.NewItem{
			Term:              row.Term,
			Category:          row.Category,
			PrimaryDefinition: row.Definition,
		})
	}

	report, err := h.wordBank.Import(r.Context(), user, ownerID, items)
	if err != nil {
		respondServiceError(w, "Error importing words", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// addressedItem loads {id}, checking it belongs to {studentId} when present
func (h *WordHandler) addressedItem(w http.ResponseWriter, r *http.Request) (*models.VocabularyItem, bool) {
	user := GetUserFromContext(r.Context())
	ownerID, ok := ownerFromRequest(w, r, user)
	if !ok {
		return nil, false
	}
	itemID, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}

	item, err := h.wordBank.Get(r.Context(), user, itemID)
	if err != nil {
		respondServiceError(w, "Error loading word", err)
		return nil, false
	}
	if r.PathValue("studentId") != "" && item.UserID != ownerID {
		respondServiceError(w, "", service.ErrItemNotFound)
		return nil, false
	}
	return item, true
}
