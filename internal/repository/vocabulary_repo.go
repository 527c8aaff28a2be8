package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"palabras/internal/database"
	"palabras/internal/models"
)

const vocabularyColumns = `id, user_id, term, category, primary_definition, part_of_speech,
	mastery_score, enrichment, version, created_at, updated_at`

// vocabularyRow adds the serialized enrichment column to the model
type vocabularyRow struct {
	models.VocabularyItem
	EnrichmentJSON sql.NullString `db:"enrichment"`
}

func (row *vocabularyRow) toModel() models.VocabularyItem {
	item := row.VocabularyItem
	if row.EnrichmentJSON.Valid && row.EnrichmentJSON.String != "" {
		var entry models.WordEntry
		if err := json.Unmarshal([]byte(row.EnrichmentJSON.String), &entry); err != nil {
			log.Printf("Warning: ignoring unreadable enrichment for item %d: %v", item.ID, err)
		} else {
			item.Enrichment = &entry
		}
	}
	return item
}

// VocabularyRepository handles database operations for word bank items
type VocabularyRepository struct {
	db *database.DB
}

// NewVocabularyRepository creates a new vocabulary repository
func NewVocabularyRepository(db *database.DB) *VocabularyRepository {
	return &VocabularyRepository{db: db}
}

// CreateItem inserts an item and returns the stored row
func (r *VocabularyRepository) CreateItem(ctx context.Context, item *models.VocabularyItem) (*models.VocabularyItem, error) {
	query := `
		INSERT INTO vocabulary_items (user_id, term, category, primary_definition, part_of_speech, enrichment)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	enrichment, err := encodeEnrichment(item.Enrichment)
	if err != nil {
		return nil, err
	}

	id, err := r.db.ExecReturningID(ctx, query,
		item.UserID, item.Term, item.Category, item.PrimaryDefinition, string(item.PartOfSpeech), enrichment)
	if err != nil {
		return nil, fmt.Errorf("failed to create vocabulary item: %w", err)
	}

	stored, err := r.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("vocabulary item %d missing after insert", id)
	}
	return stored, nil
}

// GetItemByID retrieves an item, or nil when it does not exist
func (r *VocabularyRepository) GetItemByID(ctx context.Context, id int64) (*models.VocabularyItem, error) {
	var row vocabularyRow
	err := r.db.GetContext(ctx, &row, "SELECT "+vocabularyColumns+" FROM vocabulary_items WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vocabulary item: %w", err)
	}
	item := row.toModel()
	return &item, nil
}

// ListItems returns a user's items in insertion order, optionally limited
// to one category
func (r *VocabularyRepository) ListItems(ctx context.Context, userID int64, category string) ([]models.VocabularyItem, error) {
	query := "SELECT " + vocabularyColumns + " FROM vocabulary_items WHERE user_id = ?"
	args := []interface{}{userID}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at, id"

	var rows []vocabularyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list vocabulary items: %w", err)
	}

	items := make([]models.VocabularyItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toModel())
	}
	return items, nil
}

// ListCategories returns the distinct categories a user has items in
func (r *VocabularyRepository) ListCategories(ctx context.Context, userID int64) ([]string, error) {
	var categories []string
	query := "SELECT DISTINCT category FROM vocabulary_items WHERE user_id = ? ORDER BY category"
	if err := r.db.SelectContext(ctx, &categories, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// ItemTimestamps returns the creation time of every item a user owns
func (r *VocabularyRepository) ItemTimestamps(ctx context.Context, userID int64) ([]time.Time, error) {
	var stamps []time.Time
	query := "SELECT created_at FROM vocabulary_items WHERE user_id = ? ORDER BY created_at"
	if err := r.db.SelectContext(ctx, &stamps, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list item timestamps: %w", err)
	}
	return stamps, nil
}

// UpdateItem applies the non-nil fields of update and bumps the version.
// Changing the term clears the stored lookup, part of speech and, unless
// update supplies one, the primary definition. It returns nil when the item
// does not exist.
func (r *VocabularyRepository) UpdateItem(ctx context.Context, id int64, update models.ItemUpdate) (*models.VocabularyItem, error) {
	current, err := r.GetItemByID(ctx, id)
	if err != nil || current == nil {
		return nil, err
	}

	// A new term invalidates everything learned from the old one
	termChanged := update.Term != nil && *update.Term != current.Term
	if termChanged {
		current.Term = *update.Term
		current.PrimaryDefinition = ""
	}
	if update.Category != nil {
		current.Category = *update.Category
	}
	if update.PrimaryDefinition != nil {
		current.PrimaryDefinition = *update.PrimaryDefinition
	}

	query := `
		UPDATE vocabulary_items
		SET term = ?, category = ?, primary_definition = ?,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if termChanged {
		query = `
			UPDATE vocabulary_items
			SET term = ?, category = ?, primary_definition = ?,
				part_of_speech = '', enrichment = NULL,
				version = version + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`
	}
	if _, err := r.db.ExecContext(ctx, query, current.Term, current.Category, current.PrimaryDefinition, id); err != nil {
		return nil, fmt.Errorf("failed to update vocabulary item: %w", err)
	}
	return r.GetItemByID(ctx, id)
}

// SetEnrichment stores a lookup result. The primary definition and part of
// speech are filled from the entry only when the item has none yet.
func (r *VocabularyRepository) SetEnrichment(ctx context.Context, id int64, entry *models.WordEntry) error {
	enrichment, err := encodeEnrichment(entry)
	if err != nil {
		return err
	}

	var definition, partOfSpeech string
	if entry != nil {
		definition = entry.PrimaryDefinition()
		partOfSpeech = string(entry.PartOfSpeech)
	}

	query := `
		UPDATE vocabulary_items
		SET enrichment = ?,
			primary_definition = CASE WHEN primary_definition = '' THEN ? ELSE primary_definition END,
			part_of_speech = CASE WHEN part_of_speech = '' THEN ? ELSE part_of_speech END,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, enrichment, definition, partOfSpeech, id); err != nil {
		return fmt.Errorf("failed to store enrichment: %w", err)
	}
	return nil
}

// DeleteItem removes an item. It reports false when nothing was deleted.
func (r *VocabularyRepository) DeleteItem(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM vocabulary_items WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete vocabulary item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return rows > 0, nil
}

func encodeEnrichment(entry *models.WordEntry) (interface{}, error) {
	if entry == nil {
		return nil, nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode enrichment: %w", err)
	}
	return string(data), nil
}
