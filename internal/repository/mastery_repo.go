package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"palabras/internal/database"
	"palabras/internal/mastery"
)

// GetMastery reads an item's mastery score; found is false for unknown items
func (r *VocabularyRepository) GetMastery(ctx context.Context, itemID int64) (int, bool, error) {
	return getMastery(ctx, r.db, itemID)
}

// SetMastery overwrites an item's mastery score
func (r *VocabularyRepository) SetMastery(ctx context.Context, itemID int64, score int) error {
	return setMastery(ctx, r.db, itemID, score)
}

// InTx runs fn with mastery reads and writes bound to one transaction
func (r *VocabularyRepository) InTx(ctx context.Context, fn func(repo mastery.Repository) error) error {
	return r.db.WithTx(ctx, func(tx database.DBTX) error {
		return fn(txMastery{tx: tx})
	})
}

type txMastery struct {
	tx database.DBTX
}

func (m txMastery) GetMastery(ctx context.Context, itemID int64) (int, bool, error) {
	return getMastery(ctx, m.tx, itemID)
}

func (m txMastery) SetMastery(ctx context.Context, itemID int64, score int) error {
	return setMastery(ctx, m.tx, itemID, score)
}

func getMastery(ctx context.Context, db database.DBTX, itemID int64) (int, bool, error) {
	var score int
	err := db.GetContext(ctx, &score, "SELECT mastery_score FROM vocabulary_items WHERE id = ?", itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get mastery: %w", err)
	}
	return score, true, nil
}

func setMastery(ctx context.Context, db database.DBTX, itemID int64, score int) error {
	query := `
		UPDATE vocabulary_items
		SET mastery_score = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := db.ExecContext(ctx, query, score, itemID)
	if err != nil {
		return fmt.Errorf("failed to set mastery: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read mastery result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("vocabulary item %d not found", itemID)
	}
	return nil
}
