package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"palabras/internal/database"
	"palabras/internal/models"
)

// usageColumns maps feature keys onto daily_usage columns
var usageColumns = map[models.FeatureKey]string{
	models.FeatureWordsAdded:       "words_added",
	models.FeatureQuizzesPlayed:    "quizzes_played",
	models.FeatureMatchesPlayed:    "matches_played",
	models.FeatureFlashcardsViewed: "flashcards_viewed",
	models.FeatureAIRequests:       "ai_requests",
}

type usageRow struct {
	UserID           int64  `db:"user_id"`
	UsageDate        string `db:"usage_date"`
	WordsAdded       int    `db:"words_added"`
	QuizzesPlayed    int    `db:"quizzes_played"`
	MatchesPlayed    int    `db:"matches_played"`
	FlashcardsViewed int    `db:"flashcards_viewed"`
	AIRequests       int    `db:"ai_requests"`
}

// UsageRepository persists one row of daily counters per user
type UsageRepository struct {
	db *database.DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *database.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// LoadUsage returns the stored counters, or nil when the user has none
func (r *UsageRepository) LoadUsage(ctx context.Context, userID int64) (*models.DailyUsage, error) {
	var row usageRow
	query := `
		SELECT user_id, usage_date, words_added, quizzes_played, matches_played, flashcards_viewed, ai_requests
		FROM daily_usage
		WHERE user_id = ?
	`
	err := r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	return &models.DailyUsage{
		UserID: row.UserID,
		Date:   row.UsageDate,
		Counters: map[models.FeatureKey]int{
			models.FeatureWordsAdded:       row.WordsAdded,
			models.FeatureQuizzesPlayed:    row.QuizzesPlayed,
			models.FeatureMatchesPlayed:    row.MatchesPlayed,
			models.FeatureFlashcardsViewed: row.FlashcardsViewed,
			models.FeatureAIRequests:       row.AIRequests,
		},
	}, nil
}

// SaveUsage writes the whole row. Counters for keys without a column are ignored.
func (r *UsageRepository) SaveUsage(ctx context.Context, usage *models.DailyUsage) error {
	columns := []string{"user_id", "usage_date"}
	args := []interface{}{usage.UserID, usage.Date}
	for _, key := range models.FeatureKeys {
		columns = append(columns, usageColumns[key])
		args = append(args, usage.Counters[key])
	}

	query := r.db.Dialect.Upsert("daily_usage", []string{"user_id"}, columns)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save usage: %w", err)
	}
	return nil
}
