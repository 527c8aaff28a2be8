package repository

import (
	"context"
	"fmt"

	"palabras/internal/database"
)

// PaymentRepository records processed payment webhook events
type PaymentRepository struct {
	db *database.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// SeenEvent reports whether an event id was already processed
func (r *PaymentRepository) SeenEvent(ctx context.Context, eventID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM payment_events WHERE id = ?", eventID); err != nil {
		return false, fmt.Errorf("failed to check payment event: %w", err)
	}
	return count > 0, nil
}

// RecordEvent marks an event id as processed
func (r *PaymentRepository) RecordEvent(ctx context.Context, eventID string, userID int64, kind string) error {
	query := "INSERT INTO payment_events (id, user_id, kind) VALUES (?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, eventID, userID, kind); err != nil {
		return fmt.Errorf("failed to record payment event: %w", err)
	}
	return nil
}
