// Package mastery keeps the per-item mastery score used to order reviews.
package mastery

import (
	"context"
	"fmt"
)

const (
	// CorrectDelta is applied when an item is answered correctly
	CorrectDelta = 1
	// IncorrectDelta is applied when an item is answered incorrectly
	IncorrectDelta = -1
)

// Repository persists mastery scores. A missing item reports found=false.
type Repository interface {
	GetMastery(ctx context.Context, itemID int64) (score int, found bool, err error)
	SetMastery(ctx context.Context, itemID int64, score int) error
}

// Transactor is a Repository that can bind a batch of reads and writes to
// one transaction
type Transactor interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

// Adjustment is one score change in a batch
type Adjustment struct {
	ItemID int64
	Delta  int
}

// Store applies bounded adjustments on top of a Repository.
// Concurrent adjustments of the same item are last-write-wins.
type Store struct {
	repo Repository
}

// NewStore creates a mastery store
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Get returns the score for an item, or 0 if none is recorded
func (s *Store) Get(ctx context.Context, itemID int64) (int, error) {
	score, found, err := s.repo.GetMastery(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("failed to read mastery for item %d: %w", itemID, err)
	}
	if !found {
		return 0, nil
	}
	return score, nil
}

// Adjust adds delta to the current score, clamping at zero, and persists it.
// It returns the stored score.
func (s *Store) Adjust(ctx context.Context, itemID int64, delta int) (int, error) {
	current, err := s.Get(ctx, itemID)
	if err != nil {
		return 0, err
	}

	next := Clamp(current + delta)
	if err := s.repo.SetMastery(ctx, itemID, next); err != nil {
		return 0, fmt.Errorf("failed to save mastery for item %d: %w", itemID, err)
	}
	return next, nil
}

// AdjustAll applies adjustments in order and returns the stored scores.
// When the repository is a Transactor either every score is saved or none.
func (s *Store) AdjustAll(ctx context.Context, adjustments []Adjustment) ([]int, error) {
	var scores []int
	apply := func(repo Repository) error {
		batch := &Store{repo: repo}
		scores = make([]int, 0, len(adjustments))
		for _, adj := range adjustments {
			score, err := batch.Adjust(ctx, adj.ItemID, adj.Delta)
			if err != nil {
				return err
			}
			scores = append(scores, score)
		}
		return nil
	}

	var err error
	if tx, ok := s.repo.(Transactor); ok {
		err = tx.InTx(ctx, apply)
	} else {
		err = apply(s.repo)
	}
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// DeltaFor maps a study outcome to its score delta
func DeltaFor(correct bool) int {
	if correct {
		return CorrectDelta
	}
	return IncorrectDelta
}

// Clamp returns score floored at zero
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	return score
}
