// Package review selects the working set of items for a study session.
package review

import (
	"slices"

	"palabras/internal/models"
)

// SmartReviewLimit caps the working set in smart-review mode
const SmartReviewLimit = 20

// Options controls selection
type Options struct {
	// Category restricts the set to one collection; empty means all.
	Category string
	// Smart orders by ascending mastery and truncates to SmartReviewLimit.
	Smart bool
}

// Prioritize returns the items to study. Scores maps item IDs to mastery;
// an item without a score counts as 0. The input slice is not modified.
func Prioritize(items []models.VocabularyItem, scores map[int64]int, opts Options) []models.VocabularyItem {
	filtered := make([]models.VocabularyItem, 0, len(items))
	for _, item := range items {
		if opts.Category != "" && item.Category != opts.Category {
			continue
		}
		filtered = append(filtered, item)
	}

	if !opts.Smart {
		return filtered
	}

	slices.SortStableFunc(filtered, func(a, b models.VocabularyItem) int {
		return scores[a.ID] - scores[b.ID]
	})

	if len(filtered) > SmartReviewLimit {
		filtered = filtered[:SmartReviewLimit]
	}
	return filtered
}

// ScoresFromItems builds a score map from the mastery recorded on each item
func ScoresFromItems(items []models.VocabularyItem) map[int64]int {
	scores := make(map[int64]int, len(items))
	for _, item := range items {
		scores[item.ID] = item.MasteryScore
	}
	return scores
}
