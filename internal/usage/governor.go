// Package usage enforces the freemium daily quotas.
package usage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"palabras/internal/models"
)

const dateLayout = "2006-01-02"

// ErrUnknownFeature is returned when a counter key has no configured quota
var ErrUnknownFeature = errors.New("unknown usage feature")

// DefaultQuotas are the per-day ceilings for non-premium users
var DefaultQuotas = map[models.FeatureKey]int{
	models.FeatureWordsAdded:       5,
	models.FeatureQuizzesPlayed:    3,
	models.FeatureMatchesPlayed:    3,
	models.FeatureFlashcardsViewed: 20,
	models.FeatureAIRequests:       5,
}

// Store persists one DailyUsage row per user. LoadUsage returns nil when
// the user has no row yet.
type Store interface {
	LoadUsage(ctx context.Context, userID int64) (*models.DailyUsage, error)
	SaveUsage(ctx context.Context, usage *models.DailyUsage) error
}

// Governor tracks per-day counters against fixed quotas.
// Increment does not re-check the limit; callers check first.
type Governor struct {
	store Store
	loc   *time.Location
	now   func() time.Time

	mu     sync.RWMutex
	quotas map[models.FeatureKey]int
}

// NewGovernor creates a governor. A nil quotas map uses DefaultQuotas and a
// nil loc uses time.Local.
func NewGovernor(store Store, quotas map[models.FeatureKey]int, loc *time.Location) *Governor {
	if quotas == nil {
		quotas = DefaultQuotas
	}
	own := make(map[models.FeatureKey]int, len(quotas))
	for k, v := range quotas {
		own[k] = v
	}
	if loc == nil {
		loc = time.Local
	}
	return &Governor{
		store:  store,
		quotas: own,
		loc:    loc,
		now:    time.Now,
	}
}

// Quota returns the configured ceiling for key
func (g *Governor) Quota(key models.FeatureKey) (int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	q, ok := g.quotas[key]
	return q, ok
}

// SetQuota replaces the ceiling for a known key
func (g *Governor) SetQuota(key models.FeatureKey, quota int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.quotas[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, key)
	}
	if quota < 0 {
		return fmt.Errorf("quota for %s must not be negative", key)
	}
	g.quotas[key] = quota
	return nil
}

// Quotas returns a copy of the quota table
func (g *Governor) Quotas() map[models.FeatureKey]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[models.FeatureKey]int, len(g.quotas))
	for k, v := range g.quotas {
		out[k] = v
	}
	return out
}

// Today returns the current calendar day in the governor's location
func (g *Governor) Today() string {
	return g.now().In(g.loc).Format(dateLayout)
}

// ResetIfNewDay loads the user's counters, zeroing them when the stored
// date is not today. The returned usage is always dated today.
func (g *Governor) ResetIfNewDay(ctx context.Context, userID int64) (*models.DailyUsage, error) {
	usage, err := g.store.LoadUsage(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	today := g.Today()
	if usage != nil && usage.Date == today {
		if usage.Counters == nil {
			usage.Counters = make(map[models.FeatureKey]int)
		}
		return usage, nil
	}

	usage = &models.DailyUsage{
		UserID:   userID,
		Date:     today,
		Counters: make(map[models.FeatureKey]int, len(models.FeatureKeys)),
	}
	for key := range g.Quotas() {
		usage.Counters[key] = 0
	}
	if err := g.store.SaveUsage(ctx, usage); err != nil {
		return nil, fmt.Errorf("failed to reset usage: %w", err)
	}
	return usage, nil
}

// HasReachedLimit reports whether the action named by key is exhausted for
// today. Premium users are never limited. An unknown key is reported as
// exhausted.
func (g *Governor) HasReachedLimit(ctx context.Context, userID int64, key models.FeatureKey, isPremium bool) (bool, error) {
	if isPremium {
		return false, nil
	}

	quota, ok := g.Quota(key)
	if !ok {
		log.Printf("Error: usage quota misconfigured: no quota for feature %q, denying action for user %d", key, userID)
		return true, nil
	}

	usage, err := g.ResetIfNewDay(ctx, userID)
	if err != nil {
		return false, err
	}
	return usage.Counters[key] >= quota, nil
}

// Increment adds one to the counter for key
func (g *Governor) Increment(ctx context.Context, userID int64, key models.FeatureKey) error {
	return g.Add(ctx, userID, key, 1)
}

// Add adds n to the counter for key. n below one is a no-op.
func (g *Governor) Add(ctx context.Context, userID int64, key models.FeatureKey, n int) error {
	if n < 1 {
		return nil
	}
	if _, ok := g.Quota(key); !ok {
		log.Printf("Error: usage quota misconfigured: cannot count feature %q for user %d", key, userID)
		return fmt.Errorf("%w: %s", ErrUnknownFeature, key)
	}

	usage, err := g.ResetIfNewDay(ctx, userID)
	if err != nil {
		return err
	}

	usage.Counters[key] += n
	if err := g.store.SaveUsage(ctx, usage); err != nil {
		return fmt.Errorf("failed to save usage: %w", err)
	}
	return nil
}

// Remaining returns how many actions are left today for each known key.
// Premium users get -1 (unlimited) for every key.
func (g *Governor) Remaining(ctx context.Context, userID int64, isPremium bool) (*models.DailyUsage, map[models.FeatureKey]int, error) {
	usage, err := g.ResetIfNewDay(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	quotas := g.Quotas()
	remaining := make(map[models.FeatureKey]int, len(quotas))
	for key, quota := range quotas {
		if isPremium {
			remaining[key] = -1
			continue
		}
		left := quota - usage.Counters[key]
		if left < 0 {
			left = 0
		}
		remaining[key] = left
	}
	return usage, remaining, nil
}
