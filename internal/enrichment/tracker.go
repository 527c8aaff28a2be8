// Package enrichment tracks in-flight dictionary lookups for word bank items.
package enrichment

import (
	"errors"
	"sync"
	"time"

	"palabras/internal/models"
)

// ErrInFlight is returned when a lookup for the item is already pending
var ErrInFlight = errors.New("enrichment already in progress")

// State is a point-in-time view of one item's lookup
type State struct {
	ItemID     int64                   `json:"itemId"`
	Status     models.EnrichmentStatus `json:"status"`
	Generation uint64                  `json:"generation"`
	Error      string                  `json:"error,omitempty"`
	UpdatedAt  time.Time               `json:"updatedAt"`
}

// Tracker is the per-item state machine idle -> pending -> done|failed.
// Every Begin issues a tracker-wide unique generation; a completion carrying
// an older generation is discarded.
type Tracker struct {
	mu     sync.Mutex
	states map[int64]*State
	seq    uint64
	now    func() time.Time
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[int64]*State),
		now:    time.Now,
	}
}

// Begin moves the item to pending and returns its generation token
func (t *Tracker) Begin(itemID int64) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[itemID]
	if !ok {
		s = &State{ItemID: itemID}
		t.states[itemID] = s
	}
	if s.Status == models.EnrichmentPending {
		return 0, ErrInFlight
	}

	t.seq++
	s.Generation = t.seq
	s.Status = models.EnrichmentPending
	s.Error = ""
	s.UpdatedAt = t.now()
	return s.Generation, nil
}

// Complete settles a pending lookup. It reports false when generation is
// stale or the item was forgotten, in which case the caller must not
// persist its result.
func (t *Tracker) Complete(itemID int64, generation uint64, lookupErr error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[itemID]
	if !ok || s.Generation != generation || s.Status != models.EnrichmentPending {
		return false
	}

	s.Status = models.EnrichmentDone
	if lookupErr != nil {
		s.Status = models.EnrichmentFailed
		s.Error = lookupErr.Error()
	}
	s.UpdatedAt = t.now()
	return true
}

// Current reports whether generation is still the pending one for itemID
func (t *Tracker) Current(itemID int64, generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[itemID]
	return ok && s.Generation == generation && s.Status == models.EnrichmentPending
}

// State returns the item's lookup state; unknown items are idle
func (t *Tracker) State(itemID int64) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.states[itemID]; ok {
		return *s
	}
	return State{ItemID: itemID, Status: models.EnrichmentIdle}
}

// Forget drops the item, invalidating any in-flight lookup
func (t *Tracker) Forget(itemID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, itemID)
}

// Prune removes settled states last updated before cutoff
func (t *Tracker) Prune(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, s := range t.states {
		if s.Status != models.EnrichmentPending && s.UpdatedAt.Before(cutoff) {
			delete(t.states, id)
			removed++
		}
	}
	return removed
}
