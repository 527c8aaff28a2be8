package mastery

import (
	"context"
	"errors"
	"testing"
)

type memoryRepo struct {
	scores  map[int64]int
	failGet error
	failSet error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{scores: make(map[int64]int)}
}

func (m *memoryRepo) GetMastery(ctx context.Context, itemID int64) (int, bool, error) {
	if m.failGet != nil {
		return 0, false, m.failGet
	}
	score, ok := m.scores[itemID]
	return score, ok, nil
}

func (m *memoryRepo) SetMastery(ctx context.Context, itemID int64, score int) error {
	if m.failSet != nil {
		return m.failSet
	}
	m.scores[itemID] = score
	return nil
}

func TestGetDefaultsToZero(t *testing.T) {
	store := NewStore(newMemoryRepo())

	score, err := store.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if score != 0 {
		t.Errorf("Get() = %d, want 0", score)
	}
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name    string
		initial *int
		delta   int
		want    int
	}{
		{name: "increment from absent", initial: nil, delta: 1, want: 1},
		{name: "decrement from absent clamps", initial: nil, delta: -1, want: 0},
		{name: "increment existing", initial: intPtr(4), delta: 1, want: 5},
		{name: "large negative clamps to zero", initial: intPtr(3), delta: -1000, want: 0},
		{name: "zero delta keeps value", initial: intPtr(7), delta: 0, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			if tt.initial != nil {
				repo.scores[1] = *tt.initial
			}
			store := NewStore(repo)

			got, err := store.Adjust(context.Background(), 1, tt.delta)
			if err != nil {
				t.Fatalf("Adjust() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Adjust() = %d, want %d", got, tt.want)
			}
			if repo.scores[1] != tt.want {
				t.Errorf("persisted = %d, want %d", repo.scores[1], tt.want)
			}
		})
	}
}

func TestAdjustSurfacesPersistenceFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.failSet = errors.New("disk full")
	store := NewStore(repo)

	if _, err := store.Adjust(context.Background(), 1, 1); err == nil {
		t.Fatal("Adjust() error = nil, want failure")
	} else if !errors.Is(err, repo.failSet) {
		t.Errorf("Adjust() error = %v, want wrapping %v", err, repo.failSet)
	}
}

// txMemoryRepo stages a batch on a copy and keeps it only when fn succeeds
type txMemoryRepo struct {
	*memoryRepo
	failItem int64
}

type failingItemRepo struct {
	*memoryRepo
	failItem int64
}

func (f *failingItemRepo) SetMastery(ctx context.Context, itemID int64, score int) error {
	if itemID == f.failItem {
		return errors.New("item vanished")
	}
	return f.memoryRepo.SetMastery(ctx, itemID, score)
}

func (m *txMemoryRepo) InTx(ctx context.Context, fn func(repo Repository) error) error {
	staged := newMemoryRepo()
	for id, score := range m.scores {
		staged.scores[id] = score
	}
	if err := fn(&failingItemRepo{memoryRepo: staged, failItem: m.failItem}); err != nil {
		return err
	}
	m.scores = staged.scores
	return nil
}

func TestAdjustAll(t *testing.T) {
	batch := []Adjustment{{ItemID: 1, Delta: 1}, {ItemID: 2, Delta: -1}}

	t.Run("commits every score", func(t *testing.T) {
		repo := &txMemoryRepo{memoryRepo: newMemoryRepo()}
		repo.scores[1], repo.scores[2] = 2, 5

		got, err := NewStore(repo).AdjustAll(context.Background(), batch)
		if err != nil {
			t.Fatalf("AdjustAll() error = %v", err)
		}
		if len(got) != 2 || got[0] != 3 || got[1] != 4 {
			t.Errorf("AdjustAll() = %v, want [3 4]", got)
		}
		if repo.scores[1] != 3 || repo.scores[2] != 4 {
			t.Errorf("persisted = %v, want 1:3 2:4", repo.scores)
		}
	})

	t.Run("failure keeps earlier scores", func(t *testing.T) {
		repo := &txMemoryRepo{memoryRepo: newMemoryRepo(), failItem: 2}
		repo.scores[1], repo.scores[2] = 2, 5

		if _, err := NewStore(repo).AdjustAll(context.Background(), batch); err == nil {
			t.Fatal("AdjustAll() error = nil, want failure")
		}
		if repo.scores[1] != 2 || repo.scores[2] != 5 {
			t.Errorf("persisted = %v, want untouched 1:2 2:5", repo.scores)
		}
	})

	t.Run("plain repository applies in order", func(t *testing.T) {
		repo := newMemoryRepo()
		got, err := NewStore(repo).AdjustAll(context.Background(), batch)
		if err != nil {
			t.Fatalf("AdjustAll() error = %v", err)
		}
		if len(got) != 2 || got[0] != 1 || got[1] != 0 {
			t.Errorf("AdjustAll() = %v, want [1 0]", got)
		}
	})
}

func TestDeltaFor(t *testing.T) {
	if DeltaFor(true) != CorrectDelta {
		t.Errorf("DeltaFor(true) = %d", DeltaFor(true))
	}
	if DeltaFor(false) != IncorrectDelta {
		t.Errorf("DeltaFor(false) = %d", DeltaFor(false))
	}
}

func intPtr(v int) *int { return &v }
