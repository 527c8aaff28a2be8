package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"palabras/internal/enrichment"
	"palabras/internal/lexicon"
	"palabras/internal/models"
	"palabras/internal/repository"
	"palabras/internal/usage"
	"palabras/internal/validation"
)

// Lookuper resolves a term to a normalized dictionary result
type Lookuper interface {
	Lookup(ctx context.Context, term string) lexicon.Result
}

// NewItem is the input for adding a word
type NewItem struct {
	Term              string `json:"term"`
	Category          string `json:"category"`
	PrimaryDefinition string `json:"primaryDefinition"`
}

// WordBankService owns vocabulary items and their background enrichment
type WordBankService struct {
	vocabRepo  *repository.VocabularyRepository
	tutorRepo  *repository.TutorRepository
	governor   *usage.Governor
	lookup     Lookuper
	tracker    *enrichment.Tracker
	timeout    time.Duration
	background sync.WaitGroup
	now        func() time.Time
}

// NewWordBankService creates a word bank service. enrichmentTimeout bounds a
// whole background enrichment run, so it must cover every call the lookup
// makes rather than a single one.
func NewWordBankService(vocabRepo *repository.VocabularyRepository, tutorRepo *repository.TutorRepository, governor *usage.Governor, lookup Lookuper, tracker *enrichment.Tracker, enrichmentTimeout time.Duration) *WordBankService {
	return &WordBankService{
		vocabRepo: vocabRepo,
		tutorRepo: tutorRepo,
		governor:  governor,
		lookup:    lookup,
		tracker:   tracker,
		timeout:   enrichmentTimeout,
		now:       time.Now,
	}
}

// Authorize checks that actor may read and write ownerID's word bank
func (s *WordBankService) Authorize(ctx context.Context, actor *models.User, ownerID int64) error {
	if actor == nil {
		return ErrForbidden
	}
	if actor.ID == ownerID {
		return nil
	}
	isTutor, err := s.tutorRepo.IsTutorOf(ctx, actor.ID, ownerID)
	if err != nil {
		return err
	}
	if !isTutor {
		return ErrForbidden
	}
	return nil
}

// item loads an item and checks the actor may act on it
func (s *WordBankService) item(ctx context.Context, actor *models.User, itemID int64) (*models.VocabularyItem, error) {
	item, err := s.vocabRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if err := s.Authorize(ctx, actor, item.UserID); err != nil {
		if errors.Is(err, ErrForbidden) {
			// Do not reveal that the item exists
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// List returns ownerID's items, optionally restricted to a category
func (s *WordBankService) List(ctx context.Context, actor *models.User, ownerID int64, category string) ([]models.VocabularyItem, error) {
	if err := s.Authorize(ctx, actor, ownerID); err != nil {
		return nil, err
	}
	items, err := s.vocabRepo.ListItems(ctx, ownerID, strings.TrimSpace(category))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.VocabularyItem{}
	}
	return items, nil
}

// Categories returns the distinct collection names in ownerID's bank
func (s *WordBankService) Categories(ctx context.Context, actor *models.User, ownerID int64) ([]string, error) {
	if err := s.Authorize(ctx, actor, ownerID); err != nil {
		return nil, err
	}
	return s.vocabRepo.ListCategories(ctx, ownerID)
}

// Get returns a single item
func (s *WordBankService) Get(ctx context.Context, actor *models.User, itemID int64) (*models.VocabularyItem, error) {
	return s.item(ctx, actor, itemID)
}

// Add stores a new item in ownerID's bank, counts it against the actor's
// wordsAdded quota and starts a background dictionary lookup. The stored
// row is returned before enrichment completes.
func (s *WordBankService) Add(ctx context.Context, actor *models.User, ownerID int64, input NewItem) (*models.VocabularyItem, error) {
	if err := s.Authorize(ctx, actor, ownerID); err != nil {
		return nil, err
	}

	term := lexicon.NormalizeTerm(input.Term)
	if err := validation.ValidateTerm(term); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	if err := validation.ValidateCategory(category); err != nil {
		return nil, err
	}

	if err := s.checkLimit(ctx, actor, models.FeatureWordsAdded); err != nil {
		return nil, err
	}

	item, err := s.vocabRepo.CreateItem(ctx, &models.VocabularyItem{
		UserID:            ownerID,
		Term:              term,
		Category:          category,
		PrimaryDefinition: strings.TrimSpace(input.PrimaryDefinition),
	})
	if err != nil {
		return nil, err
	}

	if err := s.governor.Increment(ctx, actor.ID, models.FeatureWordsAdded); err != nil {
		log.Printf("Warning: failed to count word added for user %d: %v", actor.ID, err)
	}

	if _, err := s.startEnrichment(item.ID, item.Term); err != nil {
		log.Printf("Warning: could not start enrichment for item %d: %v", item.ID, err)
	}
	return item, nil
}

// Update edits an item. Changing the term schedules a fresh lookup.
func (s *WordBankService) Update(ctx context.Context, actor *models.User, itemID int64, update models.ItemUpdate) (*models.VocabularyItem, error) {
	current, err := s.item(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}

	if update.Term != nil {
		term := lexicon.NormalizeTerm(*update.Term)
		if err := validation.ValidateTerm(term); err != nil {
			return nil, err
		}
		update.Term = &term
	}
	if update.Category != nil {
		category := strings.TrimSpace(*update.Category)
		if category == "" {
			category = models.DefaultCategory
		}
		if err := validation.ValidateCategory(category); err != nil {
			return nil, err
		}
		update.Category = &category
	}
	if update.PrimaryDefinition != nil {
		definition := strings.TrimSpace(*update.PrimaryDefinition)
		update.PrimaryDefinition = &definition
	}

	updated, err := s.vocabRepo.UpdateItem(ctx, itemID, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrItemNotFound
	}

	if update.Term != nil && *update.Term != current.Term {
		// A lookup still running for the old term must not land
		s.tracker.Forget(updated.ID)
		if _, err := s.startEnrichment(updated.ID, updated.Term); err != nil {
			log.Printf("Warning: could not refresh enrichment for item %d: %v", updated.ID, err)
		}
	}
	return updated, nil
}

// Delete removes an item. Success is reported only once the store confirms
// the row is gone.
func (s *WordBankService) Delete(ctx context.Context, actor *models.User, itemID int64) error {
	if _, err := s.item(ctx, actor, itemID); err != nil {
		return err
	}
	deleted, err := s.vocabRepo.DeleteItem(ctx, itemID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrItemNotFound
	}
	s.tracker.Forget(itemID)
	return nil
}

// Enrich explicitly retries the dictionary lookup for an item
func (s *WordBankService) Enrich(ctx context.Context, actor *models.User, itemID int64) (enrichment.State, error) {
	item, err := s.item(ctx, actor, itemID)
	if err != nil {
		return enrichment.State{}, err
	}
	return s.startEnrichment(item.ID, item.Term)
}

// EnrichmentState reports the lookup state of an item
func (s *WordBankService) EnrichmentState(ctx context.Context, actor *models.User, itemID int64) (enrichment.State, error) {
	item, err := s.item(ctx, actor, itemID)
	if err != nil {
		return enrichment.State{}, err
	}
	state := s.tracker.State(itemID)
	if state.Status == models.EnrichmentIdle && item.Enrichment != nil {
		state.Status = models.EnrichmentDone
	}
	return state, nil
}

// Wait blocks until every background enrichment has finished
func (s *WordBankService) Wait() {
	s.background.Wait()
}

// PruneEnrichmentStates drops finished tracker entries older than age
func (s *WordBankService) PruneEnrichmentStates(age time.Duration) int {
	return s.tracker.Prune(s.now().Add(-age))
}

func (s *WordBankService) startEnrichment(itemID int64, term string) (enrichment.State, error) {
	generation, err := s.tracker.Begin(itemID)
	if err != nil {
		if errors.Is(err, enrichment.ErrInFlight) {
			return s.tracker.State(itemID), ErrEnrichmentInFlight
		}
		return enrichment.State{}, err
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.enrich(itemID, term, generation)
	}()
	return s.tracker.State(itemID), nil
}

// enrich runs detached from the request so a client disconnect does not
// abandon the lookup
func (s *WordBankService) enrich(itemID int64, term string, generation uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result := s.lookup.Lookup(ctx, term)
	if !result.Success || len(result.Entries) == 0 {
		s.tracker.Complete(itemID, generation, fmt.Errorf("%w for %q", ErrNoDictionaryEntry, term))
		return
	}

	if !s.tracker.Current(itemID, generation) {
		log.Printf("Warning: dropping stale enrichment for item %d", itemID)
		return
	}

	entry := result.Entries[0]
	if err := s.vocabRepo.SetEnrichment(ctx, itemID, &entry); err != nil {
		log.Printf("Error storing enrichment for item %d: %v", itemID, err)
		s.tracker.Complete(itemID, generation, err)
		return
	}
	s.tracker.Complete(itemID, generation, nil)
}

// checkLimit returns a LimitError when the actor has used up key today
func (s *WordBankService) checkLimit(ctx context.Context, actor *models.User, key models.FeatureKey) error {
	return checkLimit(ctx, s.governor, actor, key, s.now())
}

func checkLimit(ctx context.Context, governor *usage.Governor, actor *models.User, key models.FeatureKey, now time.Time) error {
	reached, err := governor.HasReachedLimit(ctx, actor.ID, key, actor.HasPremium(now))
	if err != nil {
		return err
	}
	if reached {
		limit, _ := governor.Quota(key)
		return &LimitError{Feature: string(key), Limit: limit}
	}
	return nil
}

// ImportReport summarizes a bulk import
type ImportReport struct {
	Added        int      `json:"added"`
	Skipped      int      `json:"skipped"`
	LimitReached bool     `json:"limitReached"`
	Errors       []string `json:"errors,omitempty"`
}

// Import adds rows one by one through Add, so each row counts against
// wordsAdded. Invalid rows are skipped; the import stops at the quota.
func (s *WordBankService) Import(ctx context.Context, actor *models.User, ownerID int64, rows []NewItem) (*ImportReport, error) {
	if err := s.Authorize(ctx, actor, ownerID); err != nil {
		return nil, err
	}

	report := &ImportReport{}
	for i, row := range rows {
		_, err := s.Add(ctx, actor, ownerID, row)
		switch {
		case err == nil:
			report.Added++
		case errors.Is(err, ErrLimitReached):
			report.LimitReached = true
			report.Skipped += len(rows) - i
			return report, nil
		case isValidationError(err):
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", i+1, err))
		default:
			return report, err
		}
	}
	return report, nil
}

func isValidationError(err error) bool {
	var validationErr validation.ValidationError
	return errors.As(err, &validationErr)
}
