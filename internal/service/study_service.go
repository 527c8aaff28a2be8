package service

import (
	"context"
	"log"
	"time"

	"palabras/internal/gamification"
	"palabras/internal/mastery"
	"palabras/internal/models"
	"palabras/internal/review"
	"palabras/internal/usage"
)

// Round types accepted by RecordRound
const (
	RoundQuiz  = "quiz"
	RoundMatch = "match"
)

var roundFeatures = map[string]models.FeatureKey{
	RoundQuiz:  models.FeatureQuizzesPlayed,
	RoundMatch: models.FeatureMatchesPlayed,
}

// RoundResult is the stored mastery of one item after a round
type RoundResult struct {
	ItemID  int64 `json:"itemId"`
	Mastery int   `json:"masteryScore"`
}

// UsageSummary is a user's quota state for today
type UsageSummary struct {
	Date      string                    `json:"date"`
	Premium   bool                      `json:"premium"`
	Counters  map[models.FeatureKey]int `json:"counters"`
	Limits    map[models.FeatureKey]int `json:"limits"`
	Remaining map[models.FeatureKey]int `json:"remaining"`
}

// StudyService covers review selection, study rounds and progress
type StudyService struct {
	wordBank *WordBankService
	mastery  *mastery.Store
	governor *usage.Governor
	loc      *time.Location
	now      func() time.Time
}

// NewStudyService creates a study service
func NewStudyService(wordBank *WordBankService, masteryStore *mastery.Store, governor *usage.Governor, loc *time.Location) *StudyService {
	if loc == nil {
		loc = time.Local
	}
	return &StudyService{
		wordBank: wordBank,
		mastery:  masteryStore,
		governor: governor,
		loc:      loc,
		now:      time.Now,
	}
}

// Review returns the flashcard working set for ownerID's bank. Each card
// returned counts as one flashcardsViewed for the actor, so a free actor
// gets at most the cards left in today's quota.
func (s *StudyService) Review(ctx context.Context, actor *models.User, ownerID int64, opts review.Options) ([]models.VocabularyItem, error) {
	if err := checkLimit(ctx, s.governor, actor, models.FeatureFlashcardsViewed, s.now()); err != nil {
		return nil, err
	}

	items, err := s.wordBank.List(ctx, actor, ownerID, "")
	if err != nil {
		return nil, err
	}
	selected := review.Prioritize(items, review.ScoresFromItems(items), opts)

	premium := actor.HasPremium(s.now())
	if !premium {
		_, remaining, err := s.governor.Remaining(ctx, actor.ID, premium)
		if err != nil {
			return nil, err
		}
		if left := remaining[models.FeatureFlashcardsViewed]; len(selected) > left {
			selected = selected[:left]
		}
	}

	if err := s.governor.Add(ctx, actor.ID, models.FeatureFlashcardsViewed, len(selected)); err != nil {
		log.Printf("Warning: failed to count flashcards viewed for user %d: %v", actor.ID, err)
	}
	return selected, nil
}

// RecordRound applies the outcomes of a quiz or match round to mastery.
// Every item must be accessible to the actor. The scores are saved together
// or not at all, and the round counts once against the matching quota.
func (s *StudyService) RecordRound(ctx context.Context, actor *models.User, kind string, outcomes []models.RoundOutcome) ([]RoundResult, error) {
	feature, ok := roundFeatures[kind]
	if !ok {
		return nil, ErrUnknownRound
	}
	if err := checkLimit(ctx, s.governor, actor, feature, s.now()); err != nil {
		return nil, err
	}

	for _, outcome := range outcomes {
		if _, err := s.wordBank.item(ctx, actor, outcome.ItemID); err != nil {
			return nil, err
		}
	}

	adjustments := make([]mastery.Adjustment, len(outcomes))
	for i, outcome := range outcomes {
		adjustments[i] = mastery.Adjustment{ItemID: outcome.ItemID, Delta: mastery.DeltaFor(outcome.Correct)}
	}
	scores, err := s.mastery.AdjustAll(ctx, adjustments)
	if err != nil {
		return nil, err
	}

	results := make([]RoundResult, len(outcomes))
	for i, outcome := range outcomes {
		results[i] = RoundResult{ItemID: outcome.ItemID, Mastery: scores[i]}
	}

	if err := s.governor.Increment(ctx, actor.ID, feature); err != nil {
		log.Printf("Warning: failed to count %s round for user %d: %v", kind, actor.ID, err)
	}
	return results, nil
}

// Progress derives the gamification snapshot for ownerID's bank
func (s *StudyService) Progress(ctx context.Context, actor *models.User, ownerID int64) (models.ProgressSnapshot, error) {
	items, err := s.wordBank.List(ctx, actor, ownerID, "")
	if err != nil {
		return models.ProgressSnapshot{}, err
	}
	return gamification.Compute(items, s.now(), s.loc), nil
}

// Usage reports the actor's counters, limits and remaining actions today
func (s *StudyService) Usage(ctx context.Context, actor *models.User) (*UsageSummary, error) {
	premium := actor.HasPremium(s.now())
	daily, remaining, err := s.governor.Remaining(ctx, actor.ID, premium)
	if err != nil {
		return nil, err
	}
	return &UsageSummary{
		Date:      daily.Date,
		Premium:   premium,
		Counters:  daily.Counters,
		Limits:    s.governor.Quotas(),
		Remaining: remaining,
	}, nil
}
