package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"palabras/internal/models"
	"palabras/internal/review"
)

func TestReviewCountsFlashcards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana@example.com")
	first := env.addWord(t, user, "uno")
	second := env.addWord(t, user, "dos")
	env.wordBank.Wait()

	if err := env.vocab.SetMastery(ctx, first.ID, 4); err != nil {
		t.Fatalf("SetMastery() error = %v", err)
	}

	items, err := env.study.Review(ctx, user, user.ID, review.Options{Smart: true})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if len(items) != 2 || items[0].ID != second.ID {
		t.Errorf("Review() order = %v, want least mastered first", items)
	}

	summary, err := env.study.Usage(ctx, user)
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	if summary.Counters[models.FeatureFlashcardsViewed] != 2 {
		t.Errorf("flashcardsViewed = %d, want one per card (2)", summary.Counters[models.FeatureFlashcardsViewed])
	}
	if summary.Remaining[models.FeatureWordsAdded] != 3 {
		t.Errorf("wordsAdded remaining = %d, want 3", summary.Remaining[models.FeatureWordsAdded])
	}
}

func TestReviewStopsAtFlashcardQuota(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana@example.com")
	for _, term := range []string{"uno", "dos", "tres", "cuatro", "cinco"} {
		env.addWord(t, user, term)
	}
	env.wordBank.Wait()
	if err := env.governor.SetQuota(models.FeatureFlashcardsViewed, 3); err != nil {
		t.Fatalf("SetQuota() error = %v", err)
	}

	items, err := env.study.Review(ctx, user, user.ID, review.Options{})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if len(items) != 3 {
		t.Errorf("Review() returned %d cards, want the 3 left in the quota", len(items))
	}

	_, err = env.study.Review(ctx, user, user.ID, review.Options{})
	var limitErr *LimitError
	if !errors.As(err, &limitErr) || limitErr.Feature != string(models.FeatureFlashcardsViewed) {
		t.Errorf("second Review() error = %v, want flashcardsViewed LimitError", err)
	}

	items, err = env.study.Review(ctx, premium(user), user.ID, review.Options{})
	if err != nil || len(items) != 5 {
		t.Errorf("premium Review() = %d cards, %v; want all 5", len(items), err)
	}
}

func TestRecordRoundAdjustsMastery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana@example.com")
	item := env.addWord(t, user, "rojo")
	env.wordBank.Wait()

	outcomes := []models.RoundOutcome{
		{ItemID: item.ID, Correct: true},
		{ItemID: item.ID, Correct: true},
		{ItemID: item.ID, Correct: false},
	}
	results, err := env.study.RecordRound(ctx, user, RoundQuiz, outcomes)
	if err != nil {
		t.Fatalf("RecordRound() error = %v", err)
	}
	want := []int{1, 2, 1}
	for i, result := range results {
		if result.Mastery != want[i] {
			t.Errorf("result[%d] mastery = %d, want %d", i, result.Mastery, want[i])
		}
	}

	clamp := []models.RoundOutcome{{ItemID: item.ID}, {ItemID: item.ID}}
	results, err = env.study.RecordRound(ctx, user, RoundMatch, clamp)
	if err != nil {
		t.Fatalf("RecordRound() error = %v", err)
	}
	if results[1].Mastery != 0 {
		t.Errorf("mastery after repeated misses = %d, want 0", results[1].Mastery)
	}

	summary, _ := env.study.Usage(ctx, user)
	if summary.Counters[models.FeatureQuizzesPlayed] != 1 || summary.Counters[models.FeatureMatchesPlayed] != 1 {
		t.Errorf("counters = %v, want one quiz and one match", summary.Counters)
	}
}

func TestRecordRoundErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana@example.com")
	other := env.createUser(t, "otro@example.com")
	foreign := env.addWord(t, other, "azul")
	env.wordBank.Wait()

	if _, err := env.study.RecordRound(ctx, user, "crossword", nil); !errors.Is(err, ErrUnknownRound) {
		t.Errorf("unknown round error = %v, want ErrUnknownRound", err)
	}

	_, err := env.study.RecordRound(ctx, user, RoundQuiz, []models.RoundOutcome{{ItemID: foreign.ID, Correct: true}})
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("foreign item error = %v, want ErrItemNotFound", err)
	}
	if score, _ := env.study.mastery.Get(ctx, foreign.ID); score != 0 {
		t.Errorf("foreign item mastery = %d, want untouched", score)
	}

	for i := 0; i < 3; i++ {
		if _, err := env.study.RecordRound(ctx, user, RoundQuiz, nil); err != nil {
			t.Fatalf("quiz %d error = %v", i+1, err)
		}
	}
	if _, err := env.study.RecordRound(ctx, user, RoundQuiz, nil); !errors.Is(err, ErrLimitReached) {
		t.Errorf("fourth quiz error = %v, want ErrLimitReached", err)
	}
}

func TestProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana@example.com")
	env.addWord(t, user, "uno")
	env.addWord(t, user, "dos")
	env.wordBank.Wait()
	env.study.now = func() time.Time { return time.Now().UTC() }

	snapshot, err := env.study.Progress(ctx, user, user.ID)
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if snapshot.TotalXP != 20 || snapshot.Level != 1 || snapshot.StreakDays != 1 {
		t.Errorf("Progress() = %+v, want 20 XP, level 1, streak 1", snapshot)
	}
}
