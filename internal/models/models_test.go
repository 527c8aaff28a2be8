package models

import (
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    1,
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			result := session.IsExpired()
			if result != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", result, tt.want)
			}
		})
	}
}

func TestUserHasPremium(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		user *User
		want bool
	}{
		{name: "nil user", user: nil, want: false},
		{name: "free user", user: &User{}, want: false},
		{name: "premium without end", user: &User{IsPremium: true}, want: true},
		{name: "premium until future", user: &User{IsPremium: true, PremiumUntil: &future}, want: true},
		{name: "premium lapsed", user: &User{IsPremium: true, PremiumUntil: &past}, want: false},
		{name: "end date without flag", user: &User{PremiumUntil: &future}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasPremium(now); got != tt.want {
				t.Errorf("HasPremium() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTutorInviteValidity(t *testing.T) {
	usedAt := time.Now().Add(-time.Minute)

	tests := []struct {
		name   string
		invite TutorInvite
		want   bool
	}{
		{name: "fresh", invite: TutorInvite{ExpiresAt: time.Now().Add(time.Hour)}, want: true},
		{name: "expired", invite: TutorInvite{ExpiresAt: time.Now().Add(-time.Hour)}, want: false},
		{name: "used", invite: TutorInvite{ExpiresAt: time.Now().Add(time.Hour), UsedAt: &usedAt}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.invite.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePartOfSpeech(t *testing.T) {
	tests := map[string]PartOfSpeech{
		"Verb":         PartOfSpeechVerb,
		" noun ":       PartOfSpeechNoun,
		"Proper noun":  PartOfSpeechNoun,
		"Adjective":    PartOfSpeechAdjective,
		"Idiom":        PartOfSpeechPhrase,
		"Interjection": PartOfSpeechInterjection,
		"Letter":       PartOfSpeechUnknown,
		"":             PartOfSpeechUnknown,
	}
	for tag, want := range tests {
		if got := ParsePartOfSpeech(tag); got != want {
			t.Errorf("ParsePartOfSpeech(%q) = %s, want %s", tag, got, want)
		}
	}
}

func TestGenderArticle(t *testing.T) {
	if got := GenderFeminine.Article(); got != "la" {
		t.Errorf("feminine article = %q, want la", got)
	}
	if got := GenderMasculine.Article(); got != "el" {
		t.Errorf("masculine article = %q, want el", got)
	}
	if got := Gender("").Article(); got != "" {
		t.Errorf("empty gender article = %q, want empty", got)
	}
}

func TestTenseLabels(t *testing.T) {
	if len(Tenses) != 6 || len(Persons) != 6 {
		t.Fatalf("expected 6 tenses and 6 persons, got %d and %d", len(Tenses), len(Persons))
	}
	seen := make(map[string]bool)
	for _, tense := range Tenses {
		label := tense.Label()
		if label == string(tense) {
			t.Errorf("tense %s has no display label", tense)
		}
		if seen[label] {
			t.Errorf("duplicate label %q", label)
		}
		seen[label] = true
	}
}

func TestPrimaryDefinition(t *testing.T) {
	var nilEntry *WordEntry
	if got := nilEntry.PrimaryDefinition(); got != "" {
		t.Errorf("nil entry PrimaryDefinition() = %q", got)
	}

	entry := &WordEntry{Definitions: []Definition{{Text: "house"}, {Text: "home"}}}
	if got := entry.PrimaryDefinition(); got != "house" {
		t.Errorf("PrimaryDefinition() = %q, want house", got)
	}
}

func TestNormalizeTerm(t *testing.T) {
	if got := NormalizeTerm("  Casa "); got != "casa" {
		t.Errorf("NormalizeTerm() = %q, want casa", got)
	}
}
