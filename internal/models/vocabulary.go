package models

import (
	"strings"
	"time"
)

// DefaultCategory is used when an item is added without a collection name
const DefaultCategory = "General"

// VocabularyItem is a user-owned word bank entry
type VocabularyItem struct {
	ID                int64        `json:"id" db:"id"`
	UserID            int64        `json:"userId" db:"user_id"`
	Term              string       `json:"term" db:"term"`
	Category          string       `json:"category" db:"category"`
	PrimaryDefinition string       `json:"primaryDefinition" db:"primary_definition"`
	PartOfSpeech      PartOfSpeech `json:"partOfSpeech" db:"part_of_speech"`
	MasteryScore      int          `json:"masteryScore" db:"mastery_score"`
	Enrichment        *WordEntry   `json:"enrichment" db:"-"`
	Version           int64        `json:"version" db:"version"`
	CreatedAt         time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time    `json:"updatedAt" db:"updated_at"`
}

// NormalizeTerm lowercases and trims a term the way it is stored
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// ItemUpdate carries the editable fields of a vocabulary item.
// Nil fields are left unchanged.
type ItemUpdate struct {
	Term              *string `json:"term"`
	Category          *string `json:"category"`
	PrimaryDefinition *string `json:"primaryDefinition"`
}

// RoundOutcome is the result for one item in a study round
type RoundOutcome struct {
	ItemID  int64 `json:"itemId"`
	Correct bool  `json:"correct"`
}

// EnrichmentStatus is the lifecycle state of an item's dictionary lookup
type EnrichmentStatus string

const (
	EnrichmentIdle    EnrichmentStatus = "idle"
	EnrichmentPending EnrichmentStatus = "pending"
	EnrichmentDone    EnrichmentStatus = "done"
	EnrichmentFailed  EnrichmentStatus = "failed"
)
