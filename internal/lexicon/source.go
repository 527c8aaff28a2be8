// Package lexicon turns dictionary and conjugation lookups into canonical
// word entries.
package lexicon

import (
	"context"
	"errors"

	"palabras/internal/models"
)

// ErrNotFound is returned by a Dictionary that has no entry for a term
var ErrNotFound = errors.New("no dictionary entry")

// Dictionary looks up the senses of a term
type Dictionary interface {
	Lookup(ctx context.Context, term string) ([]Sense, error)
}

// Conjugator returns one conjugated surface form.
// Person is 0..5 in the order of models.Persons.
type Conjugator interface {
	Conjugate(ctx context.Context, infinitive string, tense models.Tense, person int) (string, error)
}

// Sense is the validated intermediate form of one dictionary sense.
// ParseDictionaryResponse produces it; the normalizer only reads it.
type Sense struct {
	PartOfSpeech models.PartOfSpeech
	Gender       models.Gender // explicit metadata, empty when the source has none
	Definitions  []RawDefinition
}

// RawDefinition is a definition body as delivered by the source
type RawDefinition struct {
	HTML     string
	FormOf   bool
	Examples []models.ExamplePair
}
