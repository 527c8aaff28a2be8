package lexicon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"palabras/internal/models"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultConcurrency = 6

	maxVerbPointerDefinitions = 2
)

// Options tunes the network behaviour of a Normalizer
type Options struct {
	// Timeout bounds each dictionary call and each conjugation cell.
	Timeout time.Duration
	// Concurrency caps in-flight conjugation cell requests.
	Concurrency int
	// Limiter paces conjugation cell requests; nil disables pacing.
	Limiter *rate.Limiter
}

// Result is the lookup envelope returned to HTTP callers
type Result struct {
	Word    string             `json:"word"`
	Success bool               `json:"success"`
	Entries []models.WordEntry `json:"entries"`
}

// Normalizer builds WordEntry records from a Dictionary and an optional
// Conjugator. It never returns an error: every failure is represented in
// the Result.
type Normalizer struct {
	dictionary Dictionary
	conjugator Conjugator
	opts       Options
}

// NewNormalizer creates a normalizer. conjugator may be nil.
func NewNormalizer(dictionary Dictionary, conjugator Conjugator, opts Options) *Normalizer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Normalizer{
		dictionary: dictionary,
		conjugator: conjugator,
		opts:       opts,
	}
}

// Budget is the longest a Lookup can take when every call runs to its own
// timeout: one dictionary call plus up to two conjugation grids, each grid
// being ceil(cells/Concurrency) waves of per-cell timeouts. Limiter waits
// count against the cell timeout.
func (n *Normalizer) Budget() time.Duration {
	cells := len(models.Tenses) * len(models.Persons)
	waves := (cells + n.opts.Concurrency - 1) / n.opts.Concurrency
	return n.opts.Timeout * time.Duration(1+2*waves)
}

// NormalizeTerm prepares a user-entered term for lookup
func NormalizeTerm(term string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(term)))
}

// Lookup resolves term into one entry per surviving sense. When the
// dictionary has nothing usable it falls back to a conjugation-only verb
// entry, and finally to a single unknown entry with Success=false.
func (n *Normalizer) Lookup(ctx context.Context, term string) Result {
	term = NormalizeTerm(term)
	result := Result{Word: term}

	senses, err := n.lookupSenses(ctx, term)
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("Warning: dictionary lookup for %q failed: %v", term, err)
	}

	if len(senses) > 0 {
		if entries := n.Normalize(ctx, term, senses); len(entries) > 0 {
			result.Success = true
			result.Entries = entries
			return result
		}
	}

	if entry, ok := n.conjugationOnly(ctx, term); ok {
		result.Success = true
		result.Entries = []models.WordEntry{entry}
		return result
	}

	result.Entries = []models.WordEntry{notFoundEntry(term, err)}
	return result
}

func (n *Normalizer) lookupSenses(ctx context.Context, term string) ([]Sense, error) {
	if n.dictionary == nil {
		return nil, ErrNotFound
	}
	lookupCtx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
	defer cancel()
	return n.dictionary.Lookup(lookupCtx, term)
}

// Normalize converts parsed senses into entries, preserving source order.
// Conjugation grids are fetched once per infinitive.
func (n *Normalizer) Normalize(ctx context.Context, term string, senses []Sense) []models.WordEntry {
	grids := make(map[string]*grid)
	var entries []models.WordEntry

	for _, sense := range senses {
		if isPointerOnlyVerb(sense) {
			continue
		}

		definitions := cleanDefinitions(sense.Definitions)
		if len(definitions) == 0 {
			continue
		}

		entry := models.WordEntry{
			PartOfSpeech: sense.PartOfSpeech,
			Definitions:  definitions,
		}

		switch sense.PartOfSpeech {
		case models.PartOfSpeechNoun:
			entry.Gender, entry.Article = InferGender(term, sense.Gender)
		case models.PartOfSpeechVerb:
			infinitive := Infinitive(term)
			g, ok := grids[infinitive]
			if !ok {
				g = n.fetchGrid(ctx, infinitive)
				grids[infinitive] = g
			}
			n.applyConjugation(&entry, infinitive, g)
		}

		entries = append(entries, entry)
	}
	return entries
}

func (n *Normalizer) applyConjugation(entry *models.WordEntry, infinitive string, g *grid) {
	if g == nil {
		return
	}
	entry.IsIrregular = irregularity(infinitive, g)
	entry.Conjugations = g.table()
	if entry.Conjugations == nil {
		return
	}
	entry.TenseExamples = tenseExamples(g, verbGloss(entry.PrimaryDefinition()), entry.Definitions)
}

// conjugationOnly treats term as a bare infinitive when the dictionary has
// no usable entry
func (n *Normalizer) conjugationOnly(ctx context.Context, term string) (models.WordEntry, bool) {
	if n.conjugator == nil || term == "" {
		return models.WordEntry{}, false
	}

	infinitive := Infinitive(term)
	g := n.fetchGrid(ctx, infinitive)
	if g == nil || g.table() == nil {
		return models.WordEntry{}, false
	}

	entry := models.WordEntry{
		PartOfSpeech: models.PartOfSpeechVerb,
		Definitions: []models.Definition{{
			Text:     fmt.Sprintf("No dictionary definition available for %q; showing conjugations only.", term),
			Examples: []models.ExamplePair{},
		}},
	}
	n.applyConjugation(&entry, infinitive, g)
	return entry, true
}

func notFoundEntry(term string, cause error) models.WordEntry {
	message := fmt.Sprintf("No entry found for %q.", term)
	if cause != nil && !errors.Is(cause, ErrNotFound) {
		message = fmt.Sprintf("Could not look up %q: %v", term, cause)
	}
	return models.WordEntry{
		PartOfSpeech: models.PartOfSpeechUnknown,
		Definitions:  []models.Definition{{Text: message, Examples: []models.ExamplePair{}}},
	}
}

// isPointerOnlyVerb reports a verb sense whose few definitions all point at
// another headword ("first-person singular present of ...")
func isPointerOnlyVerb(sense Sense) bool {
	if sense.PartOfSpeech != models.PartOfSpeechVerb {
		return false
	}
	if len(sense.Definitions) == 0 || len(sense.Definitions) > maxVerbPointerDefinitions {
		return false
	}
	for _, def := range sense.Definitions {
		if !def.FormOf {
			return false
		}
	}
	return true
}

func cleanDefinitions(raw []RawDefinition) []models.Definition {
	out := make([]models.Definition, 0, len(raw))
	for _, def := range raw {
		if def.FormOf {
			continue
		}
		text := StripMarkup(def.HTML)
		if text == "" {
			continue
		}
		examples := def.Examples
		if examples == nil {
			examples = []models.ExamplePair{}
		}
		out = append(out, models.Definition{Text: text, Examples: examples})
	}
	return out
}
