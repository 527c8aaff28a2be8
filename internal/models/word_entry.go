package models

import "strings"

// PartOfSpeech classifies a dictionary sense
type PartOfSpeech string

const (
	PartOfSpeechVerb         PartOfSpeech = "verb"
	PartOfSpeechNoun         PartOfSpeech = "noun"
	PartOfSpeechAdjective    PartOfSpeech = "adjective"
	PartOfSpeechAdverb       PartOfSpeech = "adverb"
	PartOfSpeechPronoun      PartOfSpeech = "pronoun"
	PartOfSpeechPreposition  PartOfSpeech = "preposition"
	PartOfSpeechConjunction  PartOfSpeech = "conjunction"
	PartOfSpeechInterjection PartOfSpeech = "interjection"
	PartOfSpeechPhrase       PartOfSpeech = "phrase"
	PartOfSpeechUnknown      PartOfSpeech = "unknown"
)

// ParsePartOfSpeech maps a free-form dictionary tag onto the closed set.
// Anything unrecognised becomes PartOfSpeechUnknown.
func ParsePartOfSpeech(tag string) PartOfSpeech {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "verb":
		return PartOfSpeechVerb
	case "noun", "proper noun":
		return PartOfSpeechNoun
	case "adjective":
		return PartOfSpeechAdjective
	case "adverb":
		return PartOfSpeechAdverb
	case "pronoun":
		return PartOfSpeechPronoun
	case "preposition":
		return PartOfSpeechPreposition
	case "conjunction":
		return PartOfSpeechConjunction
	case "interjection":
		return PartOfSpeechInterjection
	case "phrase", "idiom", "proverb", "prepositional phrase":
		return PartOfSpeechPhrase
	default:
		return PartOfSpeechUnknown
	}
}

// Gender of a noun
type Gender string

const (
	GenderFeminine  Gender = "feminine"
	GenderMasculine Gender = "masculine"
)

// Article returns the definite article agreeing with the gender
func (g Gender) Article() string {
	switch g {
	case GenderFeminine:
		return "la"
	case GenderMasculine:
		return "el"
	default:
		return ""
	}
}

// Tense identifies one of the six canonical conjugation tenses
type Tense string

const (
	TensePresent            Tense = "present"
	TensePreterite          Tense = "preterite"
	TenseImperfect          Tense = "imperfect"
	TenseFuture             Tense = "future"
	TenseConditional        Tense = "conditional"
	TensePresentSubjunctive Tense = "present_subjunctive"
)

// Tenses lists the canonical tenses in display order
var Tenses = []Tense{
	TensePresent,
	TensePreterite,
	TenseImperfect,
	TenseFuture,
	TenseConditional,
	TensePresentSubjunctive,
}

var tenseLabels = map[Tense]string{
	TensePresent:            "Presente",
	TensePreterite:          "Pretérito",
	TenseImperfect:          "Imperfecto",
	TenseFuture:             "Futuro",
	TenseConditional:        "Condicional",
	TensePresentSubjunctive: "Presente de subjuntivo",
}

// Label returns the Spanish display label for the tense
func (t Tense) Label() string {
	if label, ok := tenseLabels[t]; ok {
		return label
	}
	return string(t)
}

// Persons lists the grammatical persons in canonical order (1s, 2s, 3s, 1p, 2p, 3p)
var Persons = []string{"yo", "tú", "él/ella/usted", "nosotros", "vosotros", "ellos/ellas/ustedes"}

// MissingForm marks a conjugation cell that could not be derived
const MissingForm = "—"

// PersonForm is one cell of a conjugation table
type PersonForm struct {
	Person string `json:"person"`
	Form   string `json:"form"`
}

// ExamplePair is a source-language sentence with its translation
type ExamplePair struct {
	Source     string `json:"sourceText"`
	Translated string `json:"translatedText"`
}

// Definition is one meaning of a sense
type Definition struct {
	Text     string        `json:"text"`
	Examples []ExamplePair `json:"examples"`
}

// TenseExample is an example sentence illustrating a tense
type TenseExample struct {
	Tense      string `json:"tense"`
	Source     string `json:"sourceText"`
	Translated string `json:"translatedText"`
}

// WordEntry is the canonical normalized record for one lexical sense of a term
type WordEntry struct {
	PartOfSpeech  PartOfSpeech            `json:"partOfSpeech"`
	Definitions   []Definition            `json:"definitions"`
	Conjugations  map[string][]PersonForm `json:"conjugations,omitempty"`
	TenseExamples []TenseExample          `json:"tenseExamples,omitempty"`
	Gender        Gender                  `json:"gender,omitempty"`
	Article       string                  `json:"article,omitempty"`
	IsIrregular   *bool                   `json:"isIrregular"`
}

// PrimaryDefinition returns the first definition text, or "" when there is none
func (e *WordEntry) PrimaryDefinition() string {
	if e == nil || len(e.Definitions) == 0 {
		return ""
	}
	return e.Definitions[0].Text
}
