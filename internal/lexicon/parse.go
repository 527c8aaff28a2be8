package lexicon

import (
	"bytes"
	"encoding/json"
	"fmt"

	"palabras/internal/models"
)

type wireSense struct {
	PartOfSpeech string           `json:"partOfSpeech"`
	Language     string           `json:"language"`
	Gender       string           `json:"gender"`
	Definitions  []wireDefinition `json:"definitions"`
}

type wireDefinition struct {
	Definition     string            `json:"definition"`
	FormOf         bool              `json:"formOf"`
	ParsedExamples []wireExample     `json:"parsedExamples"`
	Examples       []json.RawMessage `json:"examples"`
}

type wireExample struct {
	Example     string `json:"example"`
	Translation string `json:"translation"`
}

// ParseDictionaryResponse validates a raw definition payload and returns the
// senses for language (a Wiktionary language code such as "es").
//
// Two shapes are accepted: an object keyed by language code, as served by
// the Wiktionary REST API, or a bare array of senses. Example lists may
// hold plain strings or {example, translation} objects. A payload with no
// senses for language yields ErrNotFound.
func ParseDictionaryResponse(body []byte, language string) ([]Sense, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrNotFound
	}

	var wire []wireSense
	if body[0] == '[' {
		if err := json.Unmarshal(body, &wire); err != nil {
			return nil, fmt.Errorf("failed to decode dictionary senses: %w", err)
		}
	} else {
		var byLanguage map[string]json.RawMessage
		if err := json.Unmarshal(body, &byLanguage); err != nil {
			return nil, fmt.Errorf("failed to decode dictionary response: %w", err)
		}
		raw, ok := byLanguage[language]
		if !ok {
			return nil, ErrNotFound
		}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("failed to decode %s senses: %w", language, err)
		}
	}

	senses := make([]Sense, 0, len(wire))
	for _, ws := range wire {
		sense := Sense{
			PartOfSpeech: models.ParsePartOfSpeech(ws.PartOfSpeech),
			Gender:       ParseGender(ws.Gender),
			Definitions:  make([]RawDefinition, 0, len(ws.Definitions)),
		}
		for _, wd := range ws.Definitions {
			sense.Definitions = append(sense.Definitions, RawDefinition{
				HTML:     wd.Definition,
				FormOf:   wd.FormOf || isFormOfMarkup(wd.Definition),
				Examples: parseExamples(wd),
			})
		}
		senses = append(senses, sense)
	}

	if len(senses) == 0 {
		return nil, ErrNotFound
	}
	return senses, nil
}

func parseExamples(wd wireDefinition) []models.ExamplePair {
	var out []models.ExamplePair

	if len(wd.ParsedExamples) > 0 {
		for _, ex := range wd.ParsedExamples {
			if pair, ok := cleanExample(ex.Example, ex.Translation); ok {
				out = append(out, pair)
			}
		}
		return out
	}

	for _, raw := range wd.Examples {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			if pair, ok := cleanExample(text, ""); ok {
				out = append(out, pair)
			}
			continue
		}
		var ex wireExample
		if err := json.Unmarshal(raw, &ex); err == nil {
			if pair, ok := cleanExample(ex.Example, ex.Translation); ok {
				out = append(out, pair)
			}
		}
	}
	return out
}

func cleanExample(source, translated string) (models.ExamplePair, bool) {
	pair := models.ExamplePair{
		Source:     StripMarkup(source),
		Translated: StripMarkup(translated),
	}
	return pair, pair.Source != ""
}
