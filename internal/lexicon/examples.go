package lexicon

import (
	"fmt"
	"strings"

	"palabras/internal/models"
)

const (
	maxSynthesizedExamples = 3
	maxCopiedExamples      = 3
	copiedExampleLabel     = "Ejemplo"
)

type carrier struct {
	tense      models.Tense
	source     string
	translated string
}

// carriers are filled with the yo form (Spanish) and an English gloss
var carriers = []carrier{
	{tense: models.TensePresent, source: "Yo %s todos los días.", translated: "I %s every day."},
	{tense: models.TensePreterite, source: "Yo %s ayer.", translated: "I %s yesterday."},
	{tense: models.TenseFuture, source: "Yo %s mañana.", translated: "I %s tomorrow."},
}

// tenseExamples synthesizes carrier sentences from the grid, then appends
// examples copied from the definitions in source order.
func tenseExamples(g *grid, gloss string, definitions []models.Definition) []models.TenseExample {
	var out []models.TenseExample

	if g != nil {
		for _, c := range carriers {
			if len(out) == maxSynthesizedExamples {
				break
			}
			form, ok := g.form(c.tense, 0)
			if !ok {
				continue
			}
			english := gloss
			if english == "" {
				english = form
			}
			out = append(out, models.TenseExample{
				Tense:      c.tense.Label(),
				Source:     fmt.Sprintf(c.source, form),
				Translated: fmt.Sprintf(c.translated, english),
			})
		}
	}

	copied := 0
	for _, def := range definitions {
		for _, ex := range def.Examples {
			if copied == maxCopiedExamples {
				return out
			}
			out = append(out, models.TenseExample{
				Tense:      copiedExampleLabel,
				Source:     ex.Source,
				Translated: ex.Translated,
			})
			copied++
		}
	}
	return out
}

// verbGloss extracts a bare English verb from a definition such as
// "to speak, to talk" ("speak"). It returns "" when the definition does not
// start with an infinitive.
func verbGloss(definition string) string {
	d := strings.TrimSpace(strings.ToLower(definition))
	if !strings.HasPrefix(d, "to ") {
		return ""
	}
	d = strings.TrimPrefix(d, "to ")
	if i := strings.IndexAny(d, ",;:()"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSpace(d)
}
