package lexicon

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"palabras/internal/models"
)

var (
	feminineEndings  = []string{"ión", "dad", "tud", "a"}
	masculineEndings = []string{"aje", "or", "o"}
)

// ParseGender maps source gender metadata onto models.Gender.
// Ambiguous or unrecognised values yield "".
func ParseGender(raw string) models.Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "f", "fem", "feminine", "femenino":
		return models.GenderFeminine
	case "m", "masc", "masculine", "masculino":
		return models.GenderMasculine
	default:
		return ""
	}
}

// InferGender returns the gender and article of a noun. Explicit metadata
// wins; otherwise the ending of the term decides. The ending rule is a
// heuristic: it is wrong for words such as "día" or "mano".
func InferGender(term string, explicit models.Gender) (models.Gender, string) {
	if explicit != "" {
		return explicit, explicit.Article()
	}

	t := norm.NFC.String(strings.ToLower(strings.TrimSpace(term)))
	for _, suffix := range feminineEndings {
		if strings.HasSuffix(t, suffix) {
			return models.GenderFeminine, models.GenderFeminine.Article()
		}
	}
	for _, suffix := range masculineEndings {
		if strings.HasSuffix(t, suffix) {
			return models.GenderMasculine, models.GenderMasculine.Article()
		}
	}
	return "", ""
}
