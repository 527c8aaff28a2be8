package lexicon

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"palabras/internal/models"
)

var verbEndings = []string{"ar", "er", "ir", "ír"}

// grid holds one fetched form per tense and person; "" marks a failed cell
type grid struct {
	forms [6][6]string
}

func (g *grid) form(tense models.Tense, person int) (string, bool) {
	for i, t := range models.Tenses {
		if t == tense {
			f := g.forms[i][person]
			return f, f != ""
		}
	}
	return "", false
}

// table renders the grid as a conjugation map. Rows with no real cell are
// omitted; a grid with no rows yields nil.
func (g *grid) table() map[string][]models.PersonForm {
	var out map[string][]models.PersonForm
	for ti, tense := range models.Tenses {
		row := make([]models.PersonForm, len(models.Persons))
		filled := false
		for pi, person := range models.Persons {
			form := g.forms[ti][pi]
			if form == "" {
				form = models.MissingForm
			} else {
				filled = true
			}
			row[pi] = models.PersonForm{Person: person, Form: form}
		}
		if !filled {
			continue
		}
		if out == nil {
			out = make(map[string][]models.PersonForm)
		}
		out[tense.Label()] = row
	}
	return out
}

// Infinitive strips a reflexive "se" from a verb term ("lavarse" -> "lavar")
func Infinitive(term string) string {
	if strings.HasSuffix(term, "se") {
		base := strings.TrimSuffix(term, "se")
		if hasVerbEnding(base) {
			return base
		}
	}
	return term
}

func hasVerbEnding(s string) bool {
	for _, e := range verbEndings {
		if strings.HasSuffix(s, e) && len(s) > len(e) {
			return true
		}
	}
	return false
}

// regularFirstPerson returns the regular yo/present form of an infinitive
// ("hablar" -> "hablo"), or false when the ending class is not recognised.
func regularFirstPerson(infinitive string) (string, bool) {
	for _, e := range verbEndings {
		if strings.HasSuffix(infinitive, e) && len(infinitive) > len(e) {
			return strings.TrimSuffix(infinitive, e) + "o", true
		}
	}
	return "", false
}

// irregularity compares the looked-up yo/present form against the regular
// one. It returns nil when either side is unknown.
func irregularity(infinitive string, g *grid) *bool {
	if g == nil {
		return nil
	}
	actual, ok := g.form(models.TensePresent, 0)
	if !ok {
		return nil
	}
	expected, ok := regularFirstPerson(infinitive)
	if !ok {
		return nil
	}
	irregular := !strings.EqualFold(strings.TrimSpace(actual), expected)
	return &irregular
}

// fetchGrid requests every tense/person cell concurrently. Each cell
// settles on its own: a failure leaves that cell empty and never cancels
// the others.
func (n *Normalizer) fetchGrid(ctx context.Context, infinitive string) *grid {
	if n.conjugator == nil {
		return nil
	}

	g := &grid{}
	var eg errgroup.Group
	eg.SetLimit(n.opts.Concurrency)

	for ti, tense := range models.Tenses {
		for pi := range models.Persons {
			eg.Go(func() error {
				g.forms[ti][pi] = n.fetchCell(ctx, infinitive, tense, pi)
				return nil
			})
		}
	}
	_ = eg.Wait()

	return g
}

func (n *Normalizer) fetchCell(ctx context.Context, infinitive string, tense models.Tense, person int) string {
	cellCtx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
	defer cancel()

	if n.opts.Limiter != nil {
		if err := n.opts.Limiter.Wait(cellCtx); err != nil {
			return ""
		}
	}

	form, err := n.conjugator.Conjugate(cellCtx, infinitive, tense, person)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(form)
}
