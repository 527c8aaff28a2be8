package lexicon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"palabras/internal/models"
)

const (
	maxResponseBytes = 2 << 20
	userAgent        = "palabras/1.0 (vocabulary lookup)"
)

// HTTPDictionary reads senses from a Wiktionary-compatible REST endpoint
// ({base}/page/definition/{term}).
type HTTPDictionary struct {
	baseURL  string
	language string
	client   *http.Client
}

// NewHTTPDictionary creates a dictionary client for language (e.g. "es")
func NewHTTPDictionary(baseURL, language string, timeout time.Duration) *HTTPDictionary {
	return &HTTPDictionary{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		client:   &http.Client{Timeout: timeout},
	}
}

// Lookup fetches and parses the senses for term
func (d *HTTPDictionary) Lookup(ctx context.Context, term string) ([]Sense, error) {
	endpoint := fmt.Sprintf("%s/page/definition/%s", d.baseURL, url.PathEscape(term))
	body, status, err := get(ctx, d.client, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dictionary request failed: %w", err)
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("dictionary returned status %d", status)
	}
	return ParseDictionaryResponse(body, d.language)
}

// HTTPConjugator asks a conjugation service for one form at a time
// ({base}/conjugate?verb=&tense=&person=, answering {"form": "..."}).
type HTTPConjugator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPConjugator creates a conjugation client
func NewHTTPConjugator(baseURL string, timeout time.Duration) *HTTPConjugator {
	return &HTTPConjugator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ErrNoForm is returned when the service has no form for a cell
var ErrNoForm = errors.New("no conjugated form")

// Conjugate returns the surface form of infinitive for tense and person
func (c *HTTPConjugator) Conjugate(ctx context.Context, infinitive string, tense models.Tense, person int) (string, error) {
	if person < 0 || person >= len(models.Persons) {
		return "", fmt.Errorf("person index %d out of range", person)
	}

	query := url.Values{
		"verb":   []string{infinitive},
		"tense":  []string{string(tense)},
		"person": []string{strconv.Itoa(person)},
	}
	body, status, err := get(ctx, c.client, c.baseURL+"/conjugate?"+query.Encode())
	if err != nil {
		return "", fmt.Errorf("conjugation request failed: %w", err)
	}
	if status == http.StatusNotFound {
		return "", ErrNoForm
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("conjugation service returned status %d", status)
	}

	var payload struct {
		Form string `json:"form"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to parse conjugation response: %w", err)
	}
	if strings.TrimSpace(payload.Form) == "" {
		return "", ErrNoForm
	}
	return payload.Form, nil
}

func get(ctx context.Context, client *http.Client, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
