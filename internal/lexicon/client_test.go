package lexicon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"palabras/internal/models"
)

func TestHTTPDictionaryLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page/definition/casa":
			if r.Header.Get("User-Agent") == "" {
				t.Error("expected a User-Agent header")
			}
			w.Write([]byte(`{"es": [{"partOfSpeech": "Noun", "definitions": [{"definition": "house"}]}]}`))
		case "/page/definition/error":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dict := NewHTTPDictionary(server.URL+"/", "es", time.Second)

	senses, err := dict.Lookup(context.Background(), "casa")
	if err != nil {
		t.Fatalf("Lookup(casa) error = %v", err)
	}
	if len(senses) != 1 || senses[0].PartOfSpeech != models.PartOfSpeechNoun {
		t.Errorf("senses = %+v", senses)
	}

	if _, err := dict.Lookup(context.Background(), "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(zzz) error = %v, want ErrNotFound", err)
	}

	_, err = dict.Lookup(context.Background(), "error")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(error) error = %v, want status error", err)
	}
}

func TestHTTPConjugatorConjugate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/conjugate" {
			http.NotFound(w, r)
			return
		}
		switch {
		case q.Get("verb") == "hablar" && q.Get("tense") == "present" && q.Get("person") == "0":
			w.Write([]byte(`{"form": "hablo"}`))
		case q.Get("verb") == "hablar":
			w.Write([]byte(`{"form": ""}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	conj := NewHTTPConjugator(server.URL, time.Second)
	ctx := context.Background()

	form, err := conj.Conjugate(ctx, "hablar", models.TensePresent, 0)
	if err != nil || form != "hablo" {
		t.Errorf("Conjugate() = %q, %v; want hablo", form, err)
	}

	if _, err := conj.Conjugate(ctx, "hablar", models.TenseFuture, 2); !errors.Is(err, ErrNoForm) {
		t.Errorf("empty form error = %v, want ErrNoForm", err)
	}
	if _, err := conj.Conjugate(ctx, "xyz", models.TensePresent, 0); !errors.Is(err, ErrNoForm) {
		t.Errorf("404 error = %v, want ErrNoForm", err)
	}
	if _, err := conj.Conjugate(ctx, "hablar", models.TensePresent, 6); err == nil {
		t.Error("expected error for out-of-range person")
	}
}

func TestNormalizerOverHTTP(t *testing.T) {
	dictServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"es": [{"partOfSpeech": "Verb", "definitions": [{"definition": "to speak"}]}]}`))
	}))
	defer dictServer.Close()

	conjServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tense") == "present" && r.URL.Query().Get("person") == "0" {
			w.Write([]byte(`{"form": "hablo"}`))
			return
		}
		// a slow cell must not hold up the lookup beyond the per-cell timeout
		if r.URL.Query().Get("tense") == "future" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		http.NotFound(w, r)
	}))
	defer conjServer.Close()

	n := NewNormalizer(
		NewHTTPDictionary(dictServer.URL, "es", time.Second),
		NewHTTPConjugator(conjServer.URL, 5*time.Second),
		Options{Timeout: 200 * time.Millisecond, Concurrency: 8},
	)

	start := time.Now()
	result := n.Lookup(context.Background(), "hablar")
	if elapsed := time.Since(start); elapsed > 1500*time.Millisecond {
		t.Errorf("Lookup took %v, expected per-cell timeouts to bound it", elapsed)
	}

	if !result.Success {
		t.Fatalf("Lookup() = %+v, want success", result)
	}
	row := result.Entries[0].Conjugations["Presente"]
	if len(row) != 6 || row[0].Form != "hablo" {
		t.Errorf("Presente row = %+v", row)
	}
}
