package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"palabras/internal/database"
	"palabras/internal/enrichment"
	"palabras/internal/lexicon"
	"palabras/internal/mastery"
	"palabras/internal/models"
	"palabras/internal/repository"
	"palabras/internal/security"
	"palabras/internal/service"
	"palabras/internal/usage"
)

const testWebhookSecret = "whsec_test"

type stubLookup struct {
	mu      sync.Mutex
	results map[string]lexicon.Result
}

func (s *stubLookup) Lookup(ctx context.Context, term string) lexicon.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	term = lexicon.NormalizeTerm(term)
	if result, ok := s.results[term]; ok {
		return result
	}
	return lexicon.Result{Word: term, Success: false, Entries: []models.WordEntry{{PartOfSpeech: models.PartOfSpeechUnknown}}}
}

type testServer struct {
	handler  http.Handler
	users    *repository.UserRepository
	lookup   *stubLookup
	wordBank *service.WordBankService
	webhooks *security.WebhookVerifier
	signer   *security.TokenSigner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := repository.NewUserRepository(db)
	vocab := repository.NewVocabularyRepository(db)
	tutors := repository.NewTutorRepository(db)
	governor := usage.NewGovernor(repository.NewUsageRepository(db), usage.DefaultQuotas, time.UTC)
	lookup := &stubLookup{results: map[string]lexicon.Result{
		"hablar": {
			Word:    "hablar",
			Success: true,
			Entries: []models.WordEntry{{
				PartOfSpeech: models.PartOfSpeechVerb,
				Definitions:  []models.Definition{{Text: "to speak"}},
			}},
		},
	}}

	signer := security.NewTokenSigner("csrf-secret")
	webhooks := security.NewWebhookVerifier(testWebhookSecret, 5*time.Minute)
	authService := service.NewAuthService(users, nil, time.Hour)
	wordBank := service.NewWordBankService(vocab, tutors, governor, lookup, enrichment.NewTracker(), time.Second)
	t.Cleanup(wordBank.Wait)
	study := service.NewStudyService(wordBank, mastery.NewStore(vocab), governor, time.UTC)
	admin := service.NewAdminService(users, repository.NewSettingsRepository(db), governor)

	oauthConfig := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: "https://accounts.example.com/token",
		},
		Scopes: []string{"openid", "email"},
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, NewMiddleware(authService, signer, security.NewRateLimiter(100, time.Minute)), Handlers{
		WordInfo: NewWordInfoHandler(lookup, "https://app.example.com"),
		Auth:     NewAuthHandler(authService, signer, nil, oauthConfig, "https://palabras.example.com"),
		Words:    NewWordHandler(wordBank),
		Study:    NewStudyHandler(study),
		Tutors:   NewTutorHandler(service.NewTutorService(tutors, nil)),
		AI:       NewAIHandler(service.NewAIService(nil, governor)),
		Webhooks: NewWebhookHandler(service.NewBillingService(users, repository.NewPaymentRepository(db), webhooks, time.Hour)),
		Admin:    NewAdminHandler(admin, service.NewBackupService(db)),
	})

	return &testServer{
		handler:  Logging(mux),
		users:    users,
		lookup:   lookup,
		wordBank: wordBank,
		webhooks: webhooks,
		signer:   signer,
	}
}

// do sends a JSON request with an optional bearer token
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type registered struct {
	user      *models.User
	token     string
	csrfToken string
	cookie    *http.Cookie
}

func (s *testServer) register(t *testing.T, email string) registered {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "secreto123",
		"name":     "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s status = %d, body = %s", email, rec.Code, rec.Body.String())
	}

	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	out := registered{user: resp.User, token: resp.Token, csrfToken: resp.CSRFToken}
	for _, c := range rec.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			out.cookie = c
		}
	}
	return out
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	decodeBody(t, rec, &body)
	return body.Error
}

func TestWordInfo(t *testing.T) {
	srv := newTestServer(t)

	t.Run("known word", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/wordinfo?word=Hablar", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
		var result lexicon.Result
		decodeBody(t, rec, &result)
		if !result.Success || result.Word != "hablar" || len(result.Entries) != 1 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("unknown word is still 200", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/wordinfo?word=zzzz", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var result lexicon.Result
		decodeBody(t, rec, &result)
		if result.Success || len(result.Entries) != 1 || result.Entries[0].PartOfSpeech != models.PartOfSpeechUnknown {
			t.Errorf("result = %+v, want single unknown entry", result)
		}
	})

	t.Run("missing word", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/wordinfo?word=%20", "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if msg := errorMessage(t, rec); msg == "" {
			t.Error("error body should carry a message")
		}
	})

	t.Run("preflight", func(t *testing.T) {
		rec := srv.do(t, http.MethodOptions, "/wordinfo", "", nil)
		if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
			t.Fatalf("status = %d, body = %q, want empty 200", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Error("preflight should advertise allowed methods")
		}
	})
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)
	ana := srv.register(t, "ana@example.com")

	if ana.token == "" || ana.csrfToken == "" || ana.cookie == nil {
		t.Fatalf("register should return token, CSRF token and cookie: %+v", ana)
	}

	rec := srv.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ANA@example.com", "password": "secreto123", "name": "Ana",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "incorrecto",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/auth/me", ana.token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/api/auth/logout", ana.token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec = srv.do(t, http.MethodGet, "/api/auth/me", ana.token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/words", "/api/review", "/api/progress", "/api/usage"} {
		t.Run(path, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, path, "", nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}

	rec := srv.do(t, http.MethodGet, "/api/words", "not-a-session", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown bearer status = %d, want 401", rec.Code)
	}
}

func TestCSRFForCookieSessions(t *testing.T) {
	srv := newTestServer(t)
	ana := srv.register(t, "ana@example.com")

	post := func(csrf string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/words", strings.NewReader(`{"term":"casa"}`))
		req.AddCookie(ana.cookie)
		if csrf != "" {
			req.Header.Set(CSRFHeaderName, csrf)
		}
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post(""); code != http.StatusForbidden {
		t.Errorf("cookie POST without token = %d, want 403", code)
	}
	if code := post("deadbeef"); code != http.StatusForbidden {
		t.Errorf("cookie POST with wrong token = %d, want 403", code)
	}
	if code := post(ana.csrfToken); code != http.StatusCreated {
		t.Errorf("cookie POST with token = %d, want 201", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/words", nil)
	req.AddCookie(ana.cookie)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("cookie GET = %d, want 200", rec.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	m := NewMiddleware(nil, security.NewTokenSigner("s"), security.NewRateLimiter(2, time.Minute))
	handler := m.RateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		handler(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}

func TestRequireAdmin(t *testing.T) {
	srv := newTestServer(t)
	ana := srv.register(t, "ana@example.com")

	rec := srv.do(t, http.MethodGet, "/api/admin/quotas", ana.token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d, want 403", rec.Code)
	}

	if err := srv.users.UpdateUser(context.Background(), ana.user.ID, ana.user.Email, ana.user.Name, true); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	rec = srv.do(t, http.MethodPut, "/api/admin/quotas/wordsAdded", ana.token, map[string]int{"limit": 7})
	if rec.Code != http.StatusOK {
		t.Fatalf("set quota status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var quotas map[string]int
	decodeBody(t, rec, &quotas)
	if quotas["wordsAdded"] != 7 {
		t.Errorf("wordsAdded quota = %d, want 7", quotas["wordsAdded"])
	}

	rec = srv.do(t, http.MethodPut, "/api/admin/quotas/unknownKey", ana.token, map[string]int{"limit": 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown key status = %d, want 400", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/admin/backup", ana.token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"version"`) {
		t.Errorf("backup status = %d", rec.Code)
	}
}

func TestOAuthStartAndCallbackState(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/auth/google/start", "", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("start status = %d, want 302", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "https://accounts.example.com/auth?") ||
		!strings.Contains(location, "redirect_uri=https%3A%2F%2Fpalabras.example.com%2Fauth%2Fgoogle%2Fcallback") {
		t.Errorf("Location = %q", location)
	}

	var nonce *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == OAuthNonceCookie {
			nonce = c
		}
	}
	if nonce == nil {
		t.Fatal("start should set a nonce cookie")
	}
	state, _ := srv.signer.Token(security.PurposeOAuthState, nonce.Value)
	if !strings.Contains(location, "state="+state) {
		t.Error("state should be bound to the nonce cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=forged", nil)
	req.AddCookie(nonce)
	callback := httptest.NewRecorder()
	srv.handler.ServeHTTP(callback, req)
	if callback.Code != http.StatusBadRequest {
		t.Errorf("forged state status = %d, want 400", callback.Code)
	}
}
