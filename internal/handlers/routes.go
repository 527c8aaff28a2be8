package handlers

import "net/http"

// Handlers bundles every handler group the router mounts
type Handlers struct {
	WordInfo *WordInfoHandler
	Auth     *AuthHandler
	Words    *WordHandler
	Study    *StudyHandler
	Tutors   *TutorHandler
	AI       *AIHandler
	Webhooks *WebhookHandler
	Admin    *AdminHandler
}

// RegisterRoutes mounts the public lookup endpoint and the JSON API on mux
func RegisterRoutes(mux *http.ServeMux, m *Middleware, h Handlers) {
	// authenticated, with CSRF checks for cookie sessions
	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(m.CSRFProtect(next))
	}
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAdmin(m.CSRFProtect(next))
	}

	// Dictionary lookup
	mux.HandleFunc("GET /wordinfo", h.WordInfo.Lookup)
	mux.HandleFunc("OPTIONS /wordinfo", h.WordInfo.Preflight)

	// Authentication
	mux.HandleFunc("POST /api/auth/register", m.RateLimit(h.Auth.Register))
	mux.HandleFunc("POST /api/auth/login", m.RateLimit(h.Auth.Login))
	mux.HandleFunc("POST /api/auth/logout", m.CSRFProtect(h.Auth.Logout))
	mux.HandleFunc("GET /api/auth/me", m.RequireAuth(h.Auth.Me))
	mux.HandleFunc("GET /auth/google/start", h.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/google/callback", h.Auth.OAuthCallback)

	// Own word bank
	mux.HandleFunc("GET /api/words", auth(h.Words.List))
	mux.HandleFunc("POST /api/words", auth(h.Words.Create))
	mux.HandleFunc("GET /api/words/categories", auth(h.Words.Categories))
	mux.HandleFunc("GET /api/words/export.xlsx", auth(h.Words.Export))
	mux.HandleFunc("POST /api/words/import", auth(h.Words.Import))
	mux.HandleFunc("GET /api/words/{id}", auth(h.Words.Get))
	mux.HandleFunc("PUT /api/words/{id}", auth(h.Words.Update))
	mux.HandleFunc("DELETE /api/words/{id}", auth(h.Words.Delete))
	mux.HandleFunc("POST /api/words/{id}/enrich", auth(h.Words.Enrich))
	mux.HandleFunc("GET /api/words/{id}/enrichment", auth(h.Words.EnrichmentState))

	// Study
	mux.HandleFunc("GET /api/review", auth(h.Study.Review))
	mux.HandleFunc("POST /api/study/rounds", auth(h.Study.RecordRound))
	mux.HandleFunc("GET /api/progress", auth(h.Study.Progress))
	mux.HandleFunc("GET /api/usage", auth(h.Study.Usage))

	// Generative text
	mux.HandleFunc("POST /api/ai/translate", auth(h.AI.Translate))
	mux.HandleFunc("POST /api/ai/summarize", auth(h.AI.Summarize))

	// Tutoring
	mux.HandleFunc("POST /api/tutors/invite", auth(h.Tutors.Invite))
	mux.HandleFunc("POST /api/tutors/accept", auth(h.Tutors.Accept))
	mux.HandleFunc("GET /api/tutors/students", auth(h.Tutors.Students))
	mux.HandleFunc("DELETE /api/tutors/students/{studentId}", auth(h.Tutors.RemoveStudent))

	// A student's word bank, for their tutors
	mux.HandleFunc("GET /api/students/{studentId}/words", auth(h.Words.List))
	mux.HandleFunc("POST /api/students/{studentId}/words", auth(h.Words.Create))
	mux.HandleFunc("GET /api/students/{studentId}/words/categories", auth(h.Words.Categories))
	mux.HandleFunc("GET /api/students/{studentId}/words/export.xlsx", auth(h.Words.Export))
	mux.HandleFunc("POST /api/students/{studentId}/words/import", auth(h.Words.Import))
	mux.HandleFunc("GET /api/students/{studentId}/words/{id}", auth(h.Words.Get))
	mux.HandleFunc("PUT /api/students/{studentId}/words/{id}", auth(h.Words.Update))
	mux.HandleFunc("DELETE /api/students/{studentId}/words/{id}", auth(h.Words.Delete))
	mux.HandleFunc("POST /api/students/{studentId}/words/{id}/enrich", auth(h.Words.Enrich))
	mux.HandleFunc("GET /api/students/{studentId}/words/{id}/enrichment", auth(h.Words.EnrichmentState))
	mux.HandleFunc("GET /api/students/{studentId}/review", auth(h.Study.Review))
	mux.HandleFunc("GET /api/students/{studentId}/progress", auth(h.Study.Progress))

	// Payments
	mux.HandleFunc("POST /webhooks/payment", h.Webhooks.Payment)

	// Admin
	mux.HandleFunc("GET /api/admin/quotas", admin(h.Admin.Quotas))
	mux.HandleFunc("PUT /api/admin/quotas/{key}", admin(h.Admin.SetQuota))
	mux.HandleFunc("GET /api/admin/users", admin(h.Admin.Users))
	mux.HandleFunc("DELETE /api/admin/users/{id}", admin(h.Admin.DeleteUser))
	mux.HandleFunc("GET /api/admin/backup", admin(h.Admin.Backup))
}
