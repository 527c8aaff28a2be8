package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"palabras/internal/models"
	"palabras/internal/security"
	"palabras/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey ContextKey = "user"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	signer      *security.TokenSigner
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance. limiter may be nil.
func NewMiddleware(authService *service.AuthService, signer *security.TokenSigner, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		signer:      signer,
		limiter:     limiter,
	}
}

// RequireAuth resolves the caller from a session cookie, a bearer session ID
// or a bearer ID token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credential, fromCookie := security.SessionFromRequest(r)
		if credential == "" {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		var (
			user *models.User
			err  error
		)
		if !fromCookie && looksLikeJWT(credential) {
			user, err = m.authService.AuthenticateIDToken(r.Context(), credential)
		} else {
			user, err = m.authService.ValidateSession(r.Context(), credential)
		}
		if err != nil {
			if fromCookie {
				http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
			}
			respondServiceError(w, "Error authenticating request", err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is RequireAuth restricted to administrators
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		if user == nil || !user.IsAdmin {
			respondWithError(w, http.StatusForbidden, "Admin access required", "", nil)
			return
		}
		next(w, r)
	})
}

// CSRFProtect requires a token bound to the session on state-changing
// requests authenticated by cookie. Bearer requests are exempt.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next(w, r)
			return
		}

		sessionID, fromCookie := security.SessionFromRequest(r)
		if fromCookie && !m.signer.Valid(security.PurposeCSRF, sessionID, r.Header.Get(CSRFHeaderName)) {
			respondWithError(w, http.StatusForbidden, "Invalid CSRF token", "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondWithError(w, http.StatusTooManyRequests, "Too many requests, try again later", "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		log.Printf("%s %s %d %s", r.Method, r.URL.Path, recorder.status, time.Since(start))
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// looksLikeJWT tells compact JWS tokens apart from opaque session IDs
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}
