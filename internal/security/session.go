package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the session ID for browser clients
const SessionCookieName = "palabras_session"

// GenerateSessionID creates a new random session ID
func GenerateSessionID() string {
	return uuid.New().String()
}

// SessionFromRequest returns the session ID from a Bearer token, falling back
// to the session cookie. fromCookie is true when the cookie supplied it.
func SessionFromRequest(r *http.Request) (id string, fromCookie bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token), false
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// IsSecureRequest reports whether the request arrived over HTTPS, directly or
// through a proxy setting X-Forwarded-Proto
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if r.Header.Get("X-Forwarded-Proto") == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// CreateSessionCookie creates an HttpOnly cookie, Secure when served over HTTPS
func CreateSessionCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie expires the named cookie
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
