package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"palabras/internal/security"
	"palabras/internal/service"
)

const (
	oauthCookieTTL     = 10 * time.Minute
	googleUserInfoURL  = "https://www.googleapis.com/oauth2/v3/userinfo"
	oauthExchangeLimit = 10 * time.Second
)

// StartOAuth redirects to Google. The state is an HMAC of a nonce kept in a
// short-lived cookie, so the callback needs no server-side storage.
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil {
		respondWithError(w, http.StatusNotFound, "OAuth provider not configured", "", nil)
		return
	}

	nonce := security.GenerateSessionID()
	state, err := h.signer.Token(security.PurposeOAuthState, nonce)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error signing OAuth state", err)
		return
	}
	h.setTempCookie(w, r, OAuthNonceCookie, nonce, oauthCookieTTL)

	config := *h.oauthConfig
	config.RedirectURL = h.oauthRedirectURL(r)
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("nonce", nonce))
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback completes the Google flow and starts a cookie session
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil {
		respondWithError(w, http.StatusNotFound, "OAuth provider not configured", "", nil)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	nonce := ""
	if cookie, err := r.Cookie(OAuthNonceCookie); err == nil {
		nonce = cookie.Value
	}
	if !h.signer.Valid(security.PurposeOAuthState, nonce, r.URL.Query().Get("state")) {
		respondWithError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	h.clearTempCookie(w, r, OAuthNonceCookie)

	ctx, cancel := context.WithTimeout(r.Context(), oauthExchangeLimit)
	defer cancel()

	config := *h.oauthConfig
	config.RedirectURL = h.oauthRedirectURL(r)
	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to exchange OAuth code", "Error exchanging OAuth code", err)
		return
	}

	identity, err := h.googleIdentity(ctx, token, nonce)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to verify Google account", "Error verifying Google account", err)
		return
	}

	session, _, err := h.authService.OAuthLogin(r.Context(), service.ProviderGoogle, identity.Subject, identity.Email, identity.Name)
	if err != nil {
		respondServiceError(w, "Error completing OAuth login", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, h.baseURL(r)+"/", http.StatusSeeOther)
}

// googleIdentity prefers the signed id_token; the userinfo endpoint is used
// when the token response carries none
func (h *AuthHandler) googleIdentity(ctx context.Context, token *oauth2.Token, nonce string) (security.Identity, error) {
	if idToken, _ := token.Extra("id_token").(string); idToken != "" && h.verifier != nil {
		return h.verifier.Verify(ctx, idToken, nonce)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return security.Identity{}, fmt.Errorf("failed to fetch Google user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return security.Identity{}, fmt.Errorf("failed to fetch Google user info: status %d", resp.StatusCode)
	}

	var payload struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return security.Identity{}, fmt.Errorf("failed to parse Google user info: %w", err)
	}
	if payload.Subject == "" || payload.Email == "" || !payload.EmailVerified {
		return security.Identity{}, errors.New("Google account has no verified email")
	}

	return security.Identity{Subject: payload.Subject, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) baseURL(r *http.Request) string {
	baseURL := strings.TrimSpace(h.oauthBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return strings.TrimRight(baseURL, "/")
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request) string {
	return h.baseURL(r) + "/auth/google/callback"
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *AuthHandler) clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   security.IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
