package handlers

import (
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"palabras/internal/models"
	"palabras/internal/security"
	"palabras/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService  *service.AuthService
	signer       *security.TokenSigner
	verifier     service.IDTokenVerifier
	oauthConfig  *oauth2.Config
	oauthBaseURL string
}

// NewAuthHandler creates a new auth handler. oauthConfig may be nil when
// Google sign-in is not configured.
func NewAuthHandler(authService *service.AuthService, signer *security.TokenSigner, verifier service.IDTokenVerifier, oauthConfig *oauth2.Config, oauthBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		signer:       signer,
		verifier:     verifier,
		oauthConfig:  oauthConfig,
		oauthBaseURL: oauthBaseURL,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	CSRFToken string       `json:"csrfToken"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Register creates an account and signs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		respondServiceError(w, "Error registering user", err)
		return
	}

	session, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, "Error signing in new user", err)
		return
	}
	h.startSession(w, r, http.StatusCreated, session, user)
}

// Login handles email/password sign-in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, "Error logging in", err)
		return
	}
	h.startSession(w, r, http.StatusOK, session, user)
}

// Logout ends the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, _ := security.SessionFromRequest(r); sessionID != "" && !looksLikeJWT(sessionID) {
		if err := h.authService.Logout(r.Context(), sessionID); err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error logging out", err)
			return
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user and, for cookie sessions, a fresh CSRF token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	resp := map[string]interface{}{"user": user}
	if sessionID, fromCookie := security.SessionFromRequest(r); fromCookie {
		if token, err := h.signer.Token(security.PurposeCSRF, sessionID); err == nil {
			resp["csrfToken"] = token
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, session *models.Session, user *models.User) {
	csrfToken, err := h.signer.Token(security.PurposeCSRF, session.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error issuing CSRF token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, status, sessionResponse{
		User:      user,
		Token:     session.ID,
		CSRFToken: csrfToken,
		ExpiresAt: session.ExpiresAt,
	})
}
