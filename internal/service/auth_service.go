package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"palabras/internal/models"
	"palabras/internal/repository"
	"palabras/internal/security"
	"palabras/internal/validation"
)

// ProviderGoogle names Google sign-in in the users table
const ProviderGoogle = "google"

// IDTokenVerifier validates bearer ID tokens from the identity provider
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken, nonce string) (security.Identity, error)
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo        *repository.UserRepository
	verifier        IDTokenVerifier
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service. verifier may be nil when
// bearer ID tokens are not accepted.
func NewAuthService(userRepo *repository.UserRepository, verifier IDTokenVerifier, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		verifier:        verifier,
		sessionDuration: sessionDuration,
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.newSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// AuthenticateIDToken resolves a bearer ID token to a user, creating the
// account on first sight
func (s *AuthService) AuthenticateIDToken(ctx context.Context, idToken string) (*models.User, error) {
	if s.verifier == nil {
		return nil, ErrSessionNotFound
	}
	identity, err := s.verifier.Verify(ctx, idToken, "")
	if err != nil {
		return nil, err
	}
	return s.resolveOAuthUser(ctx, ProviderGoogle, identity.Subject, identity.Email, identity.Name)
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.userRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return removed, nil
}

// OAuthLogin authenticates or creates a user using an OAuth provider
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*models.Session, *models.User, error) {
	user, err := s.resolveOAuthUser(ctx, provider, subject, email, name)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.newSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) resolveOAuthUser(ctx context.Context, provider, subject, email, name string) (*models.User, error) {
	if provider == "" || subject == "" {
		return nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		if existingUser.OAuthProvider != "" && existingUser.OAuthProvider != provider {
			return nil, ErrEmailTaken
		}
		if err := s.userRepo.LinkOAuthProvider(ctx, existingUser.ID, provider, subject); err != nil {
			if errors.Is(err, repository.ErrOAuthAlreadyLinked) {
				return nil, ErrEmailTaken
			}
			return nil, fmt.Errorf("failed to link oauth provider: %w", err)
		}
		return existingUser, nil
	}

	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	user, err = s.userRepo.CreateOAuthUser(ctx, email, name, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}
	return user, nil
}

func (s *AuthService) newSession(ctx context.Context, userID int64) (*models.Session, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	session, err := s.userRepo.CreateSession(ctx, sessionID, userID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}
