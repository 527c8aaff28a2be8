package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"palabras/internal/database"
	"palabras/internal/models"
)

// ErrOAuthAlreadyLinked is returned when the account already has a provider
var ErrOAuthAlreadyLinked = errors.New("oauth provider already linked")

const userColumns = `id, email, password_hash, name,
	COALESCE(oauth_provider, '') AS oauth_provider,
	COALESCE(oauth_subject, '') AS oauth_subject,
	is_admin, is_premium, premium_until, last_reminded_on, created_at, updated_at`

// UserRepository handles database operations for users and sessions
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user. The first account becomes admin.
func (r *UserRepository) CreateUser(ctx context.Context, email, passwordHash, name string) (*models.User, error) {
	return r.insertUser(ctx, email, passwordHash, name, "", "")
}

// CreateOAuthUser inserts a user authenticated by an external provider
func (r *UserRepository) CreateOAuthUser(ctx context.Context, email, name, provider, subject string) (*models.User, error) {
	return r.insertUser(ctx, email, "", name, provider, subject)
}

func (r *UserRepository) insertUser(ctx context.Context, email, passwordHash, name, provider, subject string) (*models.User, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx database.DBTX) error {
		var userCount int
		if err := tx.GetContext(ctx, &userCount, "SELECT COUNT(*) FROM users"); err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}

		var oauthProvider, oauthSubject interface{}
		if provider != "" {
			oauthProvider, oauthSubject = provider, subject
		}

		query := `
			INSERT INTO users (email, password_hash, name, oauth_provider, oauth_subject, is_admin)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		var err error
		id, err = tx.ExecReturningID(ctx, query, email, passwordHash, name, oauthProvider, oauthSubject, userCount == 0)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetUserByID(ctx, id)
}

func (r *UserRepository) getUser(ctx context.Context, where string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, "SELECT "+userColumns+" FROM users WHERE "+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "email = ?", email)
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

// GetUserByOAuth retrieves a user by OAuth provider and subject
func (r *UserRepository) GetUserByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	return r.getUser(ctx, "oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

// GetAllUsers retrieves all users
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	query := "SELECT " + userColumns + " FROM users ORDER BY id"
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// UpdateUser updates a user's profile fields
func (r *UserRepository) UpdateUser(ctx context.Context, id int64, email, name string, isAdmin bool) error {
	query := `
		UPDATE users
		SET email = ?, name = ?, is_admin = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.ExecContext(ctx, query, email, name, isAdmin, id); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser deletes a user and, through cascades, all associated data
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// LinkOAuthProvider links an existing user to an OAuth provider
func (r *UserRepository) LinkOAuthProvider(ctx context.Context, userID int64, provider, subject string) error {
	query := `
		UPDATE users
		SET oauth_provider = ?, oauth_subject = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.ExecContext(ctx, query, provider, subject, userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return ErrOAuthAlreadyLinked
	}
	return nil
}

// SetPremium records the user's subscription state. A nil until means no end date.
func (r *UserRepository) SetPremium(ctx context.Context, userID int64, isPremium bool, until *time.Time) error {
	query := `
		UPDATE users
		SET is_premium = ?, premium_until = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	var untilArg interface{}
	if until != nil {
		untilArg = until.UTC()
	}
	if _, err := r.db.ExecContext(ctx, query, isPremium, untilArg, userID); err != nil {
		return fmt.Errorf("failed to update premium state: %w", err)
	}
	return nil
}

// MarkReminded records the local date a streak reminder was sent
func (r *UserRepository) MarkReminded(ctx context.Context, userID int64, date string) error {
	query := "UPDATE users SET last_reminded_on = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, date, userID); err != nil {
		return fmt.Errorf("failed to record reminder: %w", err)
	}
	return nil
}

// CreateSession creates a new session for a user
func (r *UserRepository) CreateSession(ctx context.Context, sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, expires_at)
		VALUES (?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, userID, expiresAt.UTC()); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetSession retrieves a session by ID
func (r *UserRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	query := "SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?"
	err := r.db.GetContext(ctx, session, query, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session from the database
func (r *UserRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and reports how many
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
