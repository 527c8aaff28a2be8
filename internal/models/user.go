package models

import "time"

// User represents a learner or tutor account
type User struct {
	ID             int64      `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Name           string     `json:"name" db:"name"`
	OAuthProvider  string     `json:"oauthProvider,omitempty" db:"oauth_provider"`
	OAuthSubject   string     `json:"-" db:"oauth_subject"`
	IsAdmin        bool       `json:"isAdmin" db:"is_admin"`
	IsPremium      bool       `json:"isPremium" db:"is_premium"`
	PremiumUntil   *time.Time `json:"premiumUntil,omitempty" db:"premium_until"`
	LastRemindedOn string     `json:"-" db:"last_reminded_on"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// HasPremium reports whether premium features are active at the given time.
// A nil PremiumUntil on a premium user means the subscription has no end date.
func (u *User) HasPremium(now time.Time) bool {
	if u == nil || !u.IsPremium {
		return false
	}
	if u.PremiumUntil == nil {
		return true
	}
	return now.Before(*u.PremiumUntil)
}

// Session represents an authenticated session
type Session struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
