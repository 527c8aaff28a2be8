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

// ErrInviteUnavailable is returned when an invite is unknown, used or expired
var ErrInviteUnavailable = errors.New("invite code is not valid")

// TutorRepository handles tutor invites and tutor/student links
type TutorRepository struct {
	db *database.DB
}

// NewTutorRepository creates a new tutor repository
func NewTutorRepository(db *database.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// CreateInvite stores an invite code issued by a student
func (r *TutorRepository) CreateInvite(ctx context.Context, code string, studentID int64, expiresAt time.Time) (*models.TutorInvite, error) {
	query := "INSERT INTO tutor_invites (code, student_id, expires_at) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, code, studentID, expiresAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	return &models.TutorInvite{
		ID:        id,
		Code:      code,
		StudentID: studentID,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}, nil
}

// GetInviteByCode retrieves an invite, or nil when the code is unknown
func (r *TutorRepository) GetInviteByCode(ctx context.Context, code string) (*models.TutorInvite, error) {
	query := `
		SELECT i.id, i.code, i.student_id, i.created_at, i.used_at, i.used_by, i.expires_at, u.name AS student_name
		FROM tutor_invites i
		INNER JOIN users u ON i.student_id = u.id
		WHERE i.code = ?
	`
	var invite models.TutorInvite
	err := r.db.GetContext(ctx, &invite, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return &invite, nil
}

// AcceptInvite consumes the invite and links tutorID to the student in one
// transaction
func (r *TutorRepository) AcceptInvite(ctx context.Context, code string, tutorID int64) (*models.TutorLink, error) {
	invite, err := r.GetInviteByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if invite == nil || !invite.IsValid() {
		return nil, ErrInviteUnavailable
	}

	err = r.db.WithTx(ctx, func(tx database.DBTX) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE tutor_invites SET used_at = ?, used_by = ? WHERE id = ? AND used_at IS NULL",
			time.Now().UTC(), tutorID, invite.ID)
		if err != nil {
			return fmt.Errorf("failed to mark invite used: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return ErrInviteUnavailable
		}

		var existing int
		err = tx.GetContext(ctx, &existing,
			"SELECT COUNT(*) FROM tutor_links WHERE tutor_id = ? AND student_id = ?", tutorID, invite.StudentID)
		if err != nil {
			return fmt.Errorf("failed to check tutor link: %w", err)
		}
		if existing > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO tutor_links (tutor_id, student_id) VALUES (?, ?)", tutorID, invite.StudentID)
		if err != nil {
			return fmt.Errorf("failed to link tutor: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.TutorLink{
		TutorID:     tutorID,
		StudentID:   invite.StudentID,
		StudentName: invite.StudentName,
		CreatedAt:   time.Now(),
	}, nil
}

// IsTutorOf checks whether tutorID may act on studentID's word bank
func (r *TutorRepository) IsTutorOf(ctx context.Context, tutorID, studentID int64) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM tutor_links WHERE tutor_id = ? AND student_id = ?"
	if err := r.db.GetContext(ctx, &count, query, tutorID, studentID); err != nil {
		return false, fmt.Errorf("failed to check tutor link: %w", err)
	}
	return count > 0, nil
}

// ListStudents returns the students a tutor is linked to
func (r *TutorRepository) ListStudents(ctx context.Context, tutorID int64) ([]models.TutorLink, error) {
	query := `
		SELECT l.tutor_id, l.student_id, u.name AS student_name, l.created_at
		FROM tutor_links l
		INNER JOIN users u ON l.student_id = u.id
		WHERE l.tutor_id = ?
		ORDER BY u.name
	`
	var links []models.TutorLink
	if err := r.db.SelectContext(ctx, &links, query, tutorID); err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return links, nil
}

// RemoveLink deletes a tutor/student link
func (r *TutorRepository) RemoveLink(ctx context.Context, tutorID, studentID int64) error {
	query := "DELETE FROM tutor_links WHERE tutor_id = ? AND student_id = ?"
	if _, err := r.db.ExecContext(ctx, query, tutorID, studentID); err != nil {
		return fmt.Errorf("failed to remove tutor link: %w", err)
	}
	return nil
}

// DeleteExpiredInvites removes unused invites past their expiry
func (r *TutorRepository) DeleteExpiredInvites(ctx context.Context) (int64, error) {
	query := "DELETE FROM tutor_invites WHERE used_at IS NULL AND expires_at < ?"
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invites: %w", err)
	}
	return result.RowsAffected()
}
