package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"palabras/internal/credentials"
	"palabras/internal/models"
	"palabras/internal/repository"
	"palabras/internal/validation"
)

// InviteTTL is how long a tutor invite code stays valid
const InviteTTL = 72 * time.Hour

const maxInviteCodeAttempts = 5

// TutorMailer delivers invite codes to prospective tutors
type TutorMailer interface {
	SendTutorInvite(ctx context.Context, toEmail, studentName, code string, expiresAt time.Time) error
}

// TutorService manages the tutoring relationship between accounts
type TutorService struct {
	tutorRepo *repository.TutorRepository
	mailer    TutorMailer
}

// NewTutorService creates a tutor service. mailer may be nil.
func NewTutorService(tutorRepo *repository.TutorRepository, mailer TutorMailer) *TutorService {
	return &TutorService{tutorRepo: tutorRepo, mailer: mailer}
}

// CreateInvite issues a one-time code that lets a tutor manage the
// student's word bank. When tutorEmail is set the code is also emailed.
func (s *TutorService) CreateInvite(ctx context.Context, student *models.User, tutorEmail string) (*models.TutorInvite, error) {
	if tutorEmail != "" {
		if err := validation.ValidateEmail(tutorEmail); err != nil {
			return nil, err
		}
	}

	var invite *models.TutorInvite
	for attempt := 0; attempt < maxInviteCodeAttempts && invite == nil; attempt++ {
		code, err := credentials.GenerateInviteCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate invite code: %w", err)
		}
		existing, err := s.tutorRepo.GetInviteByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		invite, err = s.tutorRepo.CreateInvite(ctx, code, student.ID, time.Now().Add(InviteTTL))
		if err != nil {
			return nil, err
		}
	}
	if invite == nil {
		return nil, errors.New("failed to allocate a unique invite code")
	}
	invite.StudentName = student.Name

	if tutorEmail != "" && s.mailer != nil {
		if err := s.mailer.SendTutorInvite(ctx, tutorEmail, student.Name, invite.Code, invite.ExpiresAt); err != nil {
			log.Printf("Warning: failed to email tutor invite %s: %v", invite.Code, err)
		}
	}
	return invite, nil
}

// Accept links tutor to the student who issued code
func (s *TutorService) Accept(ctx context.Context, tutor *models.User, code string) (*models.TutorLink, error) {
	code = credentials.NormalizeInviteCode(code)
	invite, err := s.tutorRepo.GetInviteByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if invite == nil || !invite.IsValid() {
		return nil, ErrInviteInvalid
	}
	if invite.StudentID == tutor.ID {
		return nil, ErrSelfTutoring
	}

	link, err := s.tutorRepo.AcceptInvite(ctx, code, tutor.ID)
	if errors.Is(err, repository.ErrInviteUnavailable) {
		return nil, ErrInviteInvalid
	}
	return link, err
}

// Students lists the accounts tutor may manage
func (s *TutorService) Students(ctx context.Context, tutor *models.User) ([]models.TutorLink, error) {
	links, err := s.tutorRepo.ListStudents(ctx, tutor.ID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []models.TutorLink{}
	}
	return links, nil
}

// RemoveStudent ends a tutoring relationship
func (s *TutorService) RemoveStudent(ctx context.Context, tutor *models.User, studentID int64) error {
	return s.tutorRepo.RemoveLink(ctx, tutor.ID, studentID)
}

// CleanupExpiredInvites deletes unused invites past their expiry
func (s *TutorService) CleanupExpiredInvites(ctx context.Context) (int64, error) {
	return s.tutorRepo.DeleteExpiredInvites(ctx)
}
