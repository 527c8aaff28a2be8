package service

import (
	"context"
	"log"
	"time"

	"palabras/internal/gamification"
	"palabras/internal/repository"
)

// StreakMailer delivers streak reminder emails
type StreakMailer interface {
	SendStreakReminder(ctx context.Context, toEmail, toName string, streakDays int) error
}

// ReminderService emails learners whose streak will break tonight
type ReminderService struct {
	userRepo  *repository.UserRepository
	vocabRepo *repository.VocabularyRepository
	mailer    StreakMailer
	loc       *time.Location
	now       func() time.Time
}

// NewReminderService creates a reminder service
func NewReminderService(userRepo *repository.UserRepository, vocabRepo *repository.VocabularyRepository, mailer StreakMailer, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{
		userRepo:  userRepo,
		vocabRepo: vocabRepo,
		mailer:    mailer,
		loc:       loc,
		now:       time.Now,
	}
}

// SendStreakReminders emails every user with a live streak and no activity
// today, at most once per day. It returns the number of emails sent.
func (s *ReminderService) SendStreakReminders(ctx context.Context) (int, error) {
	now := s.now()
	today := now.In(s.loc).Format("2006-01-02")

	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		if user.LastRemindedOn == today {
			continue
		}

		stamps, err := s.vocabRepo.ItemTimestamps(ctx, user.ID)
		if err != nil {
			return sent, err
		}
		if gamification.ActiveOn(stamps, now, s.loc) {
			continue
		}
		streak := gamification.Streak(stamps, now, s.loc)
		if streak == 0 {
			continue
		}

		if err := s.mailer.SendStreakReminder(ctx, user.Email, user.Name, streak); err != nil {
			log.Printf("Warning: streak reminder to user %d failed: %v", user.ID, err)
			continue
		}
		if err := s.userRepo.MarkReminded(ctx, user.ID, today); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
