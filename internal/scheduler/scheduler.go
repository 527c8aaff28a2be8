package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

const (
	taskTimeout        = 2 * time.Minute
	enrichmentStateAge = 24 * time.Hour
)

// SessionCleaner removes expired login sessions
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// InviteCleaner removes expired tutor invites
type InviteCleaner interface {
	CleanupExpiredInvites(ctx context.Context) (int64, error)
}

// EnrichmentPruner drops settled enrichment states older than age
type EnrichmentPruner interface {
	PruneEnrichmentStates(age time.Duration) int
}

// VisitorCleaner forgets idle rate-limit buckets
type VisitorCleaner interface {
	Cleanup() int
}

// Reminder sends streak-at-risk emails
type Reminder interface {
	SendStreakReminders(ctx context.Context) (int, error)
}

// Jobs are the collaborators the scheduler drives. Nil members are skipped.
type Jobs struct {
	Sessions   SessionCleaner
	Invites    InviteCleaner
	Enrichment EnrichmentPruner
	Visitors   VisitorCleaner
	Reminders  Reminder
}

// Scheduler runs periodic maintenance and the daily streak reminder
type Scheduler struct {
	scheduler    *gocron.Scheduler
	jobs         Jobs
	reminderHour int
}

// New creates a scheduler whose daily jobs run in loc
func New(jobs Jobs, loc *time.Location, reminderHour int) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:    s,
		jobs:         jobs,
		reminderHour: reminderHour,
	}
}

// Start registers every job and begins running them in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Tag("maintenance").Do(s.RunMaintenance); err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	if s.jobs.Reminders != nil {
		at := fmt.Sprintf("%02d:00", s.reminderHour)
		if _, err := s.scheduler.Every(1).Day().At(at).Tag("reminders").Do(s.RunReminders); err != nil {
			return fmt.Errorf("failed to schedule reminders at %s: %w", at, err)
		}
	}

	s.scheduler.StartAsync()
	log.Printf("Scheduler started with %d jobs", len(s.scheduler.Jobs()))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunMaintenance performs one pass of every cleanup job
func (s *Scheduler) RunMaintenance() {
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	if s.jobs.Sessions != nil {
		if n, err := s.jobs.Sessions.CleanupExpiredSessions(ctx); err != nil {
			log.Printf("Error cleaning up sessions: %v", err)
		} else if n > 0 {
			log.Printf("Removed %d expired sessions", n)
		}
	}

	if s.jobs.Invites != nil {
		if n, err := s.jobs.Invites.CleanupExpiredInvites(ctx); err != nil {
			log.Printf("Error cleaning up tutor invites: %v", err)
		} else if n > 0 {
			log.Printf("Removed %d expired tutor invites", n)
		}
	}

	if s.jobs.Enrichment != nil {
		if n := s.jobs.Enrichment.PruneEnrichmentStates(enrichmentStateAge); n > 0 {
			log.Printf("Pruned %d enrichment states", n)
		}
	}

	if s.jobs.Visitors != nil {
		s.jobs.Visitors.Cleanup()
	}
}

// RunReminders sends the daily streak reminders
func (s *Scheduler) RunReminders() {
	if s.jobs.Reminders == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	sent, err := s.jobs.Reminders.SendStreakReminders(ctx)
	if err != nil {
		log.Printf("Error sending streak reminders: %v", err)
	}
	log.Printf("Sent %d streak reminders", sent)
}
