package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"palabras/internal/models"
	"palabras/internal/repository"
	"palabras/internal/security"
)

// Payment event types
const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionRenewed   = "subscription.renewed"
	EventSubscriptionCanceled  = "subscription.canceled"
)

// ErrMalformedEvent is returned for webhook bodies that cannot be applied
var ErrMalformedEvent = errors.New("malformed payment event")

// paymentNamespace scopes derived event IDs for payloads without one
var paymentNamespace = uuid.MustParse("6f1c3c1e-8d0a-4c55-9a57-0b8a0c4a1d2e")

// PaymentEvent is the webhook body sent by the payment gateway
type PaymentEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		UserID    int64      `json:"userId"`
		Email     string     `json:"email"`
		PeriodEnd *time.Time `json:"periodEnd"`
	} `json:"data"`
}

// BillingService applies signed payment gateway events to premium state
type BillingService struct {
	userRepo        *repository.UserRepository
	paymentRepo     *repository.PaymentRepository
	verifier        *security.WebhookVerifier
	premiumDuration time.Duration
	now             func() time.Time
}

// NewBillingService creates a billing service
func NewBillingService(userRepo *repository.UserRepository, paymentRepo *repository.PaymentRepository, verifier *security.WebhookVerifier, premiumDuration time.Duration) *BillingService {
	return &BillingService{
		userRepo:        userRepo,
		paymentRepo:     paymentRepo,
		verifier:        verifier,
		premiumDuration: premiumDuration,
		now:             time.Now,
	}
}

// HandleWebhook verifies and applies one event. Replayed events are
// acknowledged without being applied twice. It reports whether the event
// changed any account.
func (s *BillingService) HandleWebhook(ctx context.Context, signature string, body []byte) (bool, error) {
	if err := s.verifier.Verify(signature, body); err != nil {
		return false, err
	}

	var event PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if event.ID == "" {
		event.ID = uuid.NewSHA1(paymentNamespace, body).String()
	}

	seen, err := s.paymentRepo.SeenEvent(ctx, event.ID)
	if err != nil {
		return false, err
	}
	if seen {
		log.Printf("Payment event %s already processed", event.ID)
		return false, nil
	}

	user, err := s.resolveUser(ctx, &event)
	if err != nil {
		return false, err
	}

	applied := true
	switch event.Type {
	case EventSubscriptionActivated, EventSubscriptionRenewed:
		until := s.now().Add(s.premiumDuration)
		if event.Data.PeriodEnd != nil {
			until = *event.Data.PeriodEnd
		}
		err = s.userRepo.SetPremium(ctx, user.ID, true, &until)
	case EventSubscriptionCanceled:
		err = s.userRepo.SetPremium(ctx, user.ID, false, nil)
	default:
		log.Printf("Warning: ignoring payment event %s of type %q", event.ID, event.Type)
		applied = false
	}
	if err != nil {
		return false, fmt.Errorf("failed to update premium state: %w", err)
	}

	if err := s.paymentRepo.RecordEvent(ctx, event.ID, user.ID, event.Type); err != nil {
		return applied, err
	}
	return applied, nil
}

func (s *BillingService) resolveUser(ctx context.Context, event *PaymentEvent) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case event.Data.UserID != 0:
		user, err = s.userRepo.GetUserByID(ctx, event.Data.UserID)
	case event.Data.Email != "":
		user, err = s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(event.Data.Email)))
	default:
		return nil, fmt.Errorf("%w: no user reference", ErrMalformedEvent)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnknownUser
	}
	return user, nil
}
