package service

import (
	"context"
	"fmt"
	"log"

	"palabras/internal/models"
	"palabras/internal/repository"
	"palabras/internal/usage"
)

// AdminService covers account listing and runtime quota changes
type AdminService struct {
	userRepo     *repository.UserRepository
	settingsRepo *repository.SettingsRepository
	governor     *usage.Governor
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo *repository.UserRepository, settingsRepo *repository.SettingsRepository, governor *usage.Governor) *AdminService {
	return &AdminService{userRepo: userRepo, settingsRepo: settingsRepo, governor: governor}
}

// LoadQuotaOverrides applies stored quota settings to the governor
func (s *AdminService) LoadQuotaOverrides(ctx context.Context) error {
	overrides, err := s.settingsRepo.QuotaOverrides(ctx)
	if err != nil {
		return err
	}
	for key, quota := range overrides {
		if err := s.governor.SetQuota(key, quota); err != nil {
			log.Printf("Warning: ignoring stored quota %s=%d: %v", key, quota, err)
		}
	}
	return nil
}

// Quotas returns the active quota table
func (s *AdminService) Quotas() map[models.FeatureKey]int {
	return s.governor.Quotas()
}

// SetQuota changes a quota at runtime and persists it
func (s *AdminService) SetQuota(ctx context.Context, key models.FeatureKey, quota int) error {
	if err := s.governor.SetQuota(key, quota); err != nil {
		return err
	}
	if err := s.settingsRepo.SetQuotaOverride(ctx, key, quota); err != nil {
		return fmt.Errorf("failed to persist quota: %w", err)
	}
	log.Printf("Quota for %s set to %d", key, quota)
	return nil
}

// Users lists every account
func (s *AdminService) Users(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAllUsers(ctx)
}

// DeleteUser removes an account and, through cascades, its word bank
func (s *AdminService) DeleteUser(ctx context.Context, userID int64) error {
	return s.userRepo.DeleteUser(ctx, userID)
}
