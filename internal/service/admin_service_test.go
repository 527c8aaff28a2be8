package service

import (
	"context"
	"errors"
	"testing"

	"palabras/internal/models"
	"palabras/internal/usage"
)

func TestAdminQuotas(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.adminSvc.SetQuota(ctx, models.FeatureAIRequests, 12); err != nil {
		t.Fatalf("SetQuota() error = %v", err)
	}
	if got := env.adminSvc.Quotas()[models.FeatureAIRequests]; got != 12 {
		t.Errorf("Quotas()[aiRequests] = %d, want 12", got)
	}
	if err := env.adminSvc.SetQuota(ctx, "unknownKey", 1); !errors.Is(err, usage.ErrUnknownFeature) {
		t.Errorf("SetQuota(unknown) error = %v, want ErrUnknownFeature", err)
	}

	// A fresh governor picks the stored value up on startup
	fresh := usage.NewGovernor(nil, usage.DefaultQuotas, nil)
	admin := NewAdminService(env.users, env.settings, fresh)
	if err := admin.LoadQuotaOverrides(ctx); err != nil {
		t.Fatalf("LoadQuotaOverrides() error = %v", err)
	}
	if got, _ := fresh.Quota(models.FeatureAIRequests); got != 12 {
		t.Errorf("reloaded quota = %d, want 12", got)
	}
}

func TestAdminDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ana@example.com")
	item := env.addWord(t, user, "adiós")
	env.wordBank.Wait()

	if err := env.adminSvc.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	users, _ := env.adminSvc.Users(ctx)
	if len(users) != 0 {
		t.Errorf("Users() = %v, want none", users)
	}
	if got, _ := env.vocab.GetItemByID(ctx, item.ID); got != nil {
		t.Error("word bank should be deleted with the user")
	}
}
