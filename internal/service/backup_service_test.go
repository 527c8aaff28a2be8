package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"palabras/internal/models"
	"palabras/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.createUser(t, "student@example.com")
	tutor := env.createUser(t, "tutor@example.com")
	env.lookup.results["hablar"] = verbResult("hablar", "to speak")
	item := env.addWord(t, student, "hablar")
	env.addWord(t, student, "casa")
	env.wordBank.Wait()

	if err := env.vocab.SetMastery(ctx, item.ID, 3); err != nil {
		t.Fatalf("SetMastery() error = %v", err)
	}
	invite, _ := env.tutorSvc.CreateInvite(ctx, student, "")
	if _, err := env.tutorSvc.Accept(ctx, tutor, invite.Code); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if err := env.adminSvc.SetQuota(ctx, models.FeatureWordsAdded, 9); err != nil {
		t.Fatalf("SetQuota() error = %v", err)
	}

	var buf bytes.Buffer
	if err := NewBackupService(env.db).ExportTo(ctx, &buf); err != nil {
		t.Fatalf("ExportTo() error = %v", err)
	}

	var exported BackupData
	if err := json.Unmarshal(buf.Bytes(), &exported); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if exported.Version != BackupVersion || len(exported.Users) != 2 || len(exported.Items) != 2 {
		t.Fatalf("export = %d users, %d items, version %s", len(exported.Users), len(exported.Items), exported.Version)
	}

	target := newTestDB(t)
	if err := NewBackupService(target).ImportFrom(ctx, &buf); err != nil {
		t.Fatalf("ImportFrom() error = %v", err)
	}

	vocab := repository.NewVocabularyRepository(target)
	restored, err := vocab.GetItemByID(ctx, item.ID)
	if err != nil || restored == nil {
		t.Fatalf("GetItemByID() = %v, %v", restored, err)
	}
	if restored.MasteryScore != 3 || restored.Enrichment == nil || restored.PrimaryDefinition != "to speak" {
		t.Errorf("restored item = %+v", restored)
	}

	isTutor, err := repository.NewTutorRepository(target).IsTutorOf(ctx, tutor.ID, student.ID)
	if err != nil || !isTutor {
		t.Errorf("IsTutorOf() after import = %v, %v", isTutor, err)
	}

	overrides, err := repository.NewSettingsRepository(target).QuotaOverrides(ctx)
	if err != nil || overrides[models.FeatureWordsAdded] != 9 {
		t.Errorf("QuotaOverrides() after import = %v, %v", overrides, err)
	}

	added, err := vocab.CreateItem(ctx, &models.VocabularyItem{UserID: student.ID, Term: "nuevo", Category: "General"})
	if err != nil {
		t.Fatalf("CreateItem() after import error = %v", err)
	}
	if added.ID <= item.ID {
		t.Errorf("new ID %d should follow imported IDs", added.ID)
	}
}
