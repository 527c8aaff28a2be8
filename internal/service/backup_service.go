package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"palabras/internal/database"
)

// BackupVersion is written into every export
const BackupVersion = "2.0"

// BackupData represents the complete database backup structure
type BackupData struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Users      []UserBackup      `json:"users"`
	Items      []ItemBackup      `json:"vocabulary_items"`
	TutorLinks []TutorLinkBackup `json:"tutor_links"`
	Settings   []SettingBackup   `json:"settings"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64      `json:"id" db:"id"`
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"password_hash" db:"password_hash"`
	Name          string     `json:"name" db:"name"`
	OAuthProvider string     `json:"oauth_provider" db:"oauth_provider"`
	OAuthSubject  string     `json:"oauth_subject" db:"oauth_subject"`
	IsAdmin       bool       `json:"is_admin" db:"is_admin"`
	IsPremium     bool       `json:"is_premium" db:"is_premium"`
	PremiumUntil  *time.Time `json:"premium_until" db:"premium_until"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// ItemBackup represents a word bank entry for backup. Enrichment is kept as
// the stored JSON document.
type ItemBackup struct {
	ID                int64           `json:"id" db:"id"`
	UserID            int64           `json:"user_id" db:"user_id"`
	Term              string          `json:"term" db:"term"`
	Category          string          `json:"category" db:"category"`
	PrimaryDefinition string          `json:"primary_definition" db:"primary_definition"`
	PartOfSpeech      string          `json:"part_of_speech" db:"part_of_speech"`
	MasteryScore      int             `json:"mastery_score" db:"mastery_score"`
	Enrichment        sql.NullString  `json:"-" db:"enrichment"`
	EnrichmentJSON    json.RawMessage `json:"enrichment,omitempty" db:"-"`
	Version           int64           `json:"version" db:"version"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// TutorLinkBackup represents a tutor/student link
type TutorLinkBackup struct {
	TutorID   int64     `json:"tutor_id" db:"tutor_id"`
	StudentID int64     `json:"student_id" db:"student_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SettingBackup represents a runtime setting
type SettingBackup struct {
	Key   string `json:"key" db:"setting_key"`
	Value string `json:"value" db:"setting_value"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a complete backup of the database to outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportTo(ctx, file); err != nil {
		return err
	}
	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportTo writes a complete backup as indented JSON
func (s *BackupService) ExportTo(ctx context.Context, w io.Writer) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
	}

	queries := []struct {
		name  string
		dest  interface{}
		query string
	}{
		{"users", &backup.Users, `SELECT id, email, password_hash, name,
			COALESCE(oauth_provider, '') AS oauth_provider, COALESCE(oauth_subject, '') AS oauth_subject,
			is_admin, is_premium, premium_until, created_at, updated_at FROM users ORDER BY id`},
		{"vocabulary items", &backup.Items, `SELECT id, user_id, term, category, primary_definition,
			part_of_speech, mastery_score, enrichment, version, created_at, updated_at
			FROM vocabulary_items ORDER BY id`},
		{"tutor links", &backup.TutorLinks, "SELECT tutor_id, student_id, created_at FROM tutor_links ORDER BY tutor_id, student_id"},
		{"settings", &backup.Settings, "SELECT setting_key, setting_value FROM settings ORDER BY setting_key"},
	}
	for _, q := range queries {
		if err := s.db.SelectContext(ctx, q.dest, q.query); err != nil {
			return fmt.Errorf("failed to export %s: %w", q.name, err)
		}
	}

	for i := range backup.Items {
		if backup.Items[i].Enrichment.Valid && backup.Items[i].Enrichment.String != "" {
			backup.Items[i].EnrichmentJSON = json.RawMessage(backup.Items[i].Enrichment.String)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d users, %d items, %d tutor links, %d settings",
		len(backup.Users), len(backup.Items), len(backup.TutorLinks), len(backup.Settings))
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFrom(ctx, file)
}

// ImportFrom restores a backup into an empty database in one transaction
func (s *BackupService) ImportFrom(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	err := s.db.WithTx(ctx, func(tx database.DBTX) error {
		for _, u := range backup.Users {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject,
					is_admin, is_premium, premium_until, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				u.ID, u.Email, u.PasswordHash, u.Name, nullIfEmpty(u.OAuthProvider), nullIfEmpty(u.OAuthSubject),
				u.IsAdmin, u.IsPremium, u.PremiumUntil, u.CreatedAt, u.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to import user %d: %w", u.ID, err)
			}
		}

		for _, item := range backup.Items {
			var enrichment interface{}
			if len(item.EnrichmentJSON) > 0 && string(item.EnrichmentJSON) != "null" {
				enrichment = string(item.EnrichmentJSON)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO vocabulary_items (id, user_id, term, category, primary_definition,
					part_of_speech, mastery_score, enrichment, version, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, item.UserID, item.Term, item.Category, item.PrimaryDefinition,
				item.PartOfSpeech, item.MasteryScore, enrichment, item.Version, item.CreatedAt, item.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to import item %d: %w", item.ID, err)
			}
		}

		for _, link := range backup.TutorLinks {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO tutor_links (tutor_id, student_id, created_at) VALUES (?, ?, ?)",
				link.TutorID, link.StudentID, link.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to import tutor link %d->%d: %w", link.TutorID, link.StudentID, err)
			}
		}

		upsert := tx.GetDialect().Upsert("settings", []string{"setting_key"}, []string{"setting_value"})
		for _, setting := range backup.Settings {
			if _, err := tx.ExecContext(ctx, upsert, setting.Key, setting.Value); err != nil {
				return fmt.Errorf("failed to import setting %s: %w", setting.Key, err)
			}
		}

		return resetSequences(ctx, tx, "users", "vocabulary_items")
	})
	if err != nil {
		return err
	}

	log.Printf("Database import completed: %d users, %d items", len(backup.Users), len(backup.Items))
	return nil
}

// resetSequences moves postgres serial sequences past imported explicit IDs
func resetSequences(ctx context.Context, tx database.DBTX, tables ...string) error {
	if tx.GetDialect().MigrationsSubdir() != "postgres" {
		return nil
	}
	for _, table := range tables {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)",
			table, table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
