package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"palabras/internal/database"
	"palabras/internal/models"
)

const quotaSettingPrefix = "quota."

type SettingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting retrieves a setting value by key; found is false when unset
func (r *SettingsRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT setting_value FROM settings WHERE setting_key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting updates or inserts a setting
func (r *SettingsRepository) SetSetting(ctx context.Context, key, value string) error {
	query := r.db.Dialect.Upsert("settings", []string{"setting_key"}, []string{"setting_key", "setting_value"})
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// QuotaOverrides returns the quota values stored as "quota.<feature>" settings
func (r *SettingsRepository) QuotaOverrides(ctx context.Context) (map[models.FeatureKey]int, error) {
	var rows []struct {
		Key   string `db:"setting_key"`
		Value string `db:"setting_value"`
	}
	query := "SELECT setting_key, setting_value FROM settings WHERE setting_key LIKE ?"
	if err := r.db.SelectContext(ctx, &rows, query, quotaSettingPrefix+"%"); err != nil {
		return nil, fmt.Errorf("failed to load quota overrides: %w", err)
	}

	overrides := make(map[models.FeatureKey]int, len(rows))
	for _, row := range rows {
		n, err := strconv.Atoi(row.Value)
		if err != nil {
			log.Printf("Warning: ignoring non-numeric quota setting %s=%q", row.Key, row.Value)
			continue
		}
		overrides[models.FeatureKey(strings.TrimPrefix(row.Key, quotaSettingPrefix))] = n
	}
	return overrides, nil
}

// SetQuotaOverride stores a quota value for a feature
func (r *SettingsRepository) SetQuotaOverride(ctx context.Context, key models.FeatureKey, quota int) error {
	return r.SetSetting(ctx, quotaSettingPrefix+string(key), strconv.Itoa(quota))
}
