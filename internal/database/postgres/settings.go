package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/patrikzak/attendo/internal/config"
	"github.com/patrikzak/attendo/internal/database"
)

const (
	settingWorkStart      = "work_start_time"
	settingWorkEnd        = "work_end_time"
	settingLateThreshold  = "late_threshold"
	settingEarlyThreshold = "early_threshold"
	settingRecogThreshold = "recognition_threshold"
)

// seedSettings inserts the default policy values, keeping existing rows.
func (s *Store) seedSettings(ctx context.Context, defaults config.PolicyDefaults) error {
	seed := map[string]string{
		settingWorkStart:      defaults.WorkStart,
		settingWorkEnd:        defaults.WorkEnd,
		settingLateThreshold:  strconv.Itoa(defaults.LateToleranceMinutes),
		settingEarlyThreshold: strconv.Itoa(defaults.EarlyToleranceMinutes),
		settingRecogThreshold: strconv.FormatFloat(defaults.RecognitionThreshold, 'f', -1, 64),
	}

	for key, value := range seed {
		query := "INSERT INTO settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING"
		if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}

// LoadSettings returns the stored attendance policy.
func (s *Store) LoadSettings(ctx context.Context) (*database.Settings, error) {
	rows, err := s.pool.Query(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	settings := &database.Settings{
		WorkStartTime: values[settingWorkStart],
		WorkEndTime:   values[settingWorkEnd],
	}
	if settings.LateThreshold, err = strconv.Atoi(values[settingLateThreshold]); err != nil {
		return nil, fmt.Errorf("invalid late threshold %q: %w", values[settingLateThreshold], err)
	}
	if settings.EarlyThreshold, err = strconv.Atoi(values[settingEarlyThreshold]); err != nil {
		return nil, fmt.Errorf("invalid early threshold %q: %w", values[settingEarlyThreshold], err)
	}
	if settings.RecognitionThreshold, err = strconv.ParseFloat(values[settingRecogThreshold], 64); err != nil {
		return nil, fmt.Errorf("invalid recognition threshold %q: %w", values[settingRecogThreshold], err)
	}
	return settings, nil
}

// SaveSettings applies a partial policy update, last write wins.
func (s *Store) SaveSettings(ctx context.Context, upd database.SettingsUpdate) error {
	values := make(map[string]string)
	if upd.WorkStartTime != nil {
		values[settingWorkStart] = *upd.WorkStartTime
	}
	if upd.WorkEndTime != nil {
		values[settingWorkEnd] = *upd.WorkEndTime
	}
	if upd.LateThreshold != nil {
		values[settingLateThreshold] = strconv.Itoa(*upd.LateThreshold)
	}
	if upd.EarlyThreshold != nil {
		values[settingEarlyThreshold] = strconv.Itoa(*upd.EarlyThreshold)
	}
	if upd.RecognitionThreshold != nil {
		values[settingRecogThreshold] = strconv.FormatFloat(*upd.RecognitionThreshold, 'f', -1, 64)
	}

	for key, value := range values {
		query := `
			INSERT INTO settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		`
		if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}
	return nil
}

// Verify interface compliance
var _ database.Store = (*Store)(nil)
