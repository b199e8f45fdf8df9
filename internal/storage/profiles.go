package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/rfm-segments/internal/common"
	"github.com/Veraticus/rfm-segments/internal/model"
)

type profileRow struct {
	CreatedAt time.Time `db:"created_at"`
	Username  string    `db:"username"`
	Settings  string    `db:"settings"`
	ID        int64     `db:"id"`
}

func (r profileRow) toModel() (*model.Profile, error) {
	var settings model.SegmentSettings
	if err := json.Unmarshal([]byte(r.Settings), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings for %q: %w", r.Username, err)
	}
	return &model.Profile{
		CreatedAt: r.CreatedAt,
		Username:  r.Username,
		Settings:  settings.WithDefaults(),
		ID:        r.ID,
	}, nil
}

// GetProfile returns the profile for username, or common.ErrNotFound.
func (s *SQLiteStorage) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(username, "username"); err != nil {
		return nil, err
	}

	var row profileRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, settings, created_at
		FROM profiles
		WHERE username = ?
	`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %q: %w", username, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", classifyError(err))
	}
	return row.toModel()
}

// EnsureProfile returns the profile for username, creating it with the
// default settings on first use.
func (s *SQLiteStorage) EnsureProfile(ctx context.Context, username string) (*model.Profile, error) {
	profile, err := s.GetProfile(ctx, username)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	settings, err := json.Marshal(model.DefaultSegmentSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to encode default settings: %w", err)
	}

	err = common.WithRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO profiles (username, settings, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT(username) DO NOTHING
		`, username, string(settings), time.Now().UTC())
		return classifyError(execErr)
	}, s.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	slog.Debug("Created profile", "username", username)
	return s.GetProfile(ctx, username)
}

// GetSettings returns the stored thresholds of a profile.
func (s *SQLiteStorage) GetSettings(ctx context.Context, userID int64) (model.SegmentSettings, error) {
	if err := validateContext(ctx); err != nil {
		return model.SegmentSettings{}, err
	}
	if err := validateUserID(userID); err != nil {
		return model.SegmentSettings{}, err
	}

	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT settings FROM profiles WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SegmentSettings{}, fmt.Errorf("profile %d: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return model.SegmentSettings{}, fmt.Errorf("failed to get settings: %w", classifyError(err))
	}

	var settings model.SegmentSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return model.SegmentSettings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings.WithDefaults(), nil
}

// SaveSettings replaces the thresholds of a profile after validating them.
func (s *SQLiteStorage) SaveSettings(ctx context.Context, userID int64, settings model.SegmentSettings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	var affected int64
	err = common.WithRetry(ctx, func() error {
		result, execErr := s.db.ExecContext(ctx, `UPDATE profiles SET settings = ? WHERE id = ?`, string(data), userID)
		if execErr != nil {
			return classifyError(execErr)
		}
		affected, execErr = result.RowsAffected()
		return execErr
	}, s.retry)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %d: %w", userID, common.ErrNotFound)
	}

	slog.Debug("Saved settings", "user_id", userID,
		"champion_recency", settings.ChampionRecency,
		"champion_frequency", settings.ChampionFrequency,
		"at_risk_recency", settings.AtRiskRecency)
	return nil
}
