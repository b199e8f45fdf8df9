package model

import (
	"errors"
	"fmt"
	"time"
)

// Default segmentation thresholds.
const (
	DefaultChampionRecency   = 30
	DefaultChampionFrequency = 5
	DefaultAtRiskRecency     = 90
)

// ErrInvalidSettings is returned when segment thresholds are out of range.
var ErrInvalidSettings = errors.New("invalid segment settings")

// SegmentSettings holds the user-configurable classification thresholds.
// It is passed by value so a run never observes a concurrent update.
type SegmentSettings struct {
	ChampionRecency   int `json:"championRecency" mapstructure:"champion_recency"`
	ChampionFrequency int `json:"championFrequency" mapstructure:"champion_frequency"`
	AtRiskRecency     int `json:"atRiskRecency" mapstructure:"at_risk_recency"`
}

// DefaultSegmentSettings returns the thresholds every new profile starts with.
func DefaultSegmentSettings() SegmentSettings {
	return SegmentSettings{
		ChampionRecency:   DefaultChampionRecency,
		ChampionFrequency: DefaultChampionFrequency,
		AtRiskRecency:     DefaultAtRiskRecency,
	}
}

// WithDefaults replaces unset (zero) thresholds with their defaults.
func (s SegmentSettings) WithDefaults() SegmentSettings {
	if s.ChampionRecency == 0 {
		s.ChampionRecency = DefaultChampionRecency
	}
	if s.ChampionFrequency == 0 {
		s.ChampionFrequency = DefaultChampionFrequency
	}
	if s.AtRiskRecency == 0 {
		s.AtRiskRecency = DefaultAtRiskRecency
	}
	return s
}

// Validate checks that all thresholds are positive.
func (s SegmentSettings) Validate() error {
	if s.ChampionRecency <= 0 {
		return fmt.Errorf("%w: champion recency must be positive, got %d", ErrInvalidSettings, s.ChampionRecency)
	}
	if s.ChampionFrequency <= 0 {
		return fmt.Errorf("%w: champion frequency must be positive, got %d", ErrInvalidSettings, s.ChampionFrequency)
	}
	if s.AtRiskRecency <= 0 {
		return fmt.Errorf("%w: at-risk recency must be positive, got %d", ErrInvalidSettings, s.AtRiskRecency)
	}
	return nil
}

// Profile is the stored owner of settings and analysis history.
type Profile struct {
	CreatedAt time.Time
	Username  string
	Settings  SegmentSettings
	ID        int64
}
