// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/rfm-segments/internal/model"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Profile operations
	GetProfile(ctx context.Context, username string) (*model.Profile, error)
	EnsureProfile(ctx context.Context, username string) (*model.Profile, error)
	GetSettings(ctx context.Context, userID int64) (model.SegmentSettings, error)
	SaveSettings(ctx context.Context, userID int64, settings model.SegmentSettings) error

	// Analysis history operations
	SaveAnalysis(ctx context.Context, analysis *model.Analysis) error
	ListAnalyses(ctx context.Context, userID int64, limit int) ([]model.AnalysisSummary, error)
	GetAnalysis(ctx context.Context, userID int64, id string) (*model.Analysis, error)
	ClearHistory(ctx context.Context, userID int64) (int64, error)

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

// SnapshotExporter publishes an analysis snapshot to an external destination.
type SnapshotExporter interface {
	WriteSnapshot(ctx context.Context, title string, snap *model.Snapshot) error
}
