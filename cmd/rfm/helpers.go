package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/rfm-segments/internal/common"
	"github.com/Veraticus/rfm-segments/internal/config"
	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/Veraticus/rfm-segments/internal/service"
	"github.com/Veraticus/rfm-segments/internal/storage"
)

// databasePath returns the configured database path with ~ and variables expanded.
func databasePath() string {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}
	return config.ExpandPath(dbPath)
}

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(databasePath())
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// currentProfile returns the profile of the configured user, creating it on
// first use.
func currentProfile(ctx context.Context, store service.Storage) (*model.Profile, error) {
	username := viper.GetString("user")
	if username == "" {
		username = "admin"
	}
	profile, err := store.EnsureProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %q: %w", username, err)
	}
	return profile, nil
}

// openSession opens storage and loads the current profile. The caller must
// close the returned storage.
func openSession(ctx context.Context) (service.Storage, *model.Profile, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	profile, err := currentProfile(ctx, store)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, profile, nil
}

// loadAnalysis fetches a stored analysis and turns a missing one into a
// user-facing error.
func loadAnalysis(ctx context.Context, store service.Storage, userID int64, id string) (*model.Analysis, error) {
	a, err := store.GetAnalysis(ctx, userID, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUserError(fmt.Sprintf("No saved analysis with id %q. Use 'rfm history list' to see saved analyses.", id), err)
	}
	return a, err
}

// latestAnalysis returns the newest stored analysis of the user.
func latestAnalysis(ctx context.Context, store service.Storage, userID int64) (*model.Analysis, error) {
	summaries, err := store.ListAnalyses(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, common.NewUserError("No saved analyses yet. Run 'rfm analyze --save' first.", common.ErrNotFound)
	}
	return loadAnalysis(ctx, store, userID, summaries[0].ID)
}

// resolveAnalysis accepts an analysis id or "latest".
func resolveAnalysis(ctx context.Context, store service.Storage, userID int64, ref string) (*model.Analysis, error) {
	if ref == "latest" {
		return latestAnalysis(ctx, store, userID)
	}
	return loadAnalysis(ctx, store, userID, ref)
}

// openInput opens the CSV file to analyze, or stdin for "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, int64, error) {
	if path == "-" {
		return io.NopCloser(stdin), -1, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, common.NewUserError(fmt.Sprintf("Cannot open %s", path), err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return f, info.Size(), nil
}
