// Package testutil provides shared helpers for tests that need a database.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/Veraticus/rfm-segments/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	// Create in-memory SQLite storage
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustProfile returns the profile for username, creating it if needed, or
// fails the test.
func (db *TestDB) MustProfile(username string) *model.Profile {
	db.t.Helper()
	profile, err := db.Storage.EnsureProfile(context.Background(), username)
	if err != nil {
		db.t.Fatalf("failed to ensure profile %q: %v", username, err)
	}
	return profile
}

// MustSaveAnalysis stores snap for the user or fails the test.
func (db *TestDB) MustSaveAnalysis(userID int64, fileName string, snap *model.Snapshot) *model.Analysis {
	db.t.Helper()
	a := &model.Analysis{
		Snapshot: snap,
		FileName: fileName,
		UserID:   userID,
	}
	if err := db.Storage.SaveAnalysis(context.Background(), a); err != nil {
		db.t.Fatalf("failed to save analysis %q: %v", fileName, err)
	}
	return a
}
