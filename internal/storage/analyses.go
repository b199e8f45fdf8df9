package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/rfm-segments/internal/common"
	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/Veraticus/rfm-segments/internal/snapshot"
)

// DefaultHistoryLimit is how many analyses ListAnalyses returns when no
// limit is given.
const DefaultHistoryLimit = 10

type analysisRow struct {
	AnalysisDate time.Time `db:"analysis_date"`
	ID           string    `db:"id"`
	FileName     string    `db:"file_name"`
	Data         string    `db:"data"`
	UserID       int64     `db:"user_id"`
}

// SaveAnalysis stores a snapshot in the user's history. A missing ID is
// generated and a zero date is set to now; both are written back to a.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAnalysis(a); err != nil {
		return err
	}

	data, err := snapshot.Encode(a.Snapshot)
	if err != nil {
		return err
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AnalysisDate.IsZero() {
		a.AnalysisDate = time.Now()
	}
	a.AnalysisDate = a.AnalysisDate.UTC()

	err = common.WithRetry(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO analyses (id, user_id, file_name, analysis_date, data)
			VALUES (?, ?, ?, ?, ?)
		`, a.ID, a.UserID, a.FileName, a.AnalysisDate, string(data))
		return classifyError(execErr)
	}, s.retry)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	slog.Debug("Saved analysis",
		"id", a.ID,
		"user_id", a.UserID,
		"file_name", a.FileName,
		"customers", a.Snapshot.Len())
	return nil
}

// ListAnalyses returns the user's most recent analyses, newest first, without
// their payloads. A non-positive limit means DefaultHistoryLimit.
func (s *SQLiteStorage) ListAnalyses(ctx context.Context, userID int64, limit int) ([]model.AnalysisSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	summaries := []model.AnalysisSummary{}
	err := s.db.SelectContext(ctx, &summaries, `
		SELECT id, file_name, analysis_date
		FROM analyses
		WHERE user_id = ?
		ORDER BY analysis_date DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", classifyError(err))
	}
	return summaries, nil
}

// GetAnalysis loads one stored analysis. Analyses of other users are
// reported as common.ErrNotFound.
func (s *SQLiteStorage) GetAnalysis(ctx context.Context, userID int64, id string) (*model.Analysis, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var row analysisRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, file_name, analysis_date, data
		FROM analyses
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", classifyError(err))
	}

	snap, err := snapshot.Decode([]byte(row.Data))
	if err != nil {
		return nil, fmt.Errorf("analysis %s: %w", id, err)
	}

	return &model.Analysis{
		AnalysisDate: row.AnalysisDate,
		Snapshot:     snap,
		ID:           row.ID,
		FileName:     row.FileName,
		UserID:       row.UserID,
	}, nil
}

// ClearHistory deletes every analysis of the user and reports how many were
// removed.
func (s *SQLiteStorage) ClearHistory(ctx context.Context, userID int64) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateUserID(userID); err != nil {
		return 0, err
	}

	var deleted int64
	err := common.WithRetry(ctx, func() error {
		result, execErr := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE user_id = ?`, userID)
		if execErr != nil {
			return classifyError(execErr)
		}
		deleted, execErr = result.RowsAffected()
		return execErr
	}, s.retry)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}

	slog.Info("Cleared analysis history", "user_id", userID, "deleted", deleted)
	return deleted, nil
}
