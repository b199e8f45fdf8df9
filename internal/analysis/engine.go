// Package analysis turns an uploaded transaction log into a segmented
// customer snapshot.
package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/Veraticus/rfm-segments/internal/columns"
	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/Veraticus/rfm-segments/internal/normalize"
	"github.com/Veraticus/rfm-segments/internal/rfm"
	"github.com/Veraticus/rfm-segments/internal/segment"
)

// Options controls a single analysis run.
type Options struct {
	// ProgressFunc is called as the run moves through its stages.
	ProgressFunc func(stage string, percent int)
	// Location keeps only rows whose location column equals this value.
	// It is ignored when empty or when no location column was detected.
	Location string
}

// Run reads a CSV transaction log and classifies every customer in it.
// The settings are captured once; unset thresholds fall back to defaults.
// A missing required column fails the whole run with no partial result.
func Run(ctx context.Context, r io.Reader, settings model.SegmentSettings, opts Options) (*model.Result, error) {
	progress := opts.ProgressFunc
	if progress == nil {
		progress = func(string, int) {} // no-op
	}

	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	progress("Reading transactions", 10)
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}

	progress("Detecting columns", 30)
	columnMap, err := columns.Detect(t.Headers)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis canceled: %w", err)
	}

	progress("Normalizing rows", 50)
	txns, stats := normalizeRows(t.Rows, columnMap, opts.Location)

	progress("Computing RFM", 70)
	agg := rfm.Aggregate(txns)

	progress("Segmenting customers", 90)
	snap := segment.Classify(agg.Records, settings)

	slog.Debug("Analysis complete",
		"rows", stats.Read,
		"accepted", stats.Accepted,
		"filtered_out", stats.FilteredOut,
		"missing_customer", stats.MissingCustomer,
		"bad_date", stats.BadDate,
		"bad_amount", stats.BadAmount,
		"customers", len(agg.Records),
	)
	progress("Done", 100)

	return &model.Result{
		Anchor:    agg.Anchor,
		Snapshot:  snap,
		ColumnMap: columnMap,
		Stats:     stats,
	}, nil
}

func normalizeRows(rows []map[string]string, m model.ColumnMap, location string) ([]model.Transaction, model.RowStats) {
	var stats model.RowStats
	txns := make([]model.Transaction, 0, len(rows))

	filter := location != "" && m.HasLocation()
	for _, raw := range rows {
		stats.Read++
		if filter && raw[m.Location.Name] != location {
			stats.FilteredOut++
			continue
		}

		txn, reason := normalize.Row(raw, m)
		normalize.Tally(&stats, reason)
		if reason == normalize.SkipNone {
			txns = append(txns, txn)
		}
	}
	return txns, stats
}

// Locations lists the distinct non-empty values of the detected location
// column, sorted. The list is empty when the upload has no location column.
func Locations(r io.Reader) ([]string, model.ColumnMap, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, model.ColumnMap{}, err
	}

	columnMap, err := columns.Detect(t.Headers)
	if err != nil {
		return nil, model.ColumnMap{}, err
	}
	if !columnMap.HasLocation() {
		return []string{}, columnMap, nil
	}

	seen := make(map[string]struct{})
	locations := []string{}
	for _, row := range t.Rows {
		loc := row[columnMap.Location.Name]
		if loc == "" {
			continue
		}
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	return locations, columnMap, nil
}
