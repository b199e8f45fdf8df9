package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rfm-segments/internal/cli"
	"github.com/Veraticus/rfm-segments/internal/common"
	"github.com/Veraticus/rfm-segments/internal/config"
	"github.com/Veraticus/rfm-segments/internal/service"
	"github.com/Veraticus/rfm-segments/internal/sheets"
)

// newExporter builds the Sheets exporter; tests swap it for a mock.
var newExporter = func(ctx context.Context) (service.SnapshotExporter, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, common.NewUserError("Google Sheets is not configured. Set sheets.* in your config file or the GOOGLE_SHEETS_* environment variables.", err)
	}
	return sheets.NewWriter(ctx, *cfg, slog.Default())
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a saved analysis to Google Sheets",
		Long: `Write the KPIs, segment breakdown and customer list of a saved analysis
to a Google Sheets spreadsheet. Use "latest" for the most recent analysis.

Authentication uses either a service account file or an OAuth2 refresh token:
  sheets.service_account_path / GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH
  sheets.client_id, sheets.client_secret, sheets.refresh_token`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().String("title", "", "Title written above the export (default: file name and date)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")

	ctx := cmd.Context()
	store, profile, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	a, err := resolveAnalysis(ctx, store, profile.ID, args[0])
	if err != nil {
		return err
	}
	if title == "" {
		title = fmt.Sprintf("RFM Segments: %s (%s)", a.FileName, a.AnalysisDate.Local().Format(time.DateOnly))
	}

	exporter, err := newExporter(ctx)
	if err != nil {
		return err
	}

	slog.Info("Exporting analysis", "id", a.ID, "customers", a.Snapshot.Len())
	if err := exporter.WriteSnapshot(ctx, title, a.Snapshot); err != nil {
		common.LogError(err, "Export failed", common.Fields{"id": a.ID})
		return fmt.Errorf("failed to export analysis: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Exported "+a.ID+" to Google Sheets"))
	return nil
}
