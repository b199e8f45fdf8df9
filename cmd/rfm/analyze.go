package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rfm-segments/internal/analysis"
	"github.com/Veraticus/rfm-segments/internal/cli"
	"github.com/Veraticus/rfm-segments/internal/columns"
	"github.com/Veraticus/rfm-segments/internal/common"
	"github.com/Veraticus/rfm-segments/internal/model"
	"github.com/Veraticus/rfm-segments/internal/snapshot"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Segment the customers of a CSV transaction log",
		Long: `Read a CSV transaction log, score every customer on Recency, Frequency
and Monetary value, and place them in segments using your profile's thresholds.

The file needs headers for a customer id, a date and an amount. Common
variants such as "Customer_ID", "InvoiceDate" or "Total Amount" are recognized.
Use "-" to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().String("location", "", "Only analyze rows from this location")
	cmd.Flags().Bool("save", false, "Save the analysis to your history")
	cmd.Flags().String("compare", "", "Compare with a saved analysis (ID or \"latest\")")
	addDrillFlags(cmd)
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	cmd.Flags().Bool("no-progress", false, "Do not show a progress bar while reading")

	return cmd
}

// analyzeOutput is the JSON document printed by analyze --json.
type analyzeOutput struct {
	Result     *model.Result           `json:"result"`
	Comparison model.Comparison        `json:"comparison"`
	SavedID    string                  `json:"savedId,omitempty"`
	Segment    model.SegmentName       `json:"segment"`
	Customers  []model.CustomerSummary `json:"customers"`
	Insights   []model.Insight         `json:"insights"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	location, _ := cmd.Flags().GetString("location")
	save, _ := cmd.Flags().GetBool("save")
	compareRef, _ := cmd.Flags().GetString("compare")
	segmentFlag, _ := cmd.Flags().GetString("segment")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	filter, err := drillFilterFromFlags(cmd)
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := handler.HandleInterrupts(cmd.Context(), save)
	defer stop()

	store, profile, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	settings, err := store.GetSettings(ctx, profile.ID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Resolve the comparison target before the run so a bad id fails fast
	var historical *model.Analysis
	if compareRef != "" {
		historical, err = resolveAnalysis(ctx, store, profile.ID, compareRef)
		if err != nil {
			return err
		}
	}

	input, size, err := openInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer func() { _ = input.Close() }()

	var reader io.Reader = input
	if !noProgress && !jsonOutput && size > 0 {
		bar := cli.NewFileProgress(cmd.ErrOrStderr(), size, "Reading "+filepath.Base(path))
		reader = io.TeeReader(input, bar)
	}

	slog.Debug("Starting analysis", "file", path, "user", profile.Username, "location", location)
	result, err := analysis.Run(ctx, reader, settings, analysis.Options{
		Location: location,
		ProgressFunc: func(stage string, percent int) {
			slog.Debug("Analysis progress", "stage", stage, "percent", percent)
		},
	})
	if err != nil {
		var mappingErr *columns.MappingError
		if errors.As(err, &mappingErr) {
			return common.NewUserError(mappingErr.Reason, err)
		}
		if handler.WasInterrupted() {
			return fmt.Errorf("analysis interrupted: %w", err)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	var savedID string
	if save {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("analysis not saved: %w", err)
		}
		record := &model.Analysis{
			UserID:       profile.ID,
			FileName:     filepath.Base(path),
			AnalysisDate: time.Now(),
			Snapshot:     result.Snapshot,
		}
		if err := store.SaveAnalysis(ctx, record); err != nil {
			return fmt.Errorf("failed to save analysis: %w", err)
		}
		savedID = record.ID
		common.LogInfo("Saved analysis", common.Fields{"id": savedID, "file": record.FileName})
	}

	var historicalSnap *model.Snapshot
	if historical != nil {
		historicalSnap = historical.Snapshot
	}
	comparison := snapshot.Compare(result.Snapshot, historicalSnap)

	name, err := drillSegment(segmentFlag, result.Snapshot)
	if err != nil {
		return err
	}
	customers := snapshot.Drill(result.Snapshot, name, filter)
	insights := snapshot.Insights(result.Snapshot)

	out := cmd.OutOrStdout()
	if jsonOutput {
		if customers == nil {
			customers = []model.CustomerSummary{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analyzeOutput{
			Result:     result,
			Comparison: comparison,
			SavedID:    savedID,
			Segment:    name,
			Customers:  customers,
			Insights:   insights,
		})
	}

	label := ""
	if location != "" && result.ColumnMap.HasLocation() {
		label = location
	}

	fmt.Fprintln(out, cli.FormatTitle("RFM analysis of "+filepath.Base(path)))
	fmt.Fprintln(out, cli.RenderStats(result.Stats))
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderKPIs(comparison, label))
	if historical != nil {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Compared with %s (%s)",
			historical.FileName, historical.AnalysisDate.Local().Format(time.DateTime))))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderSegments(result.Snapshot))
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderDrill(name, customers))
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderInsights(insights))
	if savedID != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.FormatSuccess("Saved to history as "+savedID))
	}

	return nil
}

// drillFilterFromFlags reads the customer list filter shared by analyze and history show.
func drillFilterFromFlags(cmd *cobra.Command) (snapshot.DrillFilter, error) {
	idContains, _ := cmd.Flags().GetString("filter-id")
	minVisits, _ := cmd.Flags().GetInt("min-visits")
	minSpend, _ := cmd.Flags().GetFloat64("min-spend")
	limit, _ := cmd.Flags().GetInt("limit")

	if minVisits < 0 {
		return snapshot.DrillFilter{}, fmt.Errorf("--min-visits must not be negative, got %d", minVisits)
	}
	if minSpend < 0 {
		return snapshot.DrillFilter{}, fmt.Errorf("--min-spend must not be negative, got %g", minSpend)
	}
	if limit <= 0 {
		return snapshot.DrillFilter{}, fmt.Errorf("--limit must be positive, got %d", limit)
	}

	return snapshot.DrillFilter{
		IDContains: idContains,
		MinVisits:  minVisits,
		MinSpend:   minSpend,
		Limit:      limit,
	}, nil
}

// drillSegment resolves the --segment flag, defaulting to the largest segment.
func drillSegment(flag string, s *model.Snapshot) (model.SegmentName, error) {
	if flag == "" {
		return snapshot.LargestSegment(s), nil
	}
	name, err := model.ParseSegmentName(flag)
	if err != nil {
		return "", fmt.Errorf("%w (choose one of: Champions, Loyal Customers, At-Risk, New Customers, Hibernating)", err)
	}
	return name, nil
}

// addDrillFlags registers the customer list flags.
func addDrillFlags(cmd *cobra.Command) {
	cmd.Flags().String("segment", "", "Segment to list customers for (default: largest segment)")
	cmd.Flags().String("filter-id", "", "Only list customers whose id contains this text")
	cmd.Flags().Int("min-visits", 0, "Only list customers with at least this many visits")
	cmd.Flags().Float64("min-spend", 0, "Only list customers who spent at least this much")
	cmd.Flags().Int("limit", snapshot.DefaultDrillLimit, "Maximum number of customers to list")
}
