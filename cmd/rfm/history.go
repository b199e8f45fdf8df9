package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rfm-segments/internal/cli"
	"github.com/Veraticus/rfm-segments/internal/snapshot"
	"github.com/Veraticus/rfm-segments/internal/storage"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved analyses",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyClearCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your most recent analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			ctx := cmd.Context()
			store, profile, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summaries, err := store.ListAnalyses(ctx, profile.ID, limit)
			if err != nil {
				return fmt.Errorf("failed to list analyses: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Analysis history for "+profile.Username))
			fmt.Fprintln(out, cli.RenderHistory(summaries))
			return nil
		},
	}

	cmd.Flags().Int("limit", storage.DefaultHistoryLimit, "Maximum number of analyses to list")

	return cmd
}

func historyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved analysis",
		Long:  `Show a saved analysis. Use "latest" for the most recent one.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segmentFlag, _ := cmd.Flags().GetString("segment")
			filter, err := drillFilterFromFlags(cmd)
			if err != nil {
				return err
			}

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

			name, err := drillSegment(segmentFlag, a.Snapshot)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s (%s)", a.FileName, a.AnalysisDate.Local().Format(time.DateTime))))
			fmt.Fprintln(out, cli.RenderKPIs(snapshot.Compare(a.Snapshot, nil), ""))
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderSegments(a.Snapshot))
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderDrill(name, snapshot.Drill(a.Snapshot, name, filter)))
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderInsights(snapshot.Insights(a.Snapshot)))
			return nil
		},
	}

	addDrillFlags(cmd)

	return cmd
}

func historyClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all of your saved analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			ctx := cmd.Context()
			store, profile, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if !yes {
				prompter := cli.NewPrompter(cmd.InOrStdin(), out)
				ok, err := prompter.Confirm(ctx, "Delete all saved analyses for "+profile.Username+"?")
				if err != nil {
					if errors.Is(err, cli.ErrInputCancelled) {
						return nil
					}
					return err
				}
				if !ok {
					fmt.Fprintln(out, cli.FormatInfo("History left unchanged."))
					return nil
				}
			}

			removed, err := store.ClearHistory(ctx, profile.ID)
			if err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}

			slog.Info("Cleared analysis history", "user", profile.Username, "removed", removed)
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Removed %d saved analyses", removed)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	return cmd
}
