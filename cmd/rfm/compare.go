package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rfm-segments/internal/cli"
	"github.com/Veraticus/rfm-segments/internal/snapshot"
)

func compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare CURRENT PREVIOUS",
		Short: "Compare two saved analyses",
		Long: `Show the headline numbers of CURRENT with the percentage change from PREVIOUS.
Either id may be "latest".`,
		Example: "  rfm compare latest 3f2c9a6e-...",
		Args:    cobra.ExactArgs(2),
		RunE:    runCompare,
	}
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, profile, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	current, err := resolveAnalysis(ctx, store, profile.ID, args[0])
	if err != nil {
		return err
	}
	previous, err := resolveAnalysis(ctx, store, profile.ID, args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s (%s) vs %s (%s)",
		current.FileName, current.AnalysisDate.Local().Format(time.DateOnly),
		previous.FileName, previous.AnalysisDate.Local().Format(time.DateOnly))))
	fmt.Fprintln(out, cli.RenderKPIs(snapshot.Compare(current.Snapshot, previous.Snapshot), ""))
	return nil
}
