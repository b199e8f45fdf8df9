package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rfm-segments/internal/cli"
	"github.com/Veraticus/rfm-segments/internal/common"
	"github.com/Veraticus/rfm-segments/internal/model"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View or change your segmentation thresholds",
		Long: `Segmentation thresholds decide which segment a customer lands in.
Rules are checked in order and the first match wins:

  Champions        days since last visit ≤ champion recency and visits ≥ champion frequency
  Loyal Customers  days since last visit < at-risk recency and at least 2 visits
  At-Risk          days since last visit > at-risk recency and at least 2 visits
  New Customers    exactly one visit
  Hibernating      everyone else`,
	}

	cmd.AddCommand(settingsShowCmd())
	cmd.AddCommand(settingsSetCmd())
	cmd.AddCommand(settingsResetCmd())

	return cmd
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, profile, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			settings, err := store.GetSettings(ctx, profile.ID)
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Settings for "+profile.Username))
			fmt.Fprintln(out, cli.RenderSettings(settings))
			return nil
		},
	}
}

func settingsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more thresholds",
		Example: `  rfm settings set --champion-recency 14
  rfm settings set --champion-frequency 8 --at-risk-recency 60`,
		Args: cobra.NoArgs,
		RunE: runSettingsSet,
	}

	cmd.Flags().Int("champion-recency", model.DefaultChampionRecency, "Maximum days since last visit for Champions")
	cmd.Flags().Int("champion-frequency", model.DefaultChampionFrequency, "Minimum visits for Champions")
	cmd.Flags().Int("at-risk-recency", model.DefaultAtRiskRecency, "Days without a visit before a customer is At-Risk")

	return cmd
}

func runSettingsSet(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if !flags.Changed("champion-recency") && !flags.Changed("champion-frequency") && !flags.Changed("at-risk-recency") {
		return errors.New("nothing to change: pass --champion-recency, --champion-frequency or --at-risk-recency")
	}

	ctx := cmd.Context()
	store, profile, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	settings, err := store.GetSettings(ctx, profile.ID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Only overwrite what the user passed
	if flags.Changed("champion-recency") {
		settings.ChampionRecency, _ = flags.GetInt("champion-recency")
	}
	if flags.Changed("champion-frequency") {
		settings.ChampionFrequency, _ = flags.GetInt("champion-frequency")
	}
	if flags.Changed("at-risk-recency") {
		settings.AtRiskRecency, _ = flags.GetInt("at-risk-recency")
	}

	if err := settings.Validate(); err != nil {
		return common.NewUserError("Thresholds must be positive whole numbers of days or visits.", err)
	}
	if err := store.SaveSettings(ctx, profile.ID, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	slog.Debug("Updated settings", "user", profile.Username, "settings", settings)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess("Settings updated"))
	fmt.Fprintln(out, cli.RenderSettings(settings))
	return nil
}

func settingsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, profile, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			settings := model.DefaultSegmentSettings()
			if err := store.SaveSettings(ctx, profile.ID, settings); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Settings reset to defaults"))
			fmt.Fprintln(out, cli.RenderSettings(settings))
			return nil
		},
	}
}
