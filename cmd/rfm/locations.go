package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rfm-segments/internal/analysis"
	"github.com/Veraticus/rfm-segments/internal/cli"
	"github.com/Veraticus/rfm-segments/internal/columns"
	"github.com/Veraticus/rfm-segments/internal/common"
)

func locationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations FILE",
		Short: "List the locations found in a CSV transaction log",
		Long: `List the distinct values of the location column (branch, store, region, ...)
so one of them can be passed to 'rfm analyze --location'.`,
		Args: cobra.ExactArgs(1),
		RunE: runLocations,
	}
}

func runLocations(cmd *cobra.Command, args []string) error {
	input, _, err := openInput(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer func() { _ = input.Close() }()

	locations, columnMap, err := analysis.Locations(input)
	if err != nil {
		var mappingErr *columns.MappingError
		if errors.As(err, &mappingErr) {
			return common.NewUserError(mappingErr.Reason, err)
		}
		return fmt.Errorf("failed to read locations: %w", err)
	}

	out := cmd.OutOrStdout()
	if !columnMap.HasLocation() {
		fmt.Fprintln(out, cli.FormatWarning("No location column found; the whole file is analyzed as one location."))
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Locations (%s column %q)", columnMap.Location.Type, columnMap.Location.Name)))
	if len(locations) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("The location column is empty."))
		return nil
	}
	for _, loc := range locations {
		fmt.Fprintf(out, "  %s\n", loc)
	}
	return nil
}
