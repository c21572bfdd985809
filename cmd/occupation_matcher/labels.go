package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/types"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Inspect the concept label cache",
}

var labelsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count cached labels per concept type",
	RunE:  runLabelsStats,
}

var labelsStatsTypes []string

func init() {
	labelsStatsCmd.Flags().StringSliceVar(&labelsStatsTypes, "type", nil, "Only these concept types (default all)")

	labelsCmd.AddCommand(labelsStatsCmd)
	rootCmd.AddCommand(labelsCmd)
}

func parseConceptTypes(names []string) ([]types.ConceptType, error) {
	out := make([]types.ConceptType, 0, len(names))
	for _, name := range names {
		ct, err := types.ParseConceptType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, nil
}

func runLabelsStats(cmd *cobra.Command, _ []string) error {
	only, err := parseConceptTypes(labelsStatsTypes)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := openDB(ctx, appConfig)
	if err != nil {
		return err
	}
	defer database.Close()

	counts, err := database.CountLabels(ctx)
	if err != nil {
		return fmt.Errorf("failed to count labels: %w", err)
	}
	if len(only) > 0 {
		filtered := counts[:0]
		for _, c := range counts {
			for _, ct := range only {
				if c.ConceptType == ct {
					filtered = append(filtered, c)
				}
			}
		}
		counts = filtered
	}
	if len(counts) == 0 {
		logger.Warn("label cache is empty for the requested types")
	}
	return writeJSON(cmd.OutOrStdout(), counts)
}
