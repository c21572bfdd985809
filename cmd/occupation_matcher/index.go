package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/observability"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the requirement index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Build the requirement index and print its size",
	RunE:  runIndexStats,
}

func init() {
	indexCmd.AddCommand(indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	client := newSPARQLClient(appConfig, logger)
	idx := newIndex(client, appConfig, logger, componentMetrics{})

	snap, err := idx.EnsureReady(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to build requirement index: %w", err)
	}
	stats := snap.Stats()
	if pretty {
		observability.NewPrinter(cmd.OutOrStdout()).PrintIndexStats(stats)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), stats)
}
