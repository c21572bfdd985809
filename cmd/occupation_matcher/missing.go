package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/observability"
	"github.com/jonathan/occupation-matcher/internal/types"
)

var missingCmd = &cobra.Command{
	Use:   "missing",
	Short: "List frequently searched terms without a match",
	Long:  "Aggregates unresolved searches from the search log by frequency for vocabulary review.",
	RunE:  runMissing,
}

var missingLimit int

func init() {
	missingCmd.Flags().IntVarP(&missingLimit, "limit", "l", 50, "Maximum number of terms")
	rootCmd.AddCommand(missingCmd)
}

func runMissing(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		terms, err := a.resolver.MissingTerms(cmd.Context(), missingLimit)
		if err != nil {
			return fmt.Errorf("failed to list missing terms: %w", err)
		}
		if terms == nil {
			terms = []types.MissingTerm{}
		}
		if pretty {
			observability.NewPrinter(cmd.OutOrStdout()).PrintMissingTerms(terms)
			return nil
		}
		return writeJSON(cmd.OutOrStdout(), terms)
	})
}
