package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/observability"
	"github.com/jonathan/occupation-matcher/internal/types"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <prefix>",
	Short: "Autocomplete concept labels",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

var (
	suggestType  string
	suggestLimit int
)

func init() {
	suggestCmd.Flags().StringVarP(&suggestType, "type", "t", "", "Concept type (default all)")
	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "l", 10, "Maximum number of suggestions")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	conceptType, err := parseConceptType(suggestType)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app) error {
		suggestions, err := a.resolver.Suggest(cmd.Context(), args[0], conceptType, suggestLimit)
		if err != nil {
			return fmt.Errorf("failed to suggest labels for %q: %w", args[0], err)
		}
		if suggestions == nil {
			suggestions = []types.LabelSuggestion{}
		}
		if pretty {
			observability.NewPrinter(cmd.OutOrStdout()).PrintSuggestions(suggestions)
			return nil
		}
		return writeJSON(cmd.OutOrStdout(), suggestions)
	})
}
