package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm the concept chosen for an ambiguous term",
	Long:  "Records the user's selection on the latest search for the term and stores the term as a synonym when it is not already a label of the concept.",
	RunE:  runConfirm,
}

var (
	confirmTerm  string
	confirmURI   string
	confirmLabel string
	confirmType  string
)

func init() {
	confirmCmd.Flags().StringVar(&confirmTerm, "term", "", "Searched term (required)")
	confirmCmd.Flags().StringVar(&confirmURI, "uri", "", "Selected concept URI (required)")
	confirmCmd.Flags().StringVar(&confirmLabel, "label", "", "Preferred label of the selected concept")
	confirmCmd.Flags().StringVarP(&confirmType, "type", "t", "HumanCapability", "Concept type of the selected concept")

	if err := confirmCmd.MarkFlagRequired("term"); err != nil {
		panic(fmt.Sprintf("failed to mark term flag as required: %v", err))
	}
	if err := confirmCmd.MarkFlagRequired("uri"); err != nil {
		panic(fmt.Sprintf("failed to mark uri flag as required: %v", err))
	}

	rootCmd.AddCommand(confirmCmd)
}

func runConfirm(cmd *cobra.Command, _ []string) error {
	conceptType, err := parseConceptType(confirmType)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app) error {
		result, err := a.resolver.Confirm(cmd.Context(), confirmTerm, confirmURI, confirmLabel, conceptType)
		if err != nil {
			return fmt.Errorf("failed to confirm %q: %w", confirmTerm, err)
		}
		return writeJSON(cmd.OutOrStdout(), result)
	})
}
