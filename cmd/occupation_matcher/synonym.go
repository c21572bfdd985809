package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/types"
)

var synonymCmd = &cobra.Command{
	Use:   "synonym",
	Short: "Manage curated synonyms",
}

var synonymAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a curated synonym",
	RunE:  runSynonymAdd,
}

var synonymListCmd = &cobra.Command{
	Use:   "list",
	Short: "List curated synonyms",
	RunE:  runSynonymList,
}

var (
	synonymText       string
	synonymURI        string
	synonymLabel      string
	synonymType       string
	synonymConfidence float64
)

func init() {
	synonymAddCmd.Flags().StringVar(&synonymText, "synonym", "", "Synonym text (required)")
	synonymAddCmd.Flags().StringVar(&synonymURI, "uri", "", "Concept URI (required)")
	synonymAddCmd.Flags().StringVar(&synonymLabel, "label", "", "Preferred label of the concept")
	synonymAddCmd.Flags().StringVarP(&synonymType, "type", "t", "HumanCapability", "Concept type")
	synonymAddCmd.Flags().Float64Var(&synonymConfidence, "confidence", 0, "Confidence in (0,1] (default manual confidence)")

	if err := synonymAddCmd.MarkFlagRequired("synonym"); err != nil {
		panic(fmt.Sprintf("failed to mark synonym flag as required: %v", err))
	}
	if err := synonymAddCmd.MarkFlagRequired("uri"); err != nil {
		panic(fmt.Sprintf("failed to mark uri flag as required: %v", err))
	}

	synonymListCmd.Flags().StringVar(&synonymURI, "uri", "", "Only synonyms of this concept")

	synonymCmd.AddCommand(synonymAddCmd, synonymListCmd)
	rootCmd.AddCommand(synonymCmd)
}

func runSynonymAdd(cmd *cobra.Command, _ []string) error {
	conceptType, err := parseConceptType(synonymType)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app) error {
		err := a.resolver.AddSynonym(cmd.Context(), types.Synonym{
			Synonym:     synonymText,
			ConceptURI:  synonymURI,
			ConceptType: conceptType,
			PrefLabel:   synonymLabel,
			Confidence:  synonymConfidence,
			AddedBy:     types.AddedByManual,
		})
		if err != nil {
			return fmt.Errorf("failed to add synonym %q: %w", synonymText, err)
		}
		logger.Info("synonym stored", "synonym", synonymText, "uri", synonymURI)
		return nil
	})
}

func runSynonymList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	database, err := openDB(ctx, appConfig)
	if err != nil {
		return err
	}
	defer database.Close()

	synonyms, err := database.ListSynonyms(ctx, synonymURI)
	if err != nil {
		return fmt.Errorf("failed to list synonyms: %w", err)
	}
	if synonyms == nil {
		synonyms = []types.Synonym{}
	}
	return writeJSON(cmd.OutOrStdout(), synonyms)
}
