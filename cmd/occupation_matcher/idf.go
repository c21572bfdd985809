package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/observability"
	"github.com/jonathan/occupation-matcher/internal/pipeline"
	"github.com/jonathan/occupation-matcher/internal/skills"
	"github.com/jonathan/occupation-matcher/internal/types"
)

var idfCmd = &cobra.Command{
	Use:   "idf",
	Short: "Compute and inspect IDF weights",
}

var idfComputeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute IDF weights from the requirement index",
	Long:  "Builds the requirement index, computes one IDF weight per required concept and stores the snapshot. With --dry-run nothing is stored.",
	RunE:  runIdfCompute,
}

var idfExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored IDF snapshot as JSON",
	RunE:  runIdfExport,
}

var idfImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Validate and store an IDF snapshot JSON file",
	RunE:  runIdfImport,
}

var idfStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize an IDF snapshot",
	Long:  "Prints totals, the most unique and most universal concepts, and per-category averages for the stored snapshot or a snapshot file.",
	RunE:  runIdfStats,
}

var (
	idfDryRun bool
	idfOutput string
	idfInput  string
	idfTop    int
)

func init() {
	idfComputeCmd.Flags().BoolVar(&idfDryRun, "dry-run", false, "Compute without storing the snapshot")
	idfComputeCmd.Flags().StringVarP(&idfOutput, "out", "o", "", "Also write the snapshot to this JSON file")

	idfExportCmd.Flags().StringVarP(&idfOutput, "out", "o", "", "Path to output IdfSnapshot JSON file (default stdout)")

	idfImportCmd.Flags().StringVarP(&idfInput, "in", "i", "", "Path to input IdfSnapshot JSON file (required)")
	if err := idfImportCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	idfStatsCmd.Flags().StringVarP(&idfInput, "in", "i", "", "Summarize this IdfSnapshot JSON file instead of the stored snapshot")
	idfStatsCmd.Flags().IntVar(&idfTop, "top", 10, "Number of most unique and most universal concepts")

	idfCmd.AddCommand(idfComputeCmd, idfExportCmd, idfImportCmd, idfStatsCmd)
	rootCmd.AddCommand(idfCmd)
}

func runIdfCompute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client := newSPARQLClient(appConfig, logger)
	idx := newIndex(client, appConfig, logger, componentMetrics{})
	opts := pipeline.Options{
		ConceptTypes: appConfig.ConceptTypesForIDF(),
		OnProgress: func(event pipeline.ProgressEvent) {
			logger.Info(event.Message, "step", event.Step)
		},
	}

	var snapshot *types.IdfSnapshot
	if idfDryRun {
		refresher := pipeline.NewRefresher(idx, client, nil, nil, opts, logger, nil)
		computed, err := refresher.Compute(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute idf: %w", err)
		}
		snapshot = computed
	} else {
		database, err := openDB(ctx, appConfig)
		if err != nil {
			return err
		}
		defer database.Close()

		refresher := pipeline.NewRefresher(idx, client, database, nil, opts, logger, nil)
		computed, err := refresher.Compute(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute idf: %w", err)
		}
		if err := refresher.Publish(ctx, computed); err != nil {
			return err
		}
		snapshot = computed
	}

	if idfOutput != "" {
		if err := skills.ExportFile(idfOutput, snapshot); err != nil {
			return err
		}
	}
	return printIdfSummary(cmd, skills.Summarize(snapshot, idfTop))
}

func runIdfExport(cmd *cobra.Command, _ []string) error {
	snapshot, err := loadStoredSnapshot(cmd)
	if err != nil {
		return err
	}
	if idfOutput == "" {
		return skills.Export(cmd.OutOrStdout(), snapshot)
	}
	if err := skills.ExportFile(idfOutput, snapshot); err != nil {
		return err
	}
	logger.Info("idf snapshot exported", "path", idfOutput, "weights", len(snapshot.Weights))
	return nil
}

func runIdfImport(cmd *cobra.Command, _ []string) error {
	snapshot, err := skills.ImportFile(idfInput)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := openDB(ctx, appConfig)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.ReplaceIdfSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to store idf snapshot: %w", err)
	}
	logger.Info("idf snapshot imported", "version", snapshot.Version, "weights", len(snapshot.Weights))
	return nil
}

func runIdfStats(cmd *cobra.Command, _ []string) error {
	var snapshot *types.IdfSnapshot
	var err error
	if idfInput != "" {
		snapshot, err = skills.ImportFile(idfInput)
	} else {
		snapshot, err = loadStoredSnapshot(cmd)
	}
	if err != nil {
		return err
	}
	return printIdfSummary(cmd, skills.Summarize(snapshot, idfTop))
}

func loadStoredSnapshot(cmd *cobra.Command) (*types.IdfSnapshot, error) {
	ctx := cmd.Context()
	database, err := openDB(ctx, appConfig)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	snapshot, err := database.LoadIdfSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load idf snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("no idf snapshot stored; run idf compute first")
	}
	return snapshot, nil
}

func printIdfSummary(cmd *cobra.Command, summary skills.Summary) error {
	if pretty {
		observability.NewPrinter(cmd.OutOrStdout()).PrintIdfSummary(summary)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), summary)
}
