// Package main provides the entry point for the occupation matcher CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/config"
)

var rootCmd = &cobra.Command{
	Use:               "occupation_matcher",
	Short:             "Match skill profiles to occupations",
	Long:              "Occupation matcher resolves free-text skills, knowledge and tasks to knowledge graph concepts and ranks occupations by shared, IDF-weighted requirements.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var (
	configPath string
	verbose    bool
	pretty     bool

	appConfig config.Config
	logger    = slog.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Print human-readable output instead of JSON")
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then environment variables.
func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg := config.Defaults()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded.MergeWithDefaults(config.Defaults())
	}
	cfg.ApplyEnv(nil)
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	appConfig = cfg

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
