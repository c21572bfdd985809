package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/matching"
	"github.com/jonathan/occupation-matcher/internal/observability"
	"github.com/jonathan/occupation-matcher/internal/parsing"
	"github.com/jonathan/occupation-matcher/internal/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank occupations for a skill profile",
	Long:  "Resolves the profile's skills, knowledge and tasks to concepts and ranks occupations by shared, IDF-weighted requirements. The profile is read from a JSON file or given with repeated flags.",
	RunE:  runMatch,
}

var (
	matchProfile   string
	matchSkills    []string
	matchKnowledge []string
	matchTasks     []string
	matchLimit     int
	matchMinScore  float64
	matchNoGaps    bool
	matchNoMatched bool
	matchOutput    string
)

func init() {
	matchCmd.Flags().StringVarP(&matchProfile, "profile", "p", "", "Path to a profile JSON file")
	matchCmd.Flags().StringArrayVar(&matchSkills, "skill", nil, "Skill entry (repeatable)")
	matchCmd.Flags().StringArrayVar(&matchKnowledge, "knowledge", nil, "Knowledge entry (repeatable)")
	matchCmd.Flags().StringArrayVar(&matchTasks, "task", nil, "Task entry (repeatable)")
	matchCmd.Flags().IntVarP(&matchLimit, "limit", "l", 0, "Maximum number of matches (default from config)")
	matchCmd.Flags().Float64Var(&matchMinScore, "min-score", -1, "Minimum score in [0,1] (default from config)")
	matchCmd.Flags().BoolVar(&matchNoGaps, "no-gaps", false, "Omit missing terms and requirement gaps")
	matchCmd.Flags().BoolVar(&matchNoMatched, "no-matched", false, "Omit matched terms")
	matchCmd.Flags().StringVarP(&matchOutput, "out", "o", "", "Path to output MatchResponse JSON file (default stdout)")

	rootCmd.AddCommand(matchCmd)
}

// buildProfile combines the profile file with entries given as flags
func buildProfile() (*types.MatchProfile, error) {
	profile := &types.MatchProfile{}
	if matchProfile != "" {
		loaded, err := parsing.LoadProfile(matchProfile)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		profile = loaded
	}
	profile.Skills = append(profile.Skills, matchSkills...)
	profile.Knowledge = append(profile.Knowledge, matchKnowledge...)
	profile.Tasks = append(profile.Tasks, matchTasks...)
	return profile, nil
}

// matchOptions resolves the ranking options from flags and config
func matchOptions() types.MatchOptions {
	opts := types.MatchOptions{
		Limit:          appConfig.DefaultLimit,
		MinScore:       appConfig.DefaultMinScore,
		IncludeGaps:    !matchNoGaps,
		IncludeMatched: !matchNoMatched,
	}
	if matchLimit > 0 {
		opts.Limit = matchLimit
	}
	if matchMinScore >= 0 {
		opts.MinScore = matchMinScore
	}
	return opts
}

func runMatch(cmd *cobra.Command, _ []string) error {
	profile, err := buildProfile()
	if err != nil {
		return err
	}

	var resp *types.MatchResponse
	err = withApp(cmd.Context(), func(a *app) error {
		var matchErr error
		resp, matchErr = a.engine.MatchProfile(cmd.Context(), profile, matchOptions())
		return matchErr
	})
	if err != nil {
		return reportMatchFailure(cmd.OutOrStdout(), err)
	}

	if pretty && matchOutput == "" {
		observability.NewPrinter(cmd.OutOrStdout()).PrintMatchResponse(resp)
		return nil
	}
	if err := writeOutput(cmd.OutOrStdout(), matchOutput, resp); err != nil {
		return err
	}
	if matchOutput != "" {
		logger.Info("match written", "path", matchOutput, "matches", len(resp.Matches))
	}
	return nil
}

// reportMatchFailure writes the failed-call document for infrastructure
// faults and returns the error for the exit status. Input errors are only
// returned.
func reportMatchFailure(w io.Writer, err error) error {
	if matching.IsInputError(err) {
		return err
	}
	resp := matching.ErrorResponse(err)
	if writeErr := writeOutput(w, matchOutput, resp); writeErr != nil {
		logger.Warn("failed to write error response", "error", writeErr)
	}
	if resp.Retryable {
		return fmt.Errorf("failed to match profile (retryable): %w", err)
	}
	return fmt.Errorf("failed to match profile: %w", err)
}
