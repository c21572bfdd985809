package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/observability"
	"github.com/jonathan/occupation-matcher/internal/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <term>",
	Short: "Resolve a free-text term to concepts",
	Long:  "Runs the exact, synonym, contains and relevance tiers for a term and prints the candidate concepts.",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

var resolveType string

func init() {
	resolveCmd.Flags().StringVarP(&resolveType, "type", "t", "", "Concept type to resolve against (default all)")
	rootCmd.AddCommand(resolveCmd)
}

// withApp runs fn with a fully wired app and closes it afterwards
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx, appConfig, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.close(closeCtx)
	}()
	return fn(a)
}

func runResolve(cmd *cobra.Command, args []string) error {
	conceptType, err := parseConceptType(resolveType)
	if err != nil {
		return err
	}

	return withApp(cmd.Context(), func(a *app) error {
		var result *types.ResolveResult
		if conceptType == "" {
			result, err = a.resolver.Resolve(cmd.Context(), args[0])
		} else {
			result, err = a.resolver.ResolveType(cmd.Context(), args[0], conceptType)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", args[0], err)
		}

		if pretty {
			observability.NewPrinter(cmd.OutOrStdout()).PrintResolveResult(result)
			return nil
		}
		return writeJSON(cmd.OutOrStdout(), result)
	})
}
