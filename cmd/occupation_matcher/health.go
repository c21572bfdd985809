package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the database and SPARQL endpoint",
	RunE:  runHealth,
}

var healthTimeout time.Duration

func init() {
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 10*time.Second, "Timeout per check")
	rootCmd.AddCommand(healthCmd)
}

// CheckResult is the outcome of one dependency check
type CheckResult struct {
	Name     string        `json:"name"`
	OK       bool          `json:"ok"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// HealthReport aggregates dependency checks
type HealthReport struct {
	Healthy bool          `json:"healthy"`
	Checks  []CheckResult `json:"checks"`
}

func runCheck(ctx context.Context, name string, timeout time.Duration, check func(ctx context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	result := CheckResult{Name: name, OK: err == nil, Duration: time.Since(start)}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// healthCheck is one named dependency probe
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// checkHealth runs every probe with its own timeout
func checkHealth(ctx context.Context, timeout time.Duration, checks ...healthCheck) HealthReport {
	report := HealthReport{Healthy: true, Checks: make([]CheckResult, 0, len(checks))}
	for _, c := range checks {
		result := runCheck(ctx, c.name, timeout, c.check)
		if !result.OK {
			report.Healthy = false
		}
		report.Checks = append(report.Checks, result)
	}
	return report
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var checks []healthCheck
	if appConfig.DatabaseURL != "" {
		database, err := openDB(ctx, appConfig)
		if err != nil {
			checks = append(checks, healthCheck{name: "database", check: func(context.Context) error { return err }})
		} else {
			defer database.Close()
			checks = append(checks, healthCheck{name: "database", check: database.Ping})
		}
	}
	client := newSPARQLClient(appConfig, logger)
	checks = append(checks, healthCheck{name: "sparql", check: client.Ping})

	report := checkHealth(ctx, healthTimeout, checks...)
	if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Healthy {
		return fmt.Errorf("unhealthy")
	}
	return nil
}
