package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jonathan/occupation-matcher/internal/index"
	"github.com/jonathan/occupation-matcher/internal/observability"
	"github.com/jonathan/occupation-matcher/internal/scheduler"
	"github.com/jonathan/occupation-matcher/internal/types"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Keep the requirement index warm and serve metrics",
	Long:  "Builds the requirement index, refreshes it (and optionally the IDF weights) on the configured cron schedule, and serves /metrics, /healthz and /status until interrupted.",
	RunE:  runDaemon,
}

var daemonShutdownTimeout time.Duration

const refreshJobName = "refresh"

func init() {
	daemonCmd.Flags().DurationVar(&daemonShutdownTimeout, "shutdown-timeout", 30*time.Second, "Grace period for in-flight work on shutdown")
	rootCmd.AddCommand(daemonCmd)
}

// DaemonStatus is served on /status
type DaemonStatus struct {
	Index       string         `json:"index"`
	IndexError  string         `json:"index_error,omitempty"`
	Stats       *index.Stats   `json:"stats,omitempty"`
	Weights     int            `json:"weights"`
	LastRefresh *scheduler.Run `json:"last_refresh,omitempty"`
	NextRefresh *time.Time     `json:"next_refresh,omitempty"`
}

func newDaemonMux(a *app, sched *scheduler.Service, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler(gatherer))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		state, err := a.index.State()
		if state != index.StateReady {
			w.WriteHeader(http.StatusServiceUnavailable)
			msg := state.String()
			if err != nil {
				msg = fmt.Sprintf("%s: %v", msg, err)
			}
			_, _ = fmt.Fprintln(w, msg)
			return
		}
		_, _ = fmt.Fprintln(w, "ok")
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = writeJSON(w, daemonStatus(a, sched))
	})
	return mux
}

func daemonStatus(a *app, sched *scheduler.Service) DaemonStatus {
	state, err := a.index.State()
	status := DaemonStatus{Index: state.String(), Weights: a.weights.Table().Len()}
	if err != nil {
		status.IndexError = err.Error()
	}
	if snap := a.index.Snapshot(); snap != nil {
		stats := snap.Stats()
		status.Stats = &stats
	}
	if run, ok := sched.LastRun(refreshJobName); ok {
		status.LastRefresh = &run
	}
	if next, ok := sched.Next(refreshJobName); ok {
		status.NextRefresh = &next
	}
	return status
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	a, err := newApp(ctx, appConfig, logger, metrics)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), daemonShutdownTimeout)
		defer cancel()
		a.close(closeCtx)
	}()
	if _, err := a.index.EnsureReady(ctx); err != nil {
		logger.Warn("initial index build failed, retrying on schedule", "error", err)
	}

	sched := scheduler.NewService(logger)
	if appConfig.IndexRefreshSchedule != "" {
		err = sched.Add(scheduler.Job{
			Name:     refreshJobName,
			Schedule: appConfig.IndexRefreshSchedule,
			Timeout:  appConfig.IndexBuildTimeout.Std(),
			Run: func(ctx context.Context) error {
				_, err := a.refresher.Run(ctx, appConfig.IDFRefreshWithIndex)
				if err != nil && !types.IsRetryable(err) {
					logger.Error("index refresh failed permanently, check the query or endpoint configuration", "error", err)
				}
				return err
			},
		})
		if err != nil {
			return fmt.Errorf("failed to schedule index refresh: %w", err)
		}
	} else {
		logger.Info("index refresh schedule disabled")
	}
	sched.Start()

	server := &http.Server{
		Addr:              appConfig.MetricsAddr,
		Handler:           newDaemonMux(a, sched, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", appConfig.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), daemonShutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("http server shutdown", "error", shutdownErr)
	}
	if stopErr := sched.Stop(shutdownCtx); stopErr != nil {
		logger.Warn("scheduler shutdown", "error", stopErr)
	}
	if err != nil {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
