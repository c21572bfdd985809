package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/jonathan/occupation-matcher/internal/config"
	"github.com/jonathan/occupation-matcher/internal/db"
	"github.com/jonathan/occupation-matcher/internal/index"
	"github.com/jonathan/occupation-matcher/internal/matching"
	"github.com/jonathan/occupation-matcher/internal/observability"
	"github.com/jonathan/occupation-matcher/internal/pipeline"
	"github.com/jonathan/occupation-matcher/internal/resolver"
	"github.com/jonathan/occupation-matcher/internal/searchlog"
	"github.com/jonathan/occupation-matcher/internal/skills"
	"github.com/jonathan/occupation-matcher/internal/sparql"
	"github.com/jonathan/occupation-matcher/internal/types"
)

// app wires the matcher components for one command invocation
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *db.DB
	sparql    *sparql.Client
	nats      *nats.Conn
	queue     *searchlog.Queue
	resolver  *resolver.Resolver
	index     *index.Index
	weights   *skills.Provider
	engine    *matching.Engine
	refresher *pipeline.Refresher
}

// componentMetrics holds per-component metric sinks; all nil without a registry
type componentMetrics struct {
	resolver  resolver.Metrics
	index     index.Metrics
	searchlog searchlog.Metrics
	matching  matching.Metrics
	pipeline  pipeline.Metrics
}

func metricsFor(m *observability.Metrics) componentMetrics {
	if m == nil {
		return componentMetrics{}
	}
	return componentMetrics{resolver: m, index: m, searchlog: m, matching: m, pipeline: m}
}

func openDB(ctx context.Context, cfg config.Config) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is not configured (set DATABASE_URL or database_url)")
	}
	return db.Connect(ctx, cfg.DatabaseURL)
}

func newSPARQLClient(cfg config.Config, logger *slog.Logger) *sparql.Client {
	return sparql.NewClient(sparql.Config{
		Endpoint:          cfg.SPARQLEndpoint,
		APIKey:            cfg.SPARQLAPIKey,
		Timeout:           cfg.SPARQLTimeout.Std(),
		RequestsPerSecond: cfg.SPARQLRate,
		MaxRetries:        cfg.SPARQLMaxRetries,
		Language:          cfg.Language,
		Logger:            logger,
	})
}

func newIndex(client *sparql.Client, cfg config.Config, logger *slog.Logger, m componentMetrics) *index.Index {
	return index.New(client, cfg.IndexBuildTimeout.Std(), logger, m.index)
}

// newApp connects the stores and builds every component. The persisted IDF
// snapshot is loaded when present; matching falls back to the default weight
// otherwise.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	m := metricsFor(metrics)

	database, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, db: database}

	sinks := []searchlog.Sink{searchlog.NewDBSink(database)}
	if cfg.NATSURL != "" {
		conn, err := searchlog.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			logger.Warn("search events will not be published", "error", err)
		} else {
			a.nats = conn
			sinks = append(sinks, searchlog.NewNATSSink(conn, cfg.NATSSubject))
		}
	}
	a.queue = searchlog.NewQueue(cfg.SearchLogQueueSize, logger, m.searchlog, sinks...)

	a.resolver = resolver.New(database, a.queue, resolver.Options{
		ConfirmedConfidence: cfg.ConfirmedSynonymConfidence,
	}, logger, m.resolver)

	a.sparql = newSPARQLClient(cfg, logger)
	a.index = newIndex(a.sparql, cfg, logger, m)

	a.weights = skills.NewProvider(cfg.DefaultIDF)
	if table, err := a.weights.Load(ctx, database); err != nil {
		logger.Warn("using default idf weights", "error", err)
	} else if table.Len() == 0 {
		logger.Info("no idf snapshot stored, using default weight", "default_idf", cfg.DefaultIDF)
	}

	a.engine = matching.New(a.resolver, a.index, a.weights, matching.Config{
		TierWeights:     cfg.TierWeights(),
		CategoryWeights: cfg.CategoryWeightMap(),
		GapLimits:       cfg.GapLimits(),
		MaxLimit:        cfg.MaxLimit,
	}, logger, m.matching)

	a.refresher = pipeline.NewRefresher(a.index, a.sparql, database, a.weights, pipeline.Options{
		ConceptTypes: cfg.ConceptTypesForIDF(),
	}, logger, m.pipeline)
	return a, nil
}

// close drains the search log and releases connections
func (a *app) close(ctx context.Context) {
	if a.queue != nil {
		if err := a.queue.Close(ctx); err != nil {
			a.logger.Warn("search log not fully drained", "error", err)
		}
	}
	if a.nats != nil {
		_ = a.nats.Drain()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// parseConceptType parses an optional concept type flag; empty means all types
func parseConceptType(s string) (types.ConceptType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return types.ParseConceptType(s)
}

// writeJSON writes v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes v as JSON to path, or to w when path is empty
func writeOutput(w io.Writer, path string, v any) error {
	if path == "" {
		return writeJSON(w, v)
	}

	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if err := writeJSON(f, v); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return f.Close()
}
