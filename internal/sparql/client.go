// Package sparql is a client for the labor-market knowledge graph's SPARQL endpoint.
package sparql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

// Default client settings
const (
	DefaultEndpoint          = "https://sparql.competentnl.nl"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5
	DefaultMaxRetries        = 3
	DefaultPageSize          = 10000
	DefaultLanguage          = "nl"

	maxErrorBody = 200
)

// Config holds the client settings
type Config struct {
	Endpoint          string
	APIKey            string
	Timeout           time.Duration // per attempt
	RequestsPerSecond float64
	MaxRetries        int
	InitialBackoff    time.Duration
	PageSize          int
	Language          string
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Client runs SELECT and ASK queries with rate limiting and retries.
// It is safe for concurrent use.
type Client struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	initial    time.Duration
	pageSize   int
	language   string
	http       *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client, filling unset fields with defaults
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 15 * time.Second,
			},
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		initial:    cfg.InitialBackoff,
		pageSize:   cfg.PageSize,
		language:   cfg.Language,
		http:       cfg.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:     cfg.Logger.With(slog.String("component", "sparql")),
	}
}

// Endpoint returns the configured endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Term is one RDF term of a result binding
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Binding maps variable names to terms for one result row
type Binding map[string]Term

// Value returns the value bound to name, or "" when unbound
func (b Binding) Value(name string) string {
	return b[name].Value
}

type resultsDocument struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean"`
}

// Select runs a SELECT query and returns its bindings. A response without a
// results.bindings structure is treated as a retryable fault.
func (c *Client) Select(ctx context.Context, query string) ([]Binding, error) {
	doc, err := c.run(ctx, query, func(doc *resultsDocument) bool { return doc.Results != nil && doc.Results.Bindings != nil })
	if err != nil {
		return nil, err
	}
	return doc.Results.Bindings, nil
}

// Ask runs an ASK query
func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	doc, err := c.run(ctx, query, func(doc *resultsDocument) bool { return doc.Boolean != nil })
	if err != nil {
		return false, err
	}
	return *doc.Boolean, nil
}

func (c *Client) run(ctx context.Context, query string, wellFormed func(*resultsDocument) bool) (*resultsDocument, error) {
	attempt := 0
	operation := func() (*resultsDocument, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		doc, err := c.do(ctx, query, wellFormed)
		if err == nil {
			return doc, nil
		}
		var qe *QueryError
		if errors.As(err, &qe) && !qe.Retryable() {
			return nil, backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		c.logger.Debug("sparql attempt failed", slog.Int("attempt", attempt), slog.Any("error", err))
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initial
	bo.MaxInterval = 10 * time.Second

	doc, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(c.maxRetries)),
		backoff.WithMaxElapsedTime(time.Duration(c.maxRetries+1)*c.timeout),
	)
	if err != nil {
		var qe *QueryError
		if errors.As(err, &qe) {
			return nil, qe
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		return nil, &QueryError{Endpoint: c.endpoint, Message: "request aborted", Cause: err}
	}
	return doc, nil
}

func (c *Client) do(ctx context.Context, query string, wellFormed func(*resultsDocument) bool) (*resultsDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &QueryError{Endpoint: c.endpoint, StatusCode: http.StatusBadRequest, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &QueryError{Endpoint: c.endpoint, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &QueryError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Message: "failed to read body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &QueryError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Message: truncate(string(body), maxErrorBody)}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &QueryError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Cause: ErrEmptyResponse}
	}

	var doc resultsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &QueryError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Cause: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if !wellFormed(&doc) {
		return nil, &QueryError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Cause: ErrMalformedResponse}
	}
	return &doc, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
