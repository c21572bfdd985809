// Package config provides configuration loading and validation for the occupation matcher.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// Duration is a time.Duration that decodes from JSON strings such as "30s".
type Duration time.Duration

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(n)
	return nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the matcher configuration that can be loaded from a JSON file.
// All fields are optional; missing values are filled by MergeWithDefaults.
type Config struct {
	// Stores
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for the label cache
	NATSURL     string `json:"nats_url,omitempty"`     // Optional NATS server for search-log events
	NATSSubject string `json:"nats_subject,omitempty"` // Subject search-log events are published on

	// Knowledge graph
	SPARQLEndpoint   string   `json:"sparql_endpoint,omitempty"`
	SPARQLAPIKey     string   `json:"sparql_api_key,omitempty"`
	SPARQLTimeout    Duration `json:"sparql_timeout,omitempty"`
	SPARQLRate       float64  `json:"sparql_requests_per_second,omitempty"`
	SPARQLMaxRetries int      `json:"sparql_max_retries,omitempty"`
	Language         string   `json:"language,omitempty"` // Label language tag

	// Requirement index
	IndexBuildTimeout    Duration `json:"index_build_timeout,omitempty"`
	IndexRefreshSchedule string   `json:"index_refresh_schedule,omitempty"` // cron spec, e.g. "@every 1h"
	IDFConceptTypes      []string `json:"idf_concept_types,omitempty"`
	IDFRefreshWithIndex  bool     `json:"idf_refresh_with_index,omitempty"`

	// Matching
	EssentialWeight float64            `json:"essential_weight,omitempty"`
	ImportantWeight float64            `json:"important_weight,omitempty"`
	SomewhatWeight  float64            `json:"somewhat_weight,omitempty"`
	CategoryWeights map[string]float64 `json:"category_weights,omitempty"` // skills, knowledge, tasks
	DefaultIDF      float64            `json:"default_idf,omitempty"`
	DefaultLimit    int                `json:"default_limit,omitempty"`
	MaxLimit        int                `json:"max_limit,omitempty"`
	DefaultMinScore float64            `json:"default_min_score,omitempty"`
	SkillGaps       int                `json:"skill_gaps,omitempty"`
	KnowledgeGaps   int                `json:"knowledge_gaps,omitempty"`
	TaskGaps        int                `json:"task_gaps,omitempty"`

	// Resolver
	ConfirmedSynonymConfidence float64 `json:"confirmed_synonym_confidence,omitempty"`
	SearchLogQueueSize         int     `json:"search_log_queue_size,omitempty"`

	// Behavior
	MetricsAddr string `json:"metrics_addr,omitempty"` // Listen address for /metrics in daemon mode
	Verbose     bool   `json:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		NATSSubject:                "occupation_matcher.search_log",
		SPARQLEndpoint:             "https://sparql.competentnl.nl",
		SPARQLTimeout:              Duration(30 * time.Second),
		SPARQLRate:                 5,
		SPARQLMaxRetries:           3,
		Language:                   "nl",
		IndexBuildTimeout:          Duration(5 * time.Minute),
		IndexRefreshSchedule:       "@every 1h",
		IDFConceptTypes:            []string{string(types.ConceptHumanCapability)},
		EssentialWeight:            1.0,
		ImportantWeight:            0.4,
		SomewhatWeight:             0.2,
		CategoryWeights:            map[string]float64{"skills": 1.0, "knowledge": 1.0, "tasks": 1.0},
		DefaultIDF:                 0.5,
		DefaultLimit:               50,
		MaxLimit:                   100,
		DefaultMinScore:            0.1,
		SkillGaps:                  10,
		KnowledgeGaps:              5,
		TaskGaps:                   5,
		ConfirmedSynonymConfidence: 0.8,
		SearchLogQueueSize:         256,
		MetricsAddr:                ":9090",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides configuration values with environment variables when set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv("COMPETENTNL_ENDPOINT"); v != "" {
		c.SPARQLEndpoint = v
	}
	if v := getenv("COMPETENTNL_API_KEY"); v != "" {
		c.SPARQLAPIKey = v
	}
	if v := getenv("NATS_URL"); v != "" {
		c.NATSURL = v
	}
	if v := getenv("METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := getenv("INDEX_REFRESH_SCHEDULE"); v != "" {
		c.IndexRefreshSchedule = v
	}
	if v := getenv("DEFAULT_IDF"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.DefaultIDF = f
		}
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.SPARQLTimeout < 0 || c.IndexBuildTimeout < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}
	if c.SPARQLRate < 0 {
		return fmt.Errorf("config error: 'sparql_requests_per_second' must be non-negative")
	}
	if c.SPARQLMaxRetries < 0 {
		return fmt.Errorf("config error: 'sparql_max_retries' must be non-negative")
	}

	// Tier weights must be monotonic: essential > important > somewhat
	if c.EssentialWeight != 0 || c.ImportantWeight != 0 || c.SomewhatWeight != 0 {
		if !(c.EssentialWeight > c.ImportantWeight && c.ImportantWeight > c.SomewhatWeight && c.SomewhatWeight > 0) {
			return fmt.Errorf("config error: tier weights must satisfy essential > important > somewhat > 0")
		}
	}

	for name, w := range c.CategoryWeights {
		if _, ok := categoryNames[name]; !ok {
			return fmt.Errorf("config error: unknown category %q in 'category_weights'", name)
		}
		if w < 0 {
			return fmt.Errorf("config error: category weight for %q must be non-negative", name)
		}
	}

	if c.DefaultIDF < 0 {
		return fmt.Errorf("config error: 'default_idf' must be non-negative")
	}
	if c.DefaultLimit < 0 || c.MaxLimit < 0 {
		return fmt.Errorf("config error: limits must be non-negative")
	}
	if c.MaxLimit > 0 && c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("config error: 'default_limit' exceeds 'max_limit'")
	}
	if c.DefaultMinScore < 0 || c.DefaultMinScore > 1 {
		return fmt.Errorf("config error: 'default_min_score' must be within [0,1]")
	}
	if c.SkillGaps < 0 || c.KnowledgeGaps < 0 || c.TaskGaps < 0 {
		return fmt.Errorf("config error: gap list sizes must be non-negative")
	}
	if c.ConfirmedSynonymConfidence < 0 || c.ConfirmedSynonymConfidence > 1 {
		return fmt.Errorf("config error: 'confirmed_synonym_confidence' must be within [0,1]")
	}
	if c.SearchLogQueueSize < 0 {
		return fmt.Errorf("config error: 'search_log_queue_size' must be non-negative")
	}

	for _, name := range c.IDFConceptTypes {
		if _, err := types.ParseConceptType(name); err != nil {
			return fmt.Errorf("config error: 'idf_concept_types': %w", err)
		}
	}

	if c.IndexRefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.IndexRefreshSchedule); err != nil {
			return fmt.Errorf("config error: invalid 'index_refresh_schedule': %w", err)
		}
	}

	return nil
}

var categoryNames = map[string]struct{}{
	string(types.CategorySkills):    {},
	string(types.CategoryKnowledge): {},
	string(types.CategoryTasks):     {},
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.NATSURL == "" {
		result.NATSURL = defaults.NATSURL
	}
	if result.NATSSubject == "" {
		result.NATSSubject = defaults.NATSSubject
	}
	if result.SPARQLEndpoint == "" {
		result.SPARQLEndpoint = defaults.SPARQLEndpoint
	}
	if result.SPARQLAPIKey == "" {
		result.SPARQLAPIKey = defaults.SPARQLAPIKey
	}
	if result.Language == "" {
		result.Language = defaults.Language
	}
	if result.IndexRefreshSchedule == "" {
		result.IndexRefreshSchedule = defaults.IndexRefreshSchedule
	}
	if result.MetricsAddr == "" {
		result.MetricsAddr = defaults.MetricsAddr
	}

	// Durations and numbers: use default if zero
	if result.SPARQLTimeout == 0 {
		result.SPARQLTimeout = defaults.SPARQLTimeout
	}
	if result.IndexBuildTimeout == 0 {
		result.IndexBuildTimeout = defaults.IndexBuildTimeout
	}
	if result.SPARQLRate == 0 {
		result.SPARQLRate = defaults.SPARQLRate
	}
	if result.SPARQLMaxRetries == 0 {
		result.SPARQLMaxRetries = defaults.SPARQLMaxRetries
	}
	if result.EssentialWeight == 0 && result.ImportantWeight == 0 && result.SomewhatWeight == 0 {
		result.EssentialWeight = defaults.EssentialWeight
		result.ImportantWeight = defaults.ImportantWeight
		result.SomewhatWeight = defaults.SomewhatWeight
	}
	if result.DefaultIDF == 0 {
		result.DefaultIDF = defaults.DefaultIDF
	}
	if result.DefaultLimit == 0 {
		result.DefaultLimit = defaults.DefaultLimit
	}
	if result.MaxLimit == 0 {
		result.MaxLimit = defaults.MaxLimit
	}
	if result.DefaultMinScore == 0 {
		result.DefaultMinScore = defaults.DefaultMinScore
	}
	if result.SkillGaps == 0 {
		result.SkillGaps = defaults.SkillGaps
	}
	if result.KnowledgeGaps == 0 {
		result.KnowledgeGaps = defaults.KnowledgeGaps
	}
	if result.TaskGaps == 0 {
		result.TaskGaps = defaults.TaskGaps
	}
	if result.ConfirmedSynonymConfidence == 0 {
		result.ConfirmedSynonymConfidence = defaults.ConfirmedSynonymConfidence
	}
	if result.SearchLogQueueSize == 0 {
		result.SearchLogQueueSize = defaults.SearchLogQueueSize
	}

	// Collections: missing categories inherit the default weight
	if len(result.IDFConceptTypes) == 0 {
		result.IDFConceptTypes = append([]string(nil), defaults.IDFConceptTypes...)
	}
	merged := make(map[string]float64, len(defaults.CategoryWeights))
	for k, v := range defaults.CategoryWeights {
		merged[k] = v
	}
	for k, v := range result.CategoryWeights {
		merged[k] = v
	}
	result.CategoryWeights = merged

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// TierWeights returns the configured tier weight mapping.
func (c *Config) TierWeights() map[types.Tier]float64 {
	return map[types.Tier]float64{
		types.TierEssential: c.EssentialWeight,
		types.TierImportant: c.ImportantWeight,
		types.TierSomewhat:  c.SomewhatWeight,
	}
}

// CategoryWeightMap returns the configured per-category weights keyed by category.
func (c *Config) CategoryWeightMap() map[types.Category]float64 {
	out := make(map[types.Category]float64, len(c.CategoryWeights))
	for k, v := range c.CategoryWeights {
		out[types.Category(k)] = v
	}
	return out
}

// ConceptTypesForIDF returns the parsed concept types included in IDF computation.
func (c *Config) ConceptTypesForIDF() []types.ConceptType {
	out := make([]types.ConceptType, 0, len(c.IDFConceptTypes))
	for _, name := range c.IDFConceptTypes {
		if ct, err := types.ParseConceptType(name); err == nil {
			out = append(out, ct)
		}
	}
	return out
}

// GapLimits returns how many requirement gaps are reported per category.
func (c *Config) GapLimits() map[types.Category]int {
	return map[types.Category]int{
		types.CategorySkills:    c.SkillGaps,
		types.CategoryKnowledge: c.KnowledgeGaps,
		types.CategoryTasks:     c.TaskGaps,
	}
}
