package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Query   QueryConfig   `yaml:"query" mapstructure:"query"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Match   MatchConfig   `yaml:"match" mapstructure:"match"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the EEA database connection.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// QueryConfig holds default and maximum result limits per query operation.
type QueryConfig struct {
	FacilityLimit int `yaml:"facility_limit" mapstructure:"facility_limit"`
	EmissionLimit int `yaml:"emission_limit" mapstructure:"emission_limit"`
	TopN          int `yaml:"top_n" mapstructure:"top_n"`
	LeadLimit     int `yaml:"lead_limit" mapstructure:"lead_limit"`
	MaxLimit      int `yaml:"max_limit" mapstructure:"max_limit"`
}

// ScoringConfig configures lead scoring. The rule table (bands, compliance
// points, region weights, tiers, compliance limits) is read from RulesFile
// when set, otherwise from the inline Rules section, otherwise the built-in
// defaults apply. Both use the scorer.RuleTable YAML layout.
type ScoringConfig struct {
	RulesFile      string         `yaml:"rules_file" mapstructure:"rules_file"`
	Rules          map[string]any `yaml:"rules" mapstructure:"rules"`
	ReferenceYear  int      `yaml:"reference_year" mapstructure:"reference_year"`
	MinAge         int      `yaml:"min_age" mapstructure:"min_age"`
	AllowedRegions []string `yaml:"allowed_regions" mapstructure:"allowed_regions"`
	MinScore       int      `yaml:"min_score" mapstructure:"min_score"`
}

// CacheConfig configures the filter-option cache.
type CacheConfig struct {
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	RedisURL   string `yaml:"redis_url" mapstructure:"redis_url"`
}

// MatchConfig configures external name correlation.
type MatchConfig struct {
	Algorithm string  `yaml:"algorithm" mapstructure:"algorithm"`
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// MetricsConfig configures the Prometheus textfile flush.
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path" mapstructure:"textfile_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EMISSIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/processed/converted_database.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("query.facility_limit", 100)
	v.SetDefault("query.emission_limit", 200)
	v.SetDefault("query.top_n", 10)
	v.SetDefault("query.lead_limit", 100)
	v.SetDefault("query.max_limit", 5000)
	v.SetDefault("scoring.reference_year", 0)
	v.SetDefault("scoring.min_age", 15)
	v.SetDefault("scoring.allowed_regions", []string{"EU", "DEVELOPED_ASIA", "EMERGING_ASIA"})
	v.SetDefault("scoring.min_score", 0)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("match.algorithm", "token_set")
	v.SetDefault("match.threshold", 0.8)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "query"
// (any database-backed command) and "leads" (query plus scoring).
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "query", "leads":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	if c.Query.MaxLimit <= 0 {
		errs = append(errs, "query.max_limit must be > 0")
	}
	for _, l := range []struct {
		name  string
		value int
	}{
		{"query.facility_limit", c.Query.FacilityLimit},
		{"query.emission_limit", c.Query.EmissionLimit},
		{"query.top_n", c.Query.TopN},
		{"query.lead_limit", c.Query.LeadLimit},
	} {
		if l.value <= 0 || (c.Query.MaxLimit > 0 && l.value > c.Query.MaxLimit) {
			errs = append(errs, fmt.Sprintf("%s must be between 1 and query.max_limit", l.name))
		}
	}

	if mode == "leads" {
		if c.Scoring.MinAge < 0 {
			errs = append(errs, "scoring.min_age must be >= 0")
		}
		if c.Scoring.MinScore < 0 || c.Scoring.MinScore > 100 {
			errs = append(errs, "scoring.min_score must be between 0 and 100")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
