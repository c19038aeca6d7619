package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "data/processed/converted_database.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 100, cfg.Query.FacilityLimit)
	assert.Equal(t, 200, cfg.Query.EmissionLimit)
	assert.Equal(t, 10, cfg.Query.TopN)
	assert.Equal(t, 100, cfg.Query.LeadLimit)
	assert.Equal(t, 5000, cfg.Query.MaxLimit)
	assert.Equal(t, 15, cfg.Scoring.MinAge)
	assert.Equal(t, []string{"EU", "DEVELOPED_ASIA", "EMERGING_ASIA"}, cfg.Scoring.AllowedRegions)
	assert.Equal(t, 60, cfg.Cache.TTLMinutes)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Equal(t, "token_set", cfg.Match.Algorithm)
	assert.InDelta(t, 0.8, cfg.Match.Threshold, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/eea
log:
  level: debug
  format: console
query:
  facility_limit: 250
scoring:
  rules_file: rules.yaml
  min_age: 20
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/eea", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 250, cfg.Query.FacilityLimit)
	assert.Equal(t, "rules.yaml", cfg.Scoring.RulesFile)
	assert.Equal(t, 20, cfg.Scoring.MinAge)
	// Defaults still apply for unset values
	assert.Equal(t, 200, cfg.Query.EmissionLimit)
}

func TestLoadInlineRules(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
scoring:
  rules:
    tiers:
      - {min: 50, tier: 1, label: Hot, action: Call}
      - {min: 0, tier: 2, label: Cold, action: Wait}
    regions:
      CH: eu
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	require.Contains(t, cfg.Scoring.Rules, "tiers")
	assert.Len(t, cfg.Scoring.Rules["tiers"], 2)
	assert.Contains(t, cfg.Scoring.Rules, "regions")
	assert.Empty(t, cfg.Scoring.RulesFile)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("EMISSIONS_STORE_DRIVER", "postgres")
	t.Setenv("EMISSIONS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EMISSIONS_QUERY_TOP_N=25\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("EMISSIONS_QUERY_TOP_N") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Query.TopN)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "eea.db"
	cfg.Query = QueryConfig{FacilityLimit: 100, EmissionLimit: 200, TopN: 10, LeadLimit: 100, MaxLimit: 5000}
	cfg.Scoring.MinAge = 15
	return cfg
}

func TestValidateQuery_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("query"))
	assert.NoError(t, validDefaults().Validate("leads"))
}

func TestValidateQuery_MissingStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateQuery_LimitBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Query.FacilityLimit = 0
	cfg.Query.TopN = 6000

	err := cfg.Validate("query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query.facility_limit must be between 1 and query.max_limit")
	assert.Contains(t, err.Error(), "query.top_n must be between 1 and query.max_limit")

	cfg = validDefaults()
	cfg.Query.FacilityLimit = 0
	cfg.Query.EmissionLimit = 0
	cfg.Query.TopN = 0
	cfg.Query.LeadLimit = 0
	first := cfg.Validate("query").Error()
	for range 20 {
		assert.Equal(t, first, cfg.Validate("query").Error())
	}
	assert.Less(t, strings.Index(first, "query.facility_limit"), strings.Index(first, "query.emission_limit"))
	assert.Less(t, strings.Index(first, "query.top_n"), strings.Index(first, "query.lead_limit"))

	cfg = validDefaults()
	cfg.Query.MaxLimit = 0
	err = cfg.Validate("query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query.max_limit must be > 0")
}

func TestValidateLeads_ScoringBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Scoring.MinAge = -1
	cfg.Scoring.MinScore = 101

	// Scoring settings are ignored outside leads mode.
	assert.NoError(t, cfg.Validate("query"))

	err := cfg.Validate("leads")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring.min_age must be >= 0")
	assert.Contains(t, err.Error(), "scoring.min_score must be between 0 and 100")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
