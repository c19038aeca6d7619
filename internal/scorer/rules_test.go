package scorer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleTableValid(t *testing.T) {
	assert.NoError(t, ValidateRules(DefaultRuleTable()))
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RuleTable)
		want   string
	}{
		{"unknown kind", func(rt *RuleTable) { rt.Rules[0].Kind = "fuzzy" }, `unknown kind "fuzzy"`},
		{"missing name", func(rt *RuleTable) { rt.Rules[0].Name = "" }, "name is required"},
		{"missing signal", func(rt *RuleTable) { rt.Rules[0].Signal = "" }, "signal is required"},
		{"empty bands", func(rt *RuleTable) { rt.Rules[0].Bands = nil }, "needs at least one band"},
		{"ascending bands", func(rt *RuleTable) {
			rt.Rules[0].Bands = []Band{{Above: 1, Points: 1}, {Above: 2, Points: 2}}
		}, "distinct and descending"},
		{"no tiers", func(rt *RuleTable) { rt.Tiers = nil }, "at least one tier is required"},
		{"gap at bottom", func(rt *RuleTable) { rt.Tiers = rt.Tiers[:4] }, "lowest tier minimum must be <= 0"},
		{"inverted tier numbers", func(rt *RuleTable) {
			rt.Tiers[0].Tier, rt.Tiers[1].Tier = 2, 1
		}, "must have a larger tier number"},
		{"bad compliance margin", func(rt *RuleTable) {
			rt.ComplianceLimits.AtRiskMargin = 1.5
		}, "at_risk_margin must be in [0, 1)"},
		{"non-positive compliance limit", func(rt *RuleTable) {
			rt.ComplianceLimits.Standards[0].Limits = map[string]float64{PollutantNOx: 0}
		}, "limit for nox must be > 0"},
		{"missing reference size", func(rt *RuleTable) {
			rt.ComplianceLimits.ReferenceTJ = 0
		}, "reference_tj must be > 0"},
		{"empty categories", func(rt *RuleTable) {
			rt.Rules = []Rule{{Name: "Region", Signal: SignalRegion, Kind: KindCategory}}
		}, "category rule needs categories"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := DefaultRuleTable()
			tt.mutate(&rt)
			err := ValidateRules(rt)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	yaml := `
rules:
  - name: Plant age
    signal: plant_age
    kind: bands
    unit: years
    bands:
      - {above: 10, points: 10}
      - {above: 30, points: 50}
  - name: Region
    signal: region
    kind: category
    categories:
      eu: 30
      other: 0
tiers:
  - {min: 0, tier: 3, label: Cold, action: Wait}
  - {min: 50, tier: 1, label: Hot, action: Call}
  - {min: 20, tier: 2, label: Warm, action: Email}
regions:
  br: eu
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	rt, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rt.Rules, 2)
	assert.InDelta(t, 30, rt.Rules[0].Bands[0].Above, 1e-9, "bands sorted highest first")
	assert.Equal(t, 1, rt.Tiers[0].Tier, "tiers sorted highest first")
	assert.Equal(t, RegionEU, rt.Regions["BR"])
	assert.Equal(t, RegionEU, rt.Regions["DE"], "default regions are kept")

	s, err := New(rt, 2025)
	require.NoError(t, err)
	score, _ := s.ScoreLead(Record{KeyStartYear: 1990, KeyCountry: "BR"})
	assert.Equal(t, 80, score)
	assert.Equal(t, "Hot", s.GetTier(score).Label)
	assert.Equal(t, "Warm", s.GetTier(49).Label)
}

func TestLoadRules_KeepsDefaultsForOmittedSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regions:\n  XK: EU\n"), 0644))

	rt, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRuleTable().Rules, rt.Rules)
	assert.Equal(t, DefaultTiers(), rt.Tiers)
	assert.Equal(t, RegionEU, rt.Regions["XK"])
}

func TestLoadRules_Errors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scorer: read rules")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [\n"), 0644))
	_, err = LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scorer: parse rules")

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers:\n  - {min: 50, tier: 1, label: Hot}\n"), 0644))
	_, err = LoadRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lowest tier minimum must be <= 0")
}

func TestParseRules_ComplianceLimits(t *testing.T) {
	rt, err := ParseRules([]byte(`
compliance_limits:
  reference_tj: 500
  at_risk_margin: 0.3
  approaching_margin: 0.1
  critical_excess: 0.5
  standards:
    - name: Cement kilns
      activities: [cement]
      limits: {nox: 50, so2: 20}
`))
	require.NoError(t, err)
	require.NotNil(t, rt.ComplianceLimits)
	require.Len(t, rt.ComplianceLimits.Standards, 1)
	assert.Equal(t, DefaultRuleTable().Rules, rt.Rules, "rules keep their defaults")

	// 1000 TJ doubles the limits to nox 100 and so2 40; so2 is the worse ratio.
	a, ok := rt.ComplianceLimits.Assess(Record{
		KeyActivity: "Cement clinker", KeyEnergyInputTJ: 1000, PollutantNOx: 90.0, PollutantSO2: 50.0,
	})
	require.True(t, ok)
	assert.Equal(t, ComplianceViolating, a.Status)
	assert.Equal(t, PollutantSO2, a.Signal)
	assert.InDelta(t, 40, a.Limit, 1e-9)

	_, ok = rt.ComplianceLimits.Assess(Record{KeyActivity: "Thermal power", PollutantNOx: 900.0})
	assert.False(t, ok, "no standard matches and there is no fallback")
}

func TestParseRules_DisableComplianceLimits(t *testing.T) {
	rt, err := ParseRules([]byte("compliance_limits: {}
"))
	require.NoError(t, err)

	s, err := New(rt, 2025)
	require.NoError(t, err)
	_, ok := rt.ComplianceLimits.Assess(Record{PollutantNOx: 900.0})
	assert.False(t, ok)
	assert.NotNil(t, s)
}
