package scorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(DefaultRuleTable(), 2025)
	require.NoError(t, err)
	return s
}

func hasReason(reasons []string, prefix string) bool {
	for _, r := range reasons {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}

func TestScoreLead_EmptyRecord(t *testing.T) {
	s := newTestScorer(t)

	score, reasons := s.ScoreLead(Record{})
	assert.Equal(t, 0, score)
	require.Len(t, reasons, len(DefaultRuleTable().Rules))
	for _, r := range reasons {
		assert.True(t, strings.HasSuffix(r, "(skipped)"), r)
	}

	score, _ = s.ScoreLead(nil)
	assert.Equal(t, 0, score)
}

func TestScoreLead_TopTierScenario(t *testing.T) {
	s := newTestScorer(t)

	score, reasons := s.ScoreLead(Record{
		KeyEnergyInputTJ: 2500,
		PollutantNOx:     true,
		PollutantCO2:     true,
		KeyPlantAge:      22,
		KeyCountry:       "DE",
	})
	assert.Equal(t, 90, score)
	assert.GreaterOrEqual(t, score, 80)
	assert.Equal(t, 1, s.GetTier(score).Tier)

	assert.Contains(t, reasons, "Facility size: 2,500 TJ/yr > 1,000 (+20)")
	assert.Contains(t, reasons, "NOx present (+15)")
	assert.Contains(t, reasons, "CO2 present (+10)")
	assert.Contains(t, reasons, "Plant age: 22 years > 20 (+20)")
	assert.Contains(t, reasons, "Region: EU (DE) (+25)")
}

func TestScoreLead_ReasonsFollowRuleOrder(t *testing.T) {
	s := newTestScorer(t)
	_, reasons := s.ScoreLead(Record{KeyEnergyInputTJ: 2500, KeyCountry: "DE"})

	size, region := -1, -1
	for i, r := range reasons {
		switch {
		case strings.HasPrefix(r, "Facility size"):
			size = i
		case strings.HasPrefix(r, "Region"):
			region = i
		}
	}
	require.NotEqual(t, -1, size)
	require.NotEqual(t, -1, region)
	assert.Less(t, size, region)
}

func TestScoreLead_ComplianceOrdering(t *testing.T) {
	s := newTestScorer(t)
	base := func(status string) Record {
		return Record{KeyEnergyInputTJ: 600, KeyCountry: "FR", KeyComplianceStatus: status}
	}

	compliant, _ := s.ScoreLead(base("compliant"))
	critical, reasons := s.ScoreLead(base("critical violation"))
	assert.Greater(t, critical, compliant)
	assert.True(t, hasReason(reasons, "Compliance: critical (+40)"))

	ladder := []string{"compliant", "at risk", "approaching limit", "violating BAT-AEL", "critical violation"}
	prev := -1
	for _, status := range ladder {
		score, _ := s.ScoreLead(base(status))
		assert.GreaterOrEqual(t, score, prev, status)
		prev = score
	}
}

func TestScoreLead_Clamped(t *testing.T) {
	s := newTestScorer(t)
	score, _ := s.ScoreLead(Record{
		KeyEnergyInputTJ:    9000,
		KeyWasteThroughputT: 800_000,
		KeyTotalEmissionsT:  5000,
		KeyPollutantCount:   9,
		PollutantNOx:        1.0,
		PollutantCO2:        1.0,
		PollutantSO2:        1.0,
		PollutantPM:         1.0,
		PollutantMercury:    1.0,
		PollutantDioxins:    1.0,
		KeyDioxinTEQ:        0.5,
		KeyCompliance:       "critical",
		KeyPlantAge:         40,
		KeyCountry:          "DE",
		KeyActivity:         "Waste incineration",
	})
	assert.Equal(t, MaxScore, score)

	neg := DefaultRuleTable()
	neg.Rules = []Rule{{Name: "Penalty", Signal: "flag", Kind: KindPresence, Points: -30}}
	sn, err := New(neg, 2025)
	require.NoError(t, err)
	score, _ = sn.ScoreLead(Record{"flag": true})
	assert.Equal(t, MinScore, score)
}

func TestScoreLead_MalformedInputsDegrade(t *testing.T) {
	s := newTestScorer(t)
	score, reasons := s.ScoreLead(Record{
		KeyEnergyInputTJ: "lots",
		KeyStartDate:     "unknown",
		KeyCountry:       "",
		PollutantNOx:     []int{1},
	})
	assert.Equal(t, 0, score)
	assert.True(t, hasReason(reasons, "Facility size: no data (skipped)"))
	assert.True(t, hasReason(reasons, "Plant age: no data (skipped)"))
	assert.True(t, hasReason(reasons, "Region: no data (skipped)"))
}

func TestScoreLead_NumericStrings(t *testing.T) {
	s := newTestScorer(t)
	score, reasons := s.ScoreLead(Record{KeyEnergyInputTJ: "5,500"})
	assert.Equal(t, 25, score)
	assert.Contains(t, reasons, "Facility size: 5,500 TJ/yr > 5,000 (+25)")
}

func TestScoreLead_BandsAreStrict(t *testing.T) {
	s := newTestScorer(t)
	tests := []struct {
		tj   float64
		want int
	}{
		{5001, 25}, {5000, 20}, {1000.5, 20}, {1000, 15}, {500, 5}, {100, 0}, {0, 0},
	}
	for _, tt := range tests {
		score, _ := s.ScoreLead(Record{KeyEnergyInputTJ: tt.tj})
		assert.Equal(t, tt.want, score, "energy %v", tt.tj)
	}
}

func TestScoreLead_PollutantQuantities(t *testing.T) {
	s := newTestScorer(t)
	score, reasons := s.ScoreLead(Record{PollutantNOx: 900.0, PollutantSO2: 0.0, PollutantDioxins: "yes"})
	assert.Equal(t, 30, score)
	assert.Contains(t, reasons, "NOx present: 900 t/yr (+15)")
	assert.Contains(t, reasons, "SO2: not reported (+0)")
	assert.Contains(t, reasons, "Dioxins present (+15)")
}

func TestScoreLead_DioxinTEQ(t *testing.T) {
	s := newTestScorer(t)
	over, reasons := s.ScoreLead(Record{KeyDioxinTEQ: 0.15})
	assert.Equal(t, 40, over)
	assert.Contains(t, reasons, "Dioxin TEQ above BAT-AEL: 0.15 ng I-TEQ/Nm3 > 0.1 (+40)")

	at, _ := s.ScoreLead(Record{KeyDioxinTEQ: 0.1})
	assert.Equal(t, 0, at)
}

func TestScoreLead_Activity(t *testing.T) {
	s := newTestScorer(t)
	score, _ := s.ScoreLead(Record{KeyActivity: "Waste incineration"})
	assert.Equal(t, 15, score)
	score, _ = s.ScoreLead(Record{KeyActivity: "Landfill of waste"})
	assert.Equal(t, 10, score)
	score, _ = s.ScoreLead(Record{KeyActivity: "Cement clinker"})
	assert.Equal(t, 0, score)
}

func TestScoreLead_Deterministic(t *testing.T) {
	s := newTestScorer(t)
	r := Record{KeyEnergyInputTJ: 1200, KeyCountry: "JP", KeyStartDate: "2001-03-15", PollutantCO2: 1.0}
	s1, r1 := s.ScoreLead(r)
	s2, r2 := s.ScoreLead(r)
	assert.Equal(t, s1, s2)
	assert.Equal(t, r1, r2)
}

func TestRegion(t *testing.T) {
	s := newTestScorer(t)
	tests := []struct {
		country string
		want    string
		ok      bool
	}{
		{"DE", RegionEU, true},
		{"germany", RegionEU, true},
		{"NO", RegionEU, true},
		{"JP", RegionDevelopedAsia, true},
		{"Canada", RegionNorthAmerica, true},
		{"IN", RegionEmergingAsia, true},
		{"BR", RegionOther, true},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			region, ok := s.Region(Record{KeyCountry: tt.country})
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, region)
		})
	}

	score, reasons := s.ScoreLead(Record{KeyCountry: "BR"})
	assert.Equal(t, 5, score)
	assert.Contains(t, reasons, "Region: OTHER (BR) (+5)")
}

func TestPlantAge(t *testing.T) {
	s := newTestScorer(t)
	tests := []struct {
		name string
		rec  Record
		want int
		ok   bool
	}{
		{"explicit age", Record{KeyPlantAge: 12}, 12, true},
		{"start year", Record{KeyStartYear: 2003}, 22, true},
		{"iso date", Record{KeyStartDate: "1998-05-01"}, 27, true},
		{"year only", Record{KeyStartDate: "1985"}, 40, true},
		{"datetime", Record{KeyStartDate: "2010-01-01 00:00:00"}, 15, true},
		{"future", Record{KeyStartDate: "2030-01-01"}, 0, false},
		{"garbage", Record{KeyStartDate: "n/a"}, 0, false},
		{"missing", Record{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			age, ok := s.PlantAge(tt.rec)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, age)
		})
	}
}

func TestGetTier(t *testing.T) {
	s := newTestScorer(t)
	tests := []struct {
		score int
		tier  int
		label string
	}{
		{100, 1, "Critical"},
		{80, 1, "Critical"},
		{79, 2, "High Value"},
		{60, 2, "High Value"},
		{59, 3, "Qualified"},
		{40, 3, "Qualified"},
		{39, 4, "Nurture"},
		{25, 4, "Nurture"},
		{24, 5, "Monitor"},
		{0, 5, "Monitor"},
		{-10, 5, "Monitor"},
		{150, 1, "Critical"},
	}
	for _, tt := range tests {
		got := s.GetTier(tt.score)
		assert.Equal(t, tt.tier, got.Tier, "score %d", tt.score)
		assert.Equal(t, tt.label, got.Label, "score %d", tt.score)
		assert.NotEmpty(t, got.Action)
	}
}

func TestGetTier_TotalAndMonotonic(t *testing.T) {
	s := newTestScorer(t)
	prev := s.GetTier(0).Tier
	for score := 1; score <= 100; score++ {
		tier := s.GetTier(score).Tier
		assert.LessOrEqual(t, tier, prev, "score %d", score)
		prev = tier
	}
}

func TestFilterLead(t *testing.T) {
	s := newTestScorer(t)
	allowed := []string{"EU", "Developed_Asia", "EMERGING_ASIA"}

	tests := []struct {
		name    string
		rec     Record
		minAge  int
		allowed []string
		pass    bool
		reason  string
	}{
		{"young plant", Record{KeyStartYear: 2015, KeyCountry: "DE"}, 15, allowed, false, "plant age 10 < minimum 15 years"},
		{"region excluded", Record{KeyStartYear: 1990, KeyCountry: "US"}, 15, allowed, false, "region NORTH_AMERICA not in priority list"},
		{"missing country", Record{KeyStartYear: 1990}, 15, allowed, false, "region OTHER not in priority list"},
		{"aged EU plant", Record{KeyStartYear: 1998, KeyCountry: "DE"}, 15, allowed, true, "aged plant (27 years) in EU"},
		{"at minimum age", Record{KeyStartYear: 2010, KeyCountry: "JP"}, 15, allowed, true, "meets age (15 years) and region (DEVELOPED_ASIA) criteria"},
		{"unknown age passes", Record{KeyStartDate: "", KeyCountry: "FR"}, 15, allowed, true, "plant age unknown, region EU accepted"},
		{"no region restriction", Record{KeyStartYear: 1990, KeyCountry: "US"}, 15, nil, true, "aged plant (35 years) in NORTH_AMERICA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass, reason := s.FilterLead(tt.rec, tt.minAge, tt.allowed)
			assert.Equal(t, tt.pass, pass)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestGate_Criterion(t *testing.T) {
	s := newTestScorer(t)
	allowed := []string{"EU"}

	d := s.Gate(Record{KeyStartYear: 2020, KeyCountry: "DE"}, 15, allowed)
	assert.False(t, d.Passed)
	assert.Equal(t, CriterionAge, d.Criterion)

	d = s.Gate(Record{KeyStartYear: 1990, KeyCountry: "US"}, 15, allowed)
	assert.False(t, d.Passed)
	assert.Equal(t, CriterionRegion, d.Criterion)

	d = s.Gate(Record{KeyStartYear: 1990, KeyCountry: "DE"}, 15, allowed)
	assert.True(t, d.Passed)
	assert.Empty(t, d.Criterion)
	assert.Equal(t, "aged plant (35 years) in EU", d.Reason)
}

func TestNewDefaultsReferenceYear(t *testing.T) {
	s, err := New(DefaultRuleTable(), 0)
	require.NoError(t, err)
	assert.Positive(t, s.ReferenceYear())
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "2,500", humanize(2500))
	assert.Equal(t, "1,234,568", humanize(1234567.8))
	assert.Equal(t, "0.15", humanize(0.15))
	assert.Equal(t, "12.35", humanize(12.346))
	assert.Equal(t, "-1,000", humanize(-1000))
	assert.Equal(t, "0", humanize(0))
}
