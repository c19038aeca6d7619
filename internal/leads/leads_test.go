package leads

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/emissions-cli/internal/config"
	"github.com/sells-group/emissions-cli/internal/db/dbtest"
	"github.com/sells-group/emissions-cli/internal/model"
	"github.com/sells-group/emissions-cli/internal/query"
	"github.com/sells-group/emissions-cli/internal/scorer"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) FindLeads(ctx context.Context, f query.LeadFilter) ([]model.LeadCandidate, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LeadCandidate), args.Error(1)
}

func (m *mockFinder) Profiles(ctx context.Context, ids []string, years model.YearRange) (map[string]model.Profile, error) {
	args := m.Called(ctx, ids, years)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.Profile), args.Error(1)
}

var years1721 = model.YearRange{From: 2017, To: 2021}

func newScorer(t *testing.T) *scorer.Scorer {
	t.Helper()
	s, err := scorer.New(scorer.DefaultRuleTable(), 2025)
	require.NoError(t, err)
	return s
}

func candidate(id, country, start string) model.LeadCandidate {
	return model.LeadCandidate{Facility: model.Facility{ID: id, Name: id, CountryCode: country, StartDate: start}}
}

func leadIDs(leads []model.Lead) []string {
	ids := make([]string, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
	}
	return ids
}

func TestRun_GatesScoresAndTiers(t *testing.T) {
	f := query.LeadFilter{Years: years1721}
	m := &mockFinder{}
	m.On("FindLeads", mock.Anything, f).Return([]model.LeadCandidate{
		candidate("A", "US", "1990"),
		candidate("B", "DE", "1990"),
		candidate("C", "FR", "2020"),
	}, nil)
	m.On("Profiles", mock.Anything, []string{"A", "B", "C"}, years1721).Return(map[string]model.Profile{
		"B": {FacilityID: "B", EnergyInputTJ: 2500},
	}, nil)

	p := New(m, newScorer(t), Options{MinAge: 15, AllowedRegions: []string{"EU"}})
	res, err := p.Run(context.Background(), f)
	require.NoError(t, err)
	m.AssertExpectations(t)

	require.Len(t, res.Leads, 1)
	lead := res.Leads[0]
	assert.Equal(t, "B", lead.ID)
	assert.Equal(t, 65, lead.Score)
	assert.Equal(t, 2, lead.Tier)
	assert.Equal(t, "High Value", lead.TierLabel)
	assert.NotEmpty(t, lead.Action)
	assert.InDelta(t, 2500, lead.EnergyInputTJ, 1e-9)
	assert.Equal(t, "Filter: aged plant (35 years) in EU", lead.Reasons[0])
	assert.Contains(t, lead.Reasons, "Region: EU (DE) (+25)")

	require.Len(t, res.Rejected, 2)
	assert.Equal(t, "A", res.Rejected[0].Candidate.ID)
	assert.Equal(t, CriterionRegion, res.Rejected[0].Criterion)
	assert.Equal(t, "region NORTH_AMERICA not in priority list", res.Rejected[0].Reason)
	assert.Equal(t, "C", res.Rejected[1].Candidate.ID)
	assert.Equal(t, CriterionAge, res.Rejected[1].Criterion)
	assert.Equal(t, "plant age 5 < minimum 15 years", res.Rejected[1].Reason)
}

func TestRun_SignalsAndMinScore(t *testing.T) {
	f := query.LeadFilter{Years: years1721}
	m := &mockFinder{}
	m.On("FindLeads", mock.Anything, f).Return([]model.LeadCandidate{
		candidate("A", "DE", "1990"),
		candidate("B", "DE", "1990"),
	}, nil)
	m.On("Profiles", mock.Anything, []string{"A", "B"}, years1721).Return(map[string]model.Profile{}, nil)

	p := New(m, newScorer(t), Options{
		MinScore: 60,
		Signals: map[string]scorer.Record{
			"B": {"Compliance_Status": "Critical violation"},
		},
	})
	res, err := p.Run(context.Background(), f)
	require.NoError(t, err)

	// A: age 20 + region 25 = 45, below 60. B adds 40 for critical compliance.
	assert.Equal(t, []string{"B"}, leadIDs(res.Leads))
	assert.Equal(t, 85, res.Leads[0].Score)
	assert.Equal(t, 1, res.Leads[0].Tier)

	require.Len(t, res.Rejected, 1)
	assert.Equal(t, CriterionMinScore, res.Rejected[0].Criterion)
	assert.Equal(t, "score 45 below minimum 60", res.Rejected[0].Reason)
	assert.Equal(t, 45, res.Rejected[0].Score)
}

func TestRun_Empty(t *testing.T) {
	f := query.LeadFilter{Years: years1721}
	m := &mockFinder{}
	m.On("FindLeads", mock.Anything, f).Return([]model.LeadCandidate{}, nil)
	m.On("Profiles", mock.Anything, []string{}, years1721).Return(map[string]model.Profile{}, nil)

	res, err := New(m, newScorer(t), Options{}).Run(context.Background(), f)
	require.NoError(t, err)
	assert.NotNil(t, res.Leads)
	assert.Empty(t, res.Leads)
	assert.Empty(t, res.Rejected)
}

func TestRun_FinderErrors(t *testing.T) {
	f := query.LeadFilter{Years: years1721}
	boom := errors.New("boom")

	m := &mockFinder{}
	m.On("FindLeads", mock.Anything, f).Return(nil, boom)
	_, err := New(m, newScorer(t), Options{}).Run(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leads: find candidates")

	m = &mockFinder{}
	m.On("FindLeads", mock.Anything, f).Return([]model.LeadCandidate{candidate("A", "DE", "")}, nil)
	m.On("Profiles", mock.Anything, []string{"A"}, years1721).Return(nil, boom)
	_, err = New(m, newScorer(t), Options{}).Run(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leads: load profiles")
}

func TestSort(t *testing.T) {
	mk := func(id string, score int, kg float64) model.Lead {
		return model.Lead{LeadCandidate: model.LeadCandidate{Facility: model.Facility{ID: id}, TotalKg: kg}, Score: score}
	}
	leads := []model.Lead{
		mk("c", 50, 10),
		mk("b", 70, 10),
		mk("a", 50, 10),
		mk("d", 50, 99),
	}
	Sort(leads)
	assert.Equal(t, []string{"b", "d", "a", "c"}, leadIDs(leads))
}

func TestByTier(t *testing.T) {
	leads := []model.Lead{{Tier: 1, Score: 90}, {Tier: 2, Score: 70}, {Tier: 1, Score: 85}}
	groups := ByTier(leads)
	require.Len(t, groups, 2)
	assert.Len(t, groups[1], 2)
	assert.Equal(t, 85, groups[1][1].Score)
}

func TestRun_SampleDatabase(t *testing.T) {
	h, _ := dbtest.New(t, dbtest.Sample())
	e := query.New(h, config.QueryConfig{FacilityLimit: 100, EmissionLimit: 200, TopN: 10, LeadLimit: 100, MaxLimit: 5000}, nil, 0)

	p := New(e, newScorer(t), Options{
		MinAge:         15,
		AllowedRegions: []string{"EU", "DEVELOPED_ASIA", "EMERGING_ASIA"},
	})
	res, err := p.Run(context.Background(), query.LeadFilter{Years: years1721})
	require.NoError(t, err)

	assert.Equal(t, []string{dbtest.KraftwerkNord, dbtest.RecyclingCo, dbtest.PlantaEste}, leadIDs(res.Leads))
	assert.Equal(t, []int{100, 90, 70}, []int{res.Leads[0].Score, res.Leads[1].Score, res.Leads[2].Score})
	assert.Equal(t, 1, res.Leads[0].Tier)
	assert.Equal(t, 1, res.Leads[1].Tier)
	assert.Equal(t, 2, res.Leads[2].Tier)
	assert.InDelta(t, 2500, res.Leads[0].EnergyInputTJ, 1e-9)
	assert.Contains(t, res.Leads[0].Reasons, "NOx present: 900 t/yr (+15)")
	assert.Contains(t, res.Leads[0].Reasons, "Compliance: critical (NOx 900 t/yr vs 250 t/yr BAT-AEL large combustion) (+40)")
	assert.Contains(t, res.Leads[2].Reasons, "Compliance: no data (skipped)")
	assert.Contains(t, res.Leads[1].Reasons, `Activity: "Waste incineration" matches "incinerat" (+15)`)

	require.Len(t, res.Rejected, 1)
	assert.Equal(t, dbtest.UsineSud, res.Rejected[0].Candidate.ID)
	assert.Equal(t, "plant age 10 < minimum 15 years", res.Rejected[0].Reason)
}
