// Package leads runs the lead-generation pipeline: find candidate facilities,
// load their profiles, gate them on plant age and region, score and tier the
// survivors and rank them.
package leads

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/emissions-cli/internal/metrics"
	"github.com/sells-group/emissions-cli/internal/model"
	"github.com/sells-group/emissions-cli/internal/query"
	"github.com/sells-group/emissions-cli/internal/scorer"
)

// Finder is the subset of the query engine the pipeline depends on.
type Finder interface {
	FindLeads(ctx context.Context, f query.LeadFilter) ([]model.LeadCandidate, error)
	Profiles(ctx context.Context, ids []string, years model.YearRange) (map[string]model.Profile, error)
}

// Options controls gating and ranking.
type Options struct {
	// MinAge rejects facilities whose known plant age is below it.
	MinAge int
	// AllowedRegions restricts leads to these regions; empty allows all.
	AllowedRegions []string
	// MinScore drops scored leads below it.
	MinScore int
	// Signals carries extra scoring signals per facility id (compliance
	// status, waste throughput, measured dioxin TEQ) that the EEA data does
	// not hold. They override derived values.
	Signals map[string]scorer.Record
}

// Rejection records why a candidate did not become a lead.
type Rejection struct {
	Candidate model.LeadCandidate `json:"candidate"`
	Criterion string              `json:"criterion"`
	Reason    string              `json:"reason"`
	Score     int                 `json:"score,omitempty"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	Leads    []model.Lead `json:"leads"`
	Rejected []Rejection  `json:"rejected"`
}

// Rejection criteria, also used as metric labels.
const (
	CriterionAge      = scorer.CriterionAge
	CriterionRegion   = scorer.CriterionRegion
	CriterionMinScore = "min_score"
)

// Pipeline wires a Finder to a Scorer.
type Pipeline struct {
	finder Finder
	scorer *scorer.Scorer
	opts   Options
}

// New creates a Pipeline.
func New(f Finder, s *scorer.Scorer, opts Options) *Pipeline {
	return &Pipeline{finder: f, scorer: s, opts: opts}
}

// Run executes the pipeline for one lead filter. Leads are ordered by score
// descending, then total releases descending, then facility id.
func (p *Pipeline) Run(ctx context.Context, f query.LeadFilter) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.String("years", f.Years.String()))

	candidates, err := p.finder.FindLeads(ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "leads: find candidates")
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	profiles, err := p.finder.Profiles(ctx, ids, f.Years)
	if err != nil {
		return nil, eris.Wrap(err, "leads: load profiles")
	}

	res := &Result{Leads: []model.Lead{}, Rejected: []Rejection{}}
	for _, c := range candidates {
		profile := profiles[c.ID]
		rec := p.scorer.BuildRecord(c, profile, p.opts.Signals[c.ID])

		gate := p.scorer.Gate(rec, p.opts.MinAge, p.opts.AllowedRegions)
		if !gate.Passed {
			metrics.LeadsFiltered.WithLabelValues(gate.Criterion).Inc()
			res.Rejected = append(res.Rejected, Rejection{Candidate: c, Criterion: gate.Criterion, Reason: gate.Reason})
			continue
		}

		score, reasons := p.scorer.ScoreLead(rec)
		if score < p.opts.MinScore {
			metrics.LeadsFiltered.WithLabelValues(CriterionMinScore).Inc()
			res.Rejected = append(res.Rejected, Rejection{
				Candidate: c,
				Criterion: CriterionMinScore,
				Reason:    fmt.Sprintf("score %d below minimum %d", score, p.opts.MinScore),
				Score:     score,
			})
			continue
		}

		tier := p.scorer.GetTier(score)
		metrics.LeadsScored.WithLabelValues(strconv.Itoa(tier.Tier)).Inc()
		res.Leads = append(res.Leads, model.Lead{
			LeadCandidate: c,
			EnergyInputTJ: profile.EnergyInputTJ,
			Score:         score,
			Tier:          tier.Tier,
			TierLabel:     tier.Label,
			Action:        tier.Action,
			Reasons:       append([]string{"Filter: " + gate.Reason}, reasons...),
		})
	}

	Sort(res.Leads)

	log.Info("leads: pipeline complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("leads", len(res.Leads)),
		zap.Int("rejected", len(res.Rejected)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// Sort orders leads by score descending, total releases descending, then
// facility id ascending.
func Sort(leads []model.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		a, b := leads[i], leads[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TotalKg != b.TotalKg {
			return a.TotalKg > b.TotalKg
		}
		return a.ID < b.ID
	})
}

// ByTier groups leads by tier number, preserving order within each tier.
func ByTier(leads []model.Lead) map[int][]model.Lead {
	out := make(map[int][]model.Lead)
	for _, l := range leads {
		out[l.Tier] = append(out[l.Tier], l)
	}
	return out
}
