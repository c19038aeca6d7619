package scorer

import (
	"fmt"
	"sort"
	"strings"
)

// Compliance is the normalized regulatory compliance status of a facility.
type Compliance string

const (
	ComplianceUnknown     Compliance = "unknown"
	ComplianceCompliant   Compliance = "compliant"
	ComplianceAtRisk      Compliance = "at_risk"
	ComplianceApproaching Compliance = "approaching"
	ComplianceViolating   Compliance = "violating"
	ComplianceCritical    Compliance = "critical"
)

// negatedMarkers are matched before complianceMarkers. A match is removed
// from the text so the remainder can still name a status ("no violations,
// approaching limit"); when nothing else matches, the negation's status is
// used.
var negatedMarkers = []struct {
	status  Compliance
	markers []string
}{
	{ComplianceViolating, []string{"not compliant", "not in compliance", "not within limit"}},
	{ComplianceCompliant, []string{
		"no violation", "not violat", "without violation",
		"no exceed", "not exceed", "no breach",
		"no risk", "not at risk", "not critical", "no critical",
	}},
}

// complianceMarkers are checked in order; the first matching marker wins,
// so more severe statuses are listed first.
var complianceMarkers = []struct {
	status  Compliance
	markers []string
}{
	{ComplianceCritical, []string{"critical", "severe"}},
	{ComplianceViolating, []string{"violat", "non-compliant", "noncompliant", "non compliant", "exceed", "breach"}},
	{ComplianceApproaching, []string{"approach", "near limit", "warning"}},
	{ComplianceAtRisk, []string{"at_risk", "at risk", "risk"}},
	{ComplianceCompliant, []string{"compliant", "within limit"}},
}

// ParseCompliance maps free text ("Critical violation", "approaching
// limit", "no violations") to a Compliance value. Unrecognized text is
// ComplianceUnknown.
func ParseCompliance(s string) Compliance {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ComplianceUnknown
	}

	negated := ComplianceUnknown
	for _, c := range negatedMarkers {
		for _, m := range c.markers {
			if !strings.Contains(s, m) {
				continue
			}
			if negated == ComplianceUnknown {
				negated = c.status
			}
			s = strings.ReplaceAll(s, m, " ")
		}
	}

	for _, c := range complianceMarkers {
		for _, m := range c.markers {
			if strings.Contains(s, m) {
				return c.status
			}
		}
	}
	return negated
}

// ComplianceLimits derives a compliance status from reported annual releases
// when no status is supplied. Limits are tonnes per year for a facility of
// ReferenceTJ energy input and scale linearly with the facility's reported
// energy input; facilities without energy data are assessed at ReferenceTJ.
type ComplianceLimits struct {
	ReferenceTJ float64 `yaml:"reference_tj"`
	// AtRiskMargin and ApproachingMargin are fractions below the limit.
	AtRiskMargin      float64 `yaml:"at_risk_margin"`
	ApproachingMargin float64 `yaml:"approaching_margin"`
	// CriticalExcess is the fraction above the limit beyond which a
	// violation is critical.
	CriticalExcess float64 `yaml:"critical_excess"`
	// Standards are tried in order; the first whose activity keywords match
	// the facility activity applies. A standard without keywords is the
	// fallback.
	Standards []ComplianceStandard `yaml:"standards"`
}

// ComplianceStandard is a set of per-pollutant annual limits keyed by
// pollutant signal (nox, so2, ...).
type ComplianceStandard struct {
	Name       string             `yaml:"name"`
	Activities []string           `yaml:"activities,omitempty"`
	Limits     map[string]float64 `yaml:"limits"`
}

// DefaultComplianceLimits returns the NOx screening thresholds: 100 t/yr per
// 1000 TJ of energy input for both waste incineration and large combustion
// plants, with a 20% at-risk band below the limit.
func DefaultComplianceLimits() *ComplianceLimits {
	return &ComplianceLimits{
		ReferenceTJ:       1000,
		AtRiskMargin:      0.2,
		ApproachingMargin: 0.1,
		CriticalExcess:    0.1,
		Standards: []ComplianceStandard{
			{
				Name:       "BAT-AEL waste incineration",
				Activities: []string{"incinerat", "waste"},
				Limits:     map[string]float64{PollutantNOx: 100},
			},
			{
				Name:   "BAT-AEL large combustion",
				Limits: map[string]float64{PollutantNOx: 100},
			},
		},
	}
}

// Assessment is the outcome of checking one record against ComplianceLimits.
type Assessment struct {
	Status   Compliance
	Standard string
	Signal   string
	Actual   float64
	Limit    float64
}

// Basis describes the worst pollutant behind the status, for reasons.
func (a Assessment) Basis() string {
	return fmt.Sprintf("%s %s t/yr vs %s t/yr %s", signalLabel(a.Signal), humanize(a.Actual), humanize(a.Limit), a.Standard)
}

// standardFor picks the standard for an activity description.
func (l *ComplianceLimits) standardFor(activity string) (ComplianceStandard, bool) {
	activity = strings.ToLower(activity)
	for _, st := range l.Standards {
		if len(st.Activities) == 0 {
			return st, true
		}
		for _, kw := range st.Activities {
			if kw != "" && strings.Contains(activity, strings.ToLower(kw)) {
				return st, true
			}
		}
	}
	return ComplianceStandard{}, false
}

// Assess checks the numeric pollutant signals of r against the applicable
// standard. ok is false when limits are disabled, no standard applies or r
// reports none of the limited pollutants.
func (l *ComplianceLimits) Assess(r Record) (Assessment, bool) {
	if l == nil || len(l.Standards) == 0 || l.ReferenceTJ <= 0 {
		return Assessment{}, false
	}
	activity, _ := r.String(KeyActivity)
	st, ok := l.standardFor(activity)
	if !ok {
		return Assessment{}, false
	}

	scale := 1.0
	if tj, ok := r.Number(KeyEnergyInputTJ); ok && tj > 0 {
		scale = tj / l.ReferenceTJ
	}

	var worst Assessment
	worstRatio := -1.0
	for _, sig := range sortedKeys(st.Limits) {
		base := st.Limits[sig]
		actual, ok := r.Number(sig)
		if !ok || base <= 0 {
			continue
		}
		limit := base * scale
		if ratio := actual / limit; ratio > worstRatio {
			worstRatio = ratio
			worst = Assessment{Standard: st.Name, Signal: sig, Actual: actual, Limit: limit}
		}
	}
	if worstRatio < 0 {
		return Assessment{}, false
	}

	switch {
	case worstRatio > 1+l.CriticalExcess:
		worst.Status = ComplianceCritical
	case worstRatio > 1:
		worst.Status = ComplianceViolating
	case worstRatio >= 1-l.ApproachingMargin:
		worst.Status = ComplianceApproaching
	case worstRatio >= 1-l.AtRiskMargin:
		worst.Status = ComplianceAtRisk
	default:
		worst.Status = ComplianceCompliant
	}
	return worst, true
}

func (l *ComplianceLimits) validate() []string {
	if l == nil {
		return nil
	}
	var errs []string
	if len(l.Standards) > 0 && l.ReferenceTJ <= 0 {
		errs = append(errs, "compliance_limits.reference_tj must be > 0")
	}
	if l.AtRiskMargin < 0 || l.AtRiskMargin >= 1 {
		errs = append(errs, "compliance_limits.at_risk_margin must be in [0, 1)")
	}
	if l.ApproachingMargin < 0 || l.ApproachingMargin >= 1 {
		errs = append(errs, "compliance_limits.approaching_margin must be in [0, 1)")
	}
	if l.ApproachingMargin > l.AtRiskMargin {
		errs = append(errs, "compliance_limits.approaching_margin must not exceed at_risk_margin")
	}
	if l.CriticalExcess < 0 {
		errs = append(errs, "compliance_limits.critical_excess must be >= 0")
	}
	for i, st := range l.Standards {
		if len(st.Limits) == 0 {
			errs = append(errs, fmt.Sprintf("compliance_limits.standards[%d]: limits are required", i))
		}
		for _, sig := range sortedKeys(st.Limits) {
			if st.Limits[sig] <= 0 {
				errs = append(errs, fmt.Sprintf("compliance_limits.standards[%d]: limit for %s must be > 0", i, sig))
			}
		}
	}
	return errs
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var signalLabels = map[string]string{
	PollutantNOx:     "NOx",
	PollutantCO2:     "CO2",
	PollutantSO2:     "SO2",
	PollutantPM:      "PM",
	PollutantMercury: "Hg",
	PollutantDioxins: "PCDD/F",
}

func signalLabel(sig string) string {
	if l, ok := signalLabels[sig]; ok {
		return l
	}
	return sig
}
