package scorer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// Scorer evaluates a validated RuleTable. It holds no mutable state and is
// safe for concurrent use.
type Scorer struct {
	rules   []Rule
	tiers   []Tier
	regions map[string]string
	limits  *ComplianceLimits
	refYear int
}

// New validates rules and returns a Scorer. refYear is the year plant age is
// measured against; zero means the current year.
func New(rules RuleTable, refYear int) (*Scorer, error) {
	rules.sort()
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	if refYear <= 0 {
		refYear = time.Now().Year()
	}

	s := &Scorer{
		tiers:   rules.Tiers,
		regions: make(map[string]string, len(rules.Regions)),
		limits:  rules.ComplianceLimits,
		refYear: refYear,
	}
	for k, v := range rules.Regions {
		s.regions[strings.ToUpper(strings.TrimSpace(k))] = NormalizeRegion(v)
	}
	for _, r := range rules.Rules {
		if len(r.Categories) > 0 {
			cats := make(map[string]int, len(r.Categories))
			for k, v := range r.Categories {
				cats[NormalizeRegion(k)] = v
			}
			r.Categories = cats
		}
		s.rules = append(s.rules, r)
	}
	return s, nil
}

// ReferenceYear returns the year plant ages are computed against.
func (s *Scorer) ReferenceYear() int {
	return s.refYear
}

// Tiers returns the score ladder, highest first.
func (s *Scorer) Tiers() []Tier {
	out := make([]Tier, len(s.tiers))
	copy(out, s.tiers)
	return out
}

// PlantAge derives the plant age from plant_age, start_year or start_date.
// A start year after the reference year is treated as unknown.
func (s *Scorer) PlantAge(r Record) (int, bool) {
	if age, ok := r.Number(KeyPlantAge); ok && age >= 0 {
		return int(age), true
	}
	y, ok := r.StartYear()
	if !ok || y > s.refYear {
		return 0, false
	}
	return s.refYear - y, true
}

// Region maps the record's country to a regulatory region. ok is false when
// the record has no country; unmapped countries are RegionOther.
func (s *Scorer) Region(r Record) (region string, ok bool) {
	country, ok := r.String(KeyCountry)
	if !ok {
		return "", false
	}
	if region, found := s.regions[strings.ToUpper(country)]; found {
		return region, true
	}
	return RegionOther, true
}

// ScoreLead sums every rule's contribution, clamps the total to
// [MinScore, MaxScore] and returns one reason per evaluated rule in rule
// order. Missing or malformed signals contribute nothing.
func (s *Scorer) ScoreLead(r Record) (int, []string) {
	total := 0
	reasons := make([]string, 0, len(s.rules))
	for _, rule := range s.rules {
		points, reason := s.evaluate(rule, r)
		total += points
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}
	return clamp(total), reasons
}

func clamp(score int) int {
	return int(math.Min(MaxScore, math.Max(MinScore, float64(score))))
}

func (s *Scorer) evaluate(rule Rule, r Record) (int, string) {
	switch rule.Kind {
	case KindBands:
		v, ok := s.number(rule.Signal, r)
		if !ok {
			return 0, skipped(rule)
		}
		for _, b := range rule.Bands {
			if v > b.Above {
				return b.Points, fmt.Sprintf("%s: %s %s > %s (%+d)",
					rule.Name, humanize(v), rule.Unit, humanize(b.Above), b.Points)
			}
		}
		lowest := rule.Bands[len(rule.Bands)-1].Above
		return 0, fmt.Sprintf("%s: %s %s not above %s (+0)", rule.Name, humanize(v), rule.Unit, humanize(lowest))

	case KindPresence:
		present, known := r.Presence(rule.Signal)
		if !known {
			return 0, skipped(rule)
		}
		if !present {
			return 0, fmt.Sprintf("%s: not reported (+0)", rule.Name)
		}
		if q, ok := r.Number(rule.Signal); ok {
			return rule.Points, fmt.Sprintf("%s present: %s %s (%+d)", rule.Name, humanize(q), rule.Unit, rule.Points)
		}
		return rule.Points, fmt.Sprintf("%s present (%+d)", rule.Name, rule.Points)

	case KindCategory:
		value, detail, ok := s.category(rule.Signal, r)
		if !ok {
			return 0, skipped(rule)
		}
		points := rule.Categories[NormalizeRegion(value)]
		return points, fmt.Sprintf("%s: %s%s (%+d)", rule.Name, value, detail, points)

	case KindKeyword:
		text, ok := r.String(rule.Signal)
		if !ok {
			return 0, skipped(rule)
		}
		lower := strings.ToLower(text)
		for _, k := range rule.Keywords {
			if strings.Contains(lower, strings.ToLower(k.Match)) {
				return k.Points, fmt.Sprintf("%s: %q matches %q (%+d)", rule.Name, text, k.Match, k.Points)
			}
		}
		return 0, fmt.Sprintf("%s: %q matches no keyword (+0)", rule.Name, text)
	}
	return 0, ""
}

func skipped(rule Rule) string {
	return rule.Name + ": no data (skipped)"
}

// number resolves a numeric signal, deriving plant age when asked.
func (s *Scorer) number(signal string, r Record) (float64, bool) {
	if signal == SignalPlantAge {
		age, ok := s.PlantAge(r)
		return float64(age), ok
	}
	return r.Number(signal)
}

// category resolves a categorical signal. detail carries context for the
// reason (the country behind a region).
func (s *Scorer) category(signal string, r Record) (value, detail string, ok bool) {
	switch signal {
	case SignalRegion:
		region, ok := s.Region(r)
		if !ok {
			return "", "", false
		}
		country, _ := r.String(KeyCountry)
		return region, " (" + country + ")", true
	case KeyCompliance:
		raw, ok := r.String(KeyCompliance)
		if !ok {
			raw, ok = r.String(KeyComplianceStatus)
		}
		if !ok {
			return "", "", false
		}
		detail := ""
		if basis, ok := r.String(KeyComplianceBasis); ok {
			detail = " (" + basis + ")"
		}
		return string(ParseCompliance(raw)), detail, true
	}
	v, ok := r.String(signal)
	return v, "", ok
}

// GetTier maps a score to its tier. Scores outside [0, 100] are clamped, so
// every integer maps to exactly one tier.
func (s *Scorer) GetTier(score int) Tier {
	score = clamp(score)
	for _, t := range s.tiers {
		if score >= t.Min {
			return t
		}
	}
	return s.tiers[len(s.tiers)-1]
}

// Gate criteria, reported in Decision.Criterion.
const (
	CriterionAge    = "age"
	CriterionRegion = "region"
)

// Decision is the outcome of the pre-scoring gate. Criterion names the check
// that rejected the record and is empty when it passed.
type Decision struct {
	Passed    bool
	Criterion string
	Reason    string
}

// Gate rejects a record whose known plant age is below minAge or whose
// region is not in allowedRegions (empty means any region). An unknown age
// never rejects; a missing country counts as RegionOther.
func (s *Scorer) Gate(r Record, minAge int, allowedRegions []string) Decision {
	age, ageKnown := s.PlantAge(r)
	if ageKnown && age < minAge {
		return Decision{Criterion: CriterionAge, Reason: fmt.Sprintf("plant age %d < minimum %d years", age, minAge)}
	}

	region, ok := s.Region(r)
	if !ok {
		region = RegionOther
	}
	if len(allowedRegions) > 0 && !containsRegion(allowedRegions, region) {
		return Decision{Criterion: CriterionRegion, Reason: fmt.Sprintf("region %s not in priority list", region)}
	}

	switch {
	case ageKnown && age > 20:
		return Decision{Passed: true, Reason: fmt.Sprintf("aged plant (%d years) in %s", age, region)}
	case !ageKnown:
		return Decision{Passed: true, Reason: fmt.Sprintf("plant age unknown, region %s accepted", region)}
	default:
		return Decision{Passed: true, Reason: fmt.Sprintf("meets age (%d years) and region (%s) criteria", age, region)}
	}
}

// FilterLead is the pre-scoring gate as a pass flag and a reason; see Gate.
func (s *Scorer) FilterLead(r Record, minAge int, allowedRegions []string) (bool, string) {
	d := s.Gate(r, minAge, allowedRegions)
	return d.Passed, d.Reason
}

func containsRegion(allowed []string, region string) bool {
	for _, a := range allowed {
		if NormalizeRegion(a) == region {
			return true
		}
	}
	return false
}

// humanize formats a quantity for reasons: integers and large values with
// thousands separators, small fractions with four significant digits.
func humanize(v float64) string {
	if v == math.Trunc(v) || math.Abs(v) >= 100 {
		return groupThousands(int64(math.Round(v)))
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String()
}
