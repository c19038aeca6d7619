// Package scorer turns a facility record into a 0-100 lead score with an
// audit trail of reasons, maps scores to priority tiers and gates leads on
// plant age and regulatory region. Scoring is a sum of independent rules from
// a declarative table; nothing here performs I/O except LoadRules.
package scorer

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// RuleKind selects how a rule turns its signal into points.
type RuleKind string

const (
	// KindBands awards the points of the highest band the numeric signal
	// strictly exceeds.
	KindBands RuleKind = "bands"
	// KindPresence awards fixed points when the signal is present (true or
	// a positive quantity).
	KindPresence RuleKind = "presence"
	// KindCategory looks the categorical signal up in a points table.
	KindCategory RuleKind = "category"
	// KindKeyword awards the points of the first keyword found in the
	// signal text.
	KindKeyword RuleKind = "keyword"
)

// Band awards Points when a value is strictly greater than Above.
type Band struct {
	Above  float64 `yaml:"above"`
	Points int     `yaml:"points"`
}

// Keyword awards Points when the signal text contains Match.
type Keyword struct {
	Match  string `yaml:"match"`
	Points int    `yaml:"points"`
}

// Rule is one independently evaluated scoring rule.
type Rule struct {
	Name       string         `yaml:"name"`
	Signal     string         `yaml:"signal"`
	Kind       RuleKind       `yaml:"kind"`
	Unit       string         `yaml:"unit,omitempty"`
	Bands      []Band         `yaml:"bands,omitempty"`
	Points     int            `yaml:"points,omitempty"`
	Categories map[string]int `yaml:"categories,omitempty"`
	Keywords   []Keyword      `yaml:"keywords,omitempty"`
}

// Tier is one rung of the score ladder. A score belongs to the first tier
// (in descending Min order) whose Min it reaches.
type Tier struct {
	Min    int    `yaml:"min" json:"min"`
	Tier   int    `yaml:"tier" json:"tier"`
	Label  string `yaml:"label" json:"label"`
	Action string `yaml:"action" json:"action"`
}

// RuleTable is the complete scoring configuration.
type RuleTable struct {
	Rules []Rule `yaml:"rules"`
	Tiers []Tier `yaml:"tiers"`
	// Regions maps upper-cased country codes or names to a region. Entries
	// loaded from a file extend the default table.
	Regions map[string]string `yaml:"regions"`
	// ComplianceLimits derives a compliance status from reported releases.
	// nil disables derivation.
	ComplianceLimits *ComplianceLimits `yaml:"compliance_limits,omitempty"`
}

// DefaultRuleTable returns the built-in rules. Rule order is evaluation
// order and therefore reason order.
func DefaultRuleTable() RuleTable {
	return RuleTable{
		Rules: []Rule{
			{Name: "Facility size", Signal: KeyEnergyInputTJ, Kind: KindBands, Unit: "TJ/yr", Bands: []Band{
				{Above: 5000, Points: 25}, {Above: 1000, Points: 20}, {Above: 500, Points: 15}, {Above: 100, Points: 5},
			}},
			{Name: "Waste throughput", Signal: KeyWasteThroughputT, Kind: KindBands, Unit: "t/yr", Bands: []Band{
				{Above: 500_000, Points: 20}, {Above: 250_000, Points: 15}, {Above: 100_000, Points: 10},
			}},
			{Name: "Total emissions", Signal: KeyTotalEmissionsT, Kind: KindBands, Unit: "t/yr", Bands: []Band{
				{Above: 1000, Points: 20}, {Above: 100, Points: 15},
			}},
			{Name: "Pollutant diversity", Signal: KeyPollutantCount, Kind: KindBands, Unit: "pollutants", Bands: []Band{
				{Above: 5, Points: 10}, {Above: 2, Points: 5},
			}},
			{Name: "NOx", Signal: PollutantNOx, Kind: KindPresence, Unit: "t/yr", Points: 15},
			{Name: "CO2", Signal: PollutantCO2, Kind: KindPresence, Unit: "t/yr", Points: 10},
			{Name: "SO2", Signal: PollutantSO2, Kind: KindPresence, Unit: "t/yr", Points: 10},
			{Name: "Particulates", Signal: PollutantPM, Kind: KindPresence, Unit: "t/yr", Points: 10},
			{Name: "Mercury", Signal: PollutantMercury, Kind: KindPresence, Unit: "t/yr", Points: 15},
			{Name: "Dioxins", Signal: PollutantDioxins, Kind: KindPresence, Unit: "t/yr", Points: 15},
			{Name: "Dioxin TEQ above BAT-AEL", Signal: KeyDioxinTEQ, Kind: KindBands, Unit: "ng I-TEQ/Nm3", Bands: []Band{
				{Above: 0.1, Points: 40},
			}},
			{Name: "Compliance", Signal: KeyCompliance, Kind: KindCategory, Categories: map[string]int{
				string(ComplianceCritical):    40,
				string(ComplianceViolating):   30,
				string(ComplianceApproaching): 20,
				string(ComplianceAtRisk):      15,
				string(ComplianceCompliant):   0,
				string(ComplianceUnknown):     0,
			}},
			{Name: "Plant age", Signal: SignalPlantAge, Kind: KindBands, Unit: "years", Bands: []Band{
				{Above: 20, Points: 20}, {Above: 15, Points: 15}, {Above: 10, Points: 10},
			}},
			{Name: "Region", Signal: SignalRegion, Kind: KindCategory, Categories: map[string]int{
				RegionEU:            25,
				RegionDevelopedAsia: 20,
				RegionNorthAmerica:  15,
				RegionEmergingAsia:  10,
				RegionOther:         5,
			}},
			{Name: "Activity", Signal: KeyActivity, Kind: KindKeyword, Keywords: []Keyword{
				{Match: "incinerat", Points: 15},
				{Match: "waste", Points: 10},
			}},
		},
		Tiers:            DefaultTiers(),
		Regions:          DefaultRegions(),
		ComplianceLimits: DefaultComplianceLimits(),
	}
}

// DefaultTiers is the shared score ladder.
func DefaultTiers() []Tier {
	return []Tier{
		{Min: 80, Tier: 1, Label: "Critical", Action: "Immediate outreach: contact within 48 hours with a compliance-driven proposal"},
		{Min: 60, Tier: 2, Label: "High Value", Action: "Priority outreach this week with retrofit case studies"},
		{Min: 40, Tier: 3, Label: "Qualified", Action: "Add to active pipeline and schedule a discovery call"},
		{Min: 25, Tier: 4, Label: "Nurture", Action: "Add to nurture campaign with quarterly check-ins"},
		{Min: 0, Tier: 5, Label: "Monitor", Action: "Monitor annual E-PRTR reporting for changes"},
	}
}

// LoadRules reads a YAML rule file on top of the defaults; see ParseRules.
func LoadRules(path string) (RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleTable{}, eris.Wrapf(err, "scorer: read rules %s", path)
	}
	return ParseRules(data)
}

// ParseRules applies a YAML rule document on top of the defaults. A document
// that sets rules or tiers replaces that list, a compliance_limits section
// replaces the default limits, and regions are merged into the default
// region table. The result is validated.
func ParseRules(data []byte) (RuleTable, error) {
	var file RuleTable
	if err := yaml.Unmarshal(data, &file); err != nil {
		return RuleTable{}, eris.Wrap(err, "scorer: parse rules")
	}

	table := DefaultRuleTable()
	if len(file.Rules) > 0 {
		table.Rules = file.Rules
	}
	if len(file.Tiers) > 0 {
		table.Tiers = file.Tiers
	}
	for k, v := range file.Regions {
		table.Regions[strings.ToUpper(strings.TrimSpace(k))] = NormalizeRegion(v)
	}
	if file.ComplianceLimits != nil {
		table.ComplianceLimits = file.ComplianceLimits
	}

	table.sort()
	if err := ValidateRules(table); err != nil {
		return RuleTable{}, err
	}
	return table, nil
}

// sort orders bands and tiers highest-first.
func (t *RuleTable) sort() {
	for i := range t.Rules {
		bands := t.Rules[i].Bands
		sort.SliceStable(bands, func(a, b int) bool { return bands[a].Above > bands[b].Above })
	}
	sort.SliceStable(t.Tiers, func(a, b int) bool { return t.Tiers[a].Min > t.Tiers[b].Min })
}

// ValidateRules checks that a RuleTable is internally consistent: every
// rule is well formed and the tier ladder covers [0, 100] with tier numbers
// that never favor a lower score.
func ValidateRules(t RuleTable) error {
	var errs []string

	for i, r := range t.Rules {
		label := fmt.Sprintf("rules[%d]", i)
		if r.Name != "" {
			label = fmt.Sprintf("rule %q", r.Name)
		}
		if r.Name == "" {
			errs = append(errs, label+": name is required")
		}
		if r.Signal == "" {
			errs = append(errs, label+": signal is required")
		}
		switch r.Kind {
		case KindBands:
			if len(r.Bands) == 0 {
				errs = append(errs, label+": bands rule needs at least one band")
			}
			for j := 1; j < len(r.Bands); j++ {
				if r.Bands[j].Above >= r.Bands[j-1].Above {
					errs = append(errs, label+": band thresholds must be distinct and descending")
					break
				}
			}
		case KindPresence:
		case KindCategory:
			if len(r.Categories) == 0 {
				errs = append(errs, label+": category rule needs categories")
			}
		case KindKeyword:
			if len(r.Keywords) == 0 {
				errs = append(errs, label+": keyword rule needs keywords")
			}
			for _, k := range r.Keywords {
				if strings.TrimSpace(k.Match) == "" {
					errs = append(errs, label+": keyword match must not be empty")
					break
				}
			}
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown kind %q", label, r.Kind))
		}
	}

	if len(t.Tiers) == 0 {
		errs = append(errs, "at least one tier is required")
	}
	seen := map[int]bool{}
	for i, tier := range t.Tiers {
		if seen[tier.Tier] {
			errs = append(errs, fmt.Sprintf("tier %d is defined twice", tier.Tier))
		}
		seen[tier.Tier] = true
		if tier.Label == "" {
			errs = append(errs, fmt.Sprintf("tier %d: label is required", tier.Tier))
		}
		if i > 0 {
			prev := t.Tiers[i-1]
			if tier.Min >= prev.Min {
				errs = append(errs, "tier minimums must be distinct and descending")
			}
			if tier.Tier <= prev.Tier {
				errs = append(errs, fmt.Sprintf("tier %d (min %d) must have a larger tier number than tier %d (min %d)",
					tier.Tier, tier.Min, prev.Tier, prev.Min))
			}
		}
	}
	if n := len(t.Tiers); n > 0 && t.Tiers[n-1].Min > 0 {
		errs = append(errs, fmt.Sprintf("lowest tier minimum must be <= 0, got %d", t.Tiers[n-1].Min))
	}
	errs = append(errs, t.ComplianceLimits.validate()...)

	if len(errs) > 0 {
		return eris.Errorf("scorer: rule validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
