package scorer

import (
	"strings"

	"github.com/sells-group/emissions-cli/internal/model"
)

// Pollutant signal keys.
const (
	PollutantNOx     = "nox"
	PollutantCO2     = "co2"
	PollutantSO2     = "so2"
	PollutantPM      = "pm"
	PollutantMercury = "mercury"
	PollutantDioxins = "dioxins"
)

// pollutantAlias maps E-PRTR pollutant codes (exact) and name fragments
// (case-insensitive substring) to a pollutant signal.
type pollutantAlias struct {
	signal string
	codes  []string
	names  []string
}

var pollutantAliases = []pollutantAlias{
	{PollutantNOx, []string{"NOX"}, []string{"nitrogen oxides"}},
	{PollutantCO2, []string{"CO2", "CO2 EXCL BIOMASS"}, []string{"carbon dioxide"}},
	{PollutantSO2, []string{"SOX", "SO2"}, []string{"sulphur oxides", "sulfur oxides", "sulphur dioxide", "sulfur dioxide"}},
	{PollutantPM, []string{"PM10", "PM2.5", "TSP"}, []string{"particulate"}},
	{PollutantMercury, []string{"HG"}, []string{"mercury"}},
	{PollutantDioxins, []string{"PCDD+PCDF", "PCDD + PCDF"}, []string{"dioxin", "pcdd"}},
}

// PollutantSignal returns the scoring signal for a pollutant code or name.
func PollutantSignal(code, name string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = strings.ToLower(name)
	for _, a := range pollutantAliases {
		for _, c := range a.codes {
			if code == c {
				return a.signal, true
			}
		}
		for _, n := range a.names {
			if strings.Contains(name, n) {
				return a.signal, true
			}
		}
	}
	return "", false
}

// BuildRecord converts a lead candidate and its profile into a scoring
// record. Quantities become annual averages in tonnes over the years each
// pollutant was reported. When the rule table has compliance limits and the
// facility reports a limited pollutant, a compliance status is derived.
// extras are copied in last and win over derived values.
func (s *Scorer) BuildRecord(c model.LeadCandidate, p model.Profile, extras Record) Record {
	r := Record{
		KeyFacilityID:     c.ID,
		KeyName:           c.DisplayName(),
		KeyPollutantCount: c.PollutantCount,
	}
	if c.CountryCode != "" {
		r[KeyCountry] = c.CountryCode
	}
	if c.StartDate != "" {
		r[KeyStartDate] = c.StartDate
	}
	if c.ActivityName != "" {
		r[KeyActivity] = c.ActivityName
	}
	if p.EnergyInputTJ > 0 {
		r[KeyEnergyInputTJ] = p.EnergyInputTJ
	}
	if c.YearsReported > 0 {
		r[KeyTotalEmissionsT] = model.Tonnes(c.TotalKg) / float64(c.YearsReported)
	}

	for signal, annual := range pollutantSignals(p.Pollutants) {
		r[signal] = annual
	}

	if a, ok := s.limits.Assess(r); ok {
		r[KeyCompliance] = string(a.Status)
		r[KeyComplianceBasis] = a.Basis()
	}

	extras = Normalize(extras)
	if _, ok := extras[KeyCompliance]; ok {
		delete(r, KeyComplianceBasis)
	}
	for k, v := range extras {
		r[k] = v
	}
	return r
}

// pollutantSignals returns annual tonnes per pollutant signal. Releases of
// one pollutant are summed across media. Codes that map to the same signal
// overlap (PM10 within TSP, CO2 excluding biomass within CO2), so the
// largest pollutant wins instead of a sum.
func pollutantSignals(totals []model.PollutantTotal) map[string]float64 {
	byPollutant := make(map[string]map[string]float64)
	for _, pt := range totals {
		signal, ok := PollutantSignal(pt.Code, pt.Name)
		if !ok {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(pt.Code))
		if key == "" {
			key = strings.ToLower(strings.TrimSpace(pt.Name))
		}
		if byPollutant[signal] == nil {
			byPollutant[signal] = make(map[string]float64)
		}
		years := max(pt.Years, 1)
		byPollutant[signal][key] += model.Tonnes(pt.TotalKg) / float64(years)
	}

	out := make(map[string]float64, len(byPollutant))
	for signal, pollutants := range byPollutant {
		for _, annual := range pollutants {
			out[signal] = max(out[signal], annual)
		}
	}
	return out
}
