package model

// LeadCandidate is a facility with release aggregates over a year range, as
// returned by the lead finder before scoring.
type LeadCandidate struct {
	Facility
	YearsReported  int     `db:"years_reported" json:"years_reported"`
	PollutantCount int     `db:"pollutant_count" json:"pollutant_count"`
	TotalKg        float64 `db:"total_kg" json:"total_kg"`
}

// Profile holds the supporting data used to score a facility: latest-year
// energy input and per-pollutant release totals. A facility with no matching
// rows has a zero-value Profile.
type Profile struct {
	FacilityID    string           `json:"facility_id"`
	EnergyYear    int              `json:"energy_year,omitempty"`
	EnergyInputTJ float64          `json:"energy_input_tj"`
	FuelTypes     []string         `json:"fuel_types,omitempty"`
	Pollutants    []PollutantTotal `json:"pollutants,omitempty"`
}

// Lead is a scored, tiered candidate. Leads are built fresh per query and
// never persisted.
type Lead struct {
	LeadCandidate
	EnergyInputTJ float64  `json:"energy_input_tj"`
	Score         int      `json:"score"`
	Tier          int      `json:"tier"`
	TierLabel     string   `json:"tier_label"`
	Action        string   `json:"action"`
	Reasons       []string `json:"reasons"`
}
