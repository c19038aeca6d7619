package model

import (
	"fmt"
	"strings"
)

// Medium is the environmental compartment a pollutant is released into.
type Medium string

const (
	MediumAir   Medium = "AIR"
	MediumWater Medium = "WATER"
	MediumLand  Medium = "LAND"
)

// Mediums lists every valid medium in display order.
var Mediums = []Medium{MediumAir, MediumWater, MediumLand}

// ParseMedium normalizes s (case-insensitive, trimmed) to a Medium.
func ParseMedium(s string) (Medium, bool) {
	m := Medium(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case MediumAir, MediumWater, MediumLand:
		return m, true
	default:
		return "", false
	}
}

// KgPerTonne converts stored kilogram quantities to tonnes. Quantities are
// kept in kilograms everywhere; tonnes exist only in rendered output.
const KgPerTonne = 1000.0

// Tonnes converts a kilogram quantity to tonnes.
func Tonnes(kg float64) float64 {
	return kg / KgPerTonne
}

// YearRange is an inclusive range of reporting years.
type YearRange struct {
	From int `json:"from" validate:"required,gt=0,ltefield=To"`
	To   int `json:"to" validate:"required,gt=0"`
}

// Contains reports whether year lies within the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.From && year <= r.To
}

func (r YearRange) String() string {
	if r.From == r.To {
		return fmt.Sprintf("%d", r.From)
	}
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// Emission is one (facility, year, pollutant, medium) release total joined
// with its facility identity. Duplicate rows for the same key are summed.
type Emission struct {
	FacilityID    string  `db:"facility_id" json:"facility_id"`
	Facility      string  `db:"facility" json:"facility"`
	ParentCompany string  `db:"parent_company" json:"parent_company"`
	City          string  `db:"city" json:"city"`
	CountryCode   string  `db:"country_code" json:"country_code"`
	Year          int     `db:"year" json:"year"`
	PollutantCode string  `db:"pollutant_code" json:"pollutant_code"`
	Pollutant     string  `db:"pollutant" json:"pollutant"`
	Medium        string  `db:"medium" json:"medium"`
	QuantityKg    float64 `db:"quantity_kg" json:"quantity_kg"`
	AccidentalKg  float64 `db:"accidental_kg" json:"accidental_kg"`
	MethodCode    string  `db:"method_code" json:"method_code,omitempty"`
	MethodName    string  `db:"method_name" json:"method_name,omitempty"`
}

// TopEmitter is a facility's summed release of one pollutant into one medium
// over a year range.
type TopEmitter struct {
	FacilityID   string  `db:"facility_id" json:"facility_id"`
	Facility     string  `db:"facility" json:"facility"`
	City         string  `db:"city" json:"city"`
	CountryCode  string  `db:"country_code" json:"country_code"`
	ActivityName string  `db:"activity_name" json:"activity_name"`
	TotalKg      float64 `db:"total_kg" json:"total_kg"`
	Rank         int     `db:"-" json:"rank"`
}

// PollutantTotal is a facility's summed release of one pollutant/medium pair.
type PollutantTotal struct {
	Code    string  `db:"pollutant_code" json:"code"`
	Name    string  `db:"pollutant" json:"name"`
	Medium  string  `db:"medium" json:"medium"`
	TotalKg float64 `db:"total_kg" json:"total_kg"`
	Years   int     `db:"years" json:"years"`
}
