package scorer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is a flat mapping of named signals for one facility. Values may be
// numbers, numeric strings ("2,500"), booleans or free text; extraction never
// fails, it reports absence instead.
type Record map[string]any

// Well-known record keys.
const (
	KeyFacilityID       = "facility_id"
	KeyName             = "name"
	KeyCountry          = "country"
	KeyStartDate        = "start_date"
	KeyStartYear        = "start_year"
	KeyPlantAge         = "plant_age"
	KeyActivity         = "activity"
	KeyCompliance       = "compliance"
	KeyComplianceStatus = "compliance_status"
	KeyComplianceBasis  = "compliance_basis"
	KeyEnergyInputTJ    = "energy_input_tj"
	KeyTotalEmissionsT  = "total_emissions_t"
	KeyPollutantCount   = "pollutant_count"
	KeyWasteThroughputT = "waste_throughput_t"
	KeyDioxinTEQ        = "dioxin_teq_ng"
)

// Derived signals computed from other keys rather than read directly.
const (
	SignalPlantAge = "plant_age"
	SignalRegion   = "region"
)

// Number returns the numeric value under key. Strings are parsed after
// dropping thousands separators; NaN and infinities count as absent.
func (r Record) Number(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		p, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		s := strings.TrimSpace(strings.NewReplacer(",", "", "_", "", " ", "").Replace(n))
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String returns the trimmed text under key; numbers are formatted.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Presence reports whether a pollutant-style signal is set, and whether it
// was set at all. true, "yes" and positive quantities count as present.
func (r Record) Presence(key string) (present, known bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "true", "present", "x":
			return true, true
		case "no", "n", "false", "absent", "":
			return false, true
		}
	}
	if n, ok := r.Number(key); ok {
		return n > 0, true
	}
	return false, false
}

// StartYear extracts the year of start of operation from start_year or the
// leading four digits of start_date ("1998-05-01", "1985").
func (r Record) StartYear() (int, bool) {
	if y, ok := r.Number(KeyStartYear); ok && y > 0 {
		return int(y), true
	}
	s, ok := r.String(KeyStartDate)
	if !ok || len(s) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}

// Normalize returns a copy with lower-cased keys and the free-text
// compliance status mapped to its closed enum under KeyCompliance.
func Normalize(r Record) Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	if _, ok := out[KeyCompliance]; !ok {
		if s, ok := out.String(KeyComplianceStatus); ok {
			out[KeyCompliance] = string(ParseCompliance(s))
		}
	} else if s, ok := out.String(KeyCompliance); ok {
		out[KeyCompliance] = string(ParseCompliance(s))
	}
	return out
}
