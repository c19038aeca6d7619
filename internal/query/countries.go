package query

import "strings"

var countryNames = map[string]string{
	"AT": "Austria", "BE": "Belgium", "BG": "Bulgaria", "CH": "Switzerland",
	"CY": "Cyprus", "CZ": "Czech Republic", "DE": "Germany", "DK": "Denmark",
	"EE": "Estonia", "ES": "Spain", "FI": "Finland", "FR": "France",
	"GB": "United Kingdom", "GR": "Greece", "EL": "Greece", "HR": "Croatia",
	"HU": "Hungary", "IE": "Ireland", "IS": "Iceland", "IT": "Italy",
	"LI": "Liechtenstein", "LT": "Lithuania", "LU": "Luxembourg", "LV": "Latvia",
	"MT": "Malta", "NL": "Netherlands", "NO": "Norway", "PL": "Poland",
	"PT": "Portugal", "RO": "Romania", "RS": "Serbia", "SE": "Sweden",
	"SI": "Slovenia", "SK": "Slovakia", "UK": "United Kingdom",
}

// CountryName returns the English name for an ISO code, or the code itself
// when unknown.
func CountryName(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}
