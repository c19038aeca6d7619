package scorer

import "strings"

// Regulatory regions.
const (
	RegionEU            = "EU"
	RegionNorthAmerica  = "NORTH_AMERICA"
	RegionDevelopedAsia = "DEVELOPED_ASIA"
	RegionEmergingAsia  = "EMERGING_ASIA"
	RegionOther         = "OTHER"
)

// DefaultRegions maps ISO country codes and English country names
// (upper-cased) to a regulatory region. EEA members outside the union are
// grouped with the EU since they report under the same regime.
func DefaultRegions() map[string]string {
	m := map[string]string{}
	add := func(region string, keys ...string) {
		for _, k := range keys {
			m[strings.ToUpper(k)] = region
		}
	}
	add(RegionEU,
		"AT", "BE", "BG", "CH", "CY", "CZ", "DE", "DK", "EE", "EL", "ES", "FI", "FR", "GB", "GR",
		"HR", "HU", "IE", "IS", "IT", "LI", "LT", "LU", "LV", "MT", "NL", "NO", "PL", "PT",
		"RO", "SE", "SI", "SK", "UK",
		"Austria", "Belgium", "Bulgaria", "Switzerland", "Cyprus", "Czech Republic", "Czechia",
		"Germany", "Denmark", "Estonia", "Spain", "Finland", "France", "United Kingdom", "Greece",
		"Croatia", "Hungary", "Ireland", "Iceland", "Italy", "Liechtenstein", "Lithuania",
		"Luxembourg", "Latvia", "Malta", "Netherlands", "Norway", "Poland", "Portugal",
		"Romania", "Sweden", "Slovenia", "Slovakia",
	)
	add(RegionNorthAmerica, "US", "CA", "MX", "USA", "United States", "Canada", "Mexico")
	add(RegionDevelopedAsia, "JP", "KR", "SG", "Japan", "South Korea", "Singapore")
	add(RegionEmergingAsia,
		"CN", "IN", "VN", "TH", "ID", "MY",
		"China", "India", "Vietnam", "Thailand", "Indonesia", "Malaysia",
	)
	return m
}

// NormalizeRegion canonicalizes a region name: upper case with underscores,
// accepting the short forms "N.America" and "N_America".
func NormalizeRegion(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(".", "_", " ", "_", "-", "_").Replace(s)
	switch s {
	case "N_AMERICA", "NA":
		return RegionNorthAmerica
	}
	return s
}
