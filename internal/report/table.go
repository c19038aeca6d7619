// Package report renders query and lead results for people: aligned text
// tables, CSV, JSON, an Excel workbook of tiered leads and GIS point layers
// (GeoJSON, ESRI shapefile). Release quantities stay in kilograms everywhere
// else; conversion to tonnes happens only here.
package report

import (
	"strconv"
	"strings"

	"github.com/sells-group/emissions-cli/internal/leads"
	"github.com/sells-group/emissions-cli/internal/model"
	"github.com/sells-group/emissions-cli/internal/query"
)

// Table is a header plus string rows, the common shape of every tabular
// output format.
type Table struct {
	Header []string
	Rows   [][]string
}

func tonnes(kg float64) string {
	return strconv.FormatFloat(model.Tonnes(kg), 'f', 3, 64)
}

func float(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func coord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FacilitiesTable renders facility search results.
func FacilitiesTable(rows []model.Facility) Table {
	t := Table{Header: []string{
		"facility_id", "name", "parent_company", "city", "country",
		"activity_code", "activity", "start_date", "lat", "lon",
	}}
	for _, f := range rows {
		t.Rows = append(t.Rows, []string{
			f.ID, f.Name, f.ParentCompany, f.City, f.CountryCode,
			f.ActivityCode, f.ActivityName, f.StartDate, coord(f.Lat), coord(f.Lon),
		})
	}
	return t
}

// EmissionsTable renders release rows with quantities in tonnes.
func EmissionsTable(rows []model.Emission) Table {
	t := Table{Header: []string{
		"facility_id", "facility", "parent_company", "city", "country", "year",
		"pollutant_code", "pollutant", "medium", "quantity_t", "accidental_t", "method",
	}}
	for _, e := range rows {
		t.Rows = append(t.Rows, []string{
			e.FacilityID, e.Facility, e.ParentCompany, e.City, e.CountryCode, strconv.Itoa(e.Year),
			e.PollutantCode, e.Pollutant, e.Medium, tonnes(e.QuantityKg), tonnes(e.AccidentalKg), e.MethodCode,
		})
	}
	return t
}

// TopEmittersTable renders a ranking with totals in tonnes.
func TopEmittersTable(rows []model.TopEmitter) Table {
	t := Table{Header: []string{"rank", "facility_id", "facility", "city", "country", "activity", "total_t"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Rank), r.FacilityID, r.Facility, r.City, r.CountryCode, r.ActivityName, tonnes(r.TotalKg),
		})
	}
	return t
}

// LeadHeader is the column layout shared by the lead table and workbook.
var LeadHeader = []string{
	"rank", "facility_id", "name", "parent_company", "city", "country", "activity",
	"score", "tier", "tier_label", "action", "total_t", "years_reported", "pollutant_count",
	"energy_input_tj", "reasons",
}

func leadRow(rank int, l model.Lead) []string {
	return []string{
		strconv.Itoa(rank), l.ID, l.Name, l.ParentCompany, l.City, l.CountryCode, l.ActivityName,
		strconv.Itoa(l.Score), strconv.Itoa(l.Tier), l.TierLabel, l.Action, tonnes(l.TotalKg),
		strconv.Itoa(l.YearsReported), strconv.Itoa(l.PollutantCount), float(l.EnergyInputTJ, 1),
		strings.Join(l.Reasons, "; "),
	}
}

// LeadsTable renders scored leads in their ranked order.
func LeadsTable(rows []model.Lead) Table {
	t := Table{Header: LeadHeader}
	for i, l := range rows {
		t.Rows = append(t.Rows, leadRow(i+1, l))
	}
	return t
}

// RejectedTable renders candidates dropped by the lead pipeline.
func RejectedTable(rows []leads.Rejection) Table {
	t := Table{Header: []string{"facility_id", "name", "country", "start_date", "criterion", "reason"}}
	for _, r := range rows {
		c := r.Candidate
		t.Rows = append(t.Rows, []string{c.ID, c.DisplayName(), c.CountryCode, c.StartDate, r.Criterion, r.Reason})
	}
	return t
}

// OptionsTable flattens filter options into kind/value/label rows.
func OptionsTable(o *query.Options) Table {
	t := Table{Header: []string{"kind", "value", "label"}}
	if o == nil {
		return t
	}
	for _, c := range o.Countries {
		t.Rows = append(t.Rows, []string{"country", c.Code, c.Label})
	}
	for _, p := range o.Pollutants {
		t.Rows = append(t.Rows, []string{"pollutant", p, p})
	}
	for _, y := range o.Years {
		s := strconv.Itoa(y)
		t.Rows = append(t.Rows, []string{"year", s, s})
	}
	for _, a := range o.Activities {
		t.Rows = append(t.Rows, []string{"activity", a.Code, a.Label})
	}
	return t
}
