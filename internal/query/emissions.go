package query

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/emissions-cli/internal/db"
	"github.com/sells-group/emissions-cli/internal/model"
)

// SearchEmissions returns release totals per (facility, year, pollutant,
// medium) within the mandatory year range, largest first. Duplicate rows for
// one key are summed. Facilities without matching releases never appear.
func (e *Engine) SearchEmissions(ctx context.Context, f EmissionFilter) (rows []model.Emission, err error) {
	const op = "search_emissions"
	start := time.Now()
	defer func() { observe(op, start, len(rows), err) }()

	f.Mediums = upperMediums(f.Mediums)
	if err := e.check(op, f); err != nil {
		return nil, err
	}

	b := newBuilder(`SELECT
		pr."Facility_INSPIRE_ID" AS facility_id,
		COALESCE(MAX(f."nameOfFeature"), '') AS facility,
		COALESCE(MAX(f."parentCompanyName"), '') AS parent_company,
		COALESCE(MAX(f."city"), '') AS city,
		COALESCE(MAX(f."countryCode"), '') AS country_code,
		pr."reportingYear" AS year,
		COALESCE(MAX(pr."pollutantCode"), '') AS pollutant_code,
		COALESCE(pr."pollutantName", '') AS pollutant,
		COALESCE(UPPER(pr."medium"), '') AS medium,
		SUM(COALESCE(pr."totalPollutantQuantityKg", 0)) AS quantity_kg,
		SUM(COALESCE(pr."accidentalPollutantQuantityKG", 0)) AS accidental_kg,
		COALESCE(MAX(pr."methodCode"), '') AS method_code,
		COALESCE(MAX(pr."methodName"), '') AS method_name
	FROM "2f_PollutantRelease" pr
	JOIN "2_ProductionFacility" f ON pr."Facility_INSPIRE_ID" = f."Facility_INSPIRE_ID"
	WHERE pr."reportingYear" BETWEEN ? AND ?`, f.Years.From, f.Years.To)

	if mediums := mediumStrings(f.Mediums); mediums != nil {
		b.where(`UPPER(pr."medium") IN (?)`, mediums)
	}
	if pollutants := normalizeFolded(f.Pollutants); pollutants != nil {
		b.where(e.pollutantClause(), pollutants, pollutants)
	}
	if like := likePattern(f.FacilityName); like != "" {
		b.where(e.likeClause(`f."nameOfFeature"`, `f."parentCompanyName"`), repeat(like, 2)...)
	}
	if countries := normalizeCodes(f.Countries); countries != nil {
		b.where(`f."countryCode" IN (?)`, countries)
	}
	b.raw(`
	GROUP BY pr."Facility_INSPIRE_ID", pr."reportingYear", pr."pollutantName", UPPER(pr."medium")
	ORDER BY quantity_kg DESC, facility_id ASC, year ASC, pollutant ASC, medium ASC
	LIMIT ?`, e.limit(op, f.Limit, e.cfg.EmissionLimit))

	q, args, err := b.render(e.db)
	if err != nil {
		return nil, err
	}
	rows = []model.Emission{}
	if err := e.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, eris.Wrap(err, "query: search emissions")
	}
	return rows, nil
}

// TopEmitters sums one pollutant/medium pair per facility over the year
// range and returns the top N facilities. Aggregation happens before the
// limit is applied.
func (e *Engine) TopEmitters(ctx context.Context, f TopFilter) (rows []model.TopEmitter, err error) {
	const op = "top_emitters"
	start := time.Now()
	defer func() { observe(op, start, len(rows), err) }()

	f.Medium = model.Medium(normalizeMedium(string(f.Medium)))
	if err := e.check(op, f); err != nil {
		return nil, err
	}

	b := newBuilder(`SELECT
		pr."Facility_INSPIRE_ID" AS facility_id,
		COALESCE(MAX(f."nameOfFeature"), '') AS facility,
		COALESCE(MAX(f."city"), '') AS city,
		COALESCE(MAX(f."countryCode"), '') AS country_code,
		COALESCE(MAX(f."mainActivityName"), '') AS activity_name,
		SUM(COALESCE(pr."totalPollutantQuantityKg", 0)) AS total_kg
	FROM "2f_PollutantRelease" pr
	JOIN "2_ProductionFacility" f ON pr."Facility_INSPIRE_ID" = f."Facility_INSPIRE_ID"
	WHERE pr."reportingYear" BETWEEN ? AND ?`, f.Years.From, f.Years.To)

	pollutant := []string{db.Fold(strings.TrimSpace(f.Pollutant))}
	b.where(e.pollutantClause(), pollutant, pollutant)
	b.where(`UPPER(pr."medium") = ?`, string(f.Medium))
	if countries := normalizeCodes(f.Countries); countries != nil {
		b.where(`f."countryCode" IN (?)`, countries)
	}
	b.raw(`
	GROUP BY pr."Facility_INSPIRE_ID"
	ORDER BY total_kg DESC, facility_id ASC
	LIMIT ?`, e.limit(op, f.TopN, e.cfg.TopN))

	q, args, err := b.render(e.db)
	if err != nil {
		return nil, err
	}
	rows = []model.TopEmitter{}
	if err := e.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, eris.Wrap(err, "query: top emitters")
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

func normalizeMedium(s string) string {
	if m, ok := model.ParseMedium(s); ok {
		return string(m)
	}
	return s
}

func upperMediums(in []model.Medium) []model.Medium {
	if len(in) == 0 {
		return in
	}
	out := make([]model.Medium, len(in))
	for i, m := range in {
		out[i] = model.Medium(normalizeMedium(string(m)))
	}
	return out
}
