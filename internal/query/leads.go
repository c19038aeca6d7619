package query

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/emissions-cli/internal/model"
)

// FindLeads aggregates releases per facility over the year range (total kg,
// distinct years, distinct pollutants) and returns facilities by total
// descending. MinTotalTonnes is applied after aggregation and is inclusive:
// a facility qualifies when SUM(kg) >= MinTotalTonnes * 1000.
func (e *Engine) FindLeads(ctx context.Context, f LeadFilter) (rows []model.LeadCandidate, err error) {
	const op = "find_leads"
	start := time.Now()
	defer func() { observe(op, start, len(rows), err) }()

	if err := e.check(op, f); err != nil {
		return nil, err
	}

	b := newBuilder(`SELECT
		f."Facility_INSPIRE_ID" AS facility_id,
		COALESCE(MAX(f."nameOfFeature"), '') AS name,
		COALESCE(MAX(f."parentCompanyName"), '') AS parent_company,
		COALESCE(MAX(f."streetName"), '') AS street,
		COALESCE(MAX(f."postalCode"), '') AS postal_code,
		COALESCE(MAX(f."city"), '') AS city,
		COALESCE(MAX(f."countryCode"), '') AS country_code,
		COALESCE(MAX(f."mainActivityCode"), '') AS activity_code,
		COALESCE(MAX(f."mainActivityName"), '') AS activity_name,
		COALESCE(MAX(CAST(f."dateOfStartOfOperation" AS TEXT)), '') AS start_date,
		COALESCE(MAX(f."Parent_Site_INSPIRE_ID"), '') AS site_id,
		MAX(f."pointGeometryLat") AS lat,
		MAX(f."pointGeometryLon") AS lon,
		COUNT(DISTINCT pr."reportingYear") AS years_reported,
		COUNT(DISTINCT pr."pollutantName") AS pollutant_count,
		SUM(COALESCE(pr."totalPollutantQuantityKg", 0)) AS total_kg
	FROM "2_ProductionFacility" f
	JOIN "2f_PollutantRelease" pr ON pr."Facility_INSPIRE_ID" = f."Facility_INSPIRE_ID"
	WHERE pr."reportingYear" BETWEEN ? AND ?`, f.Years.From, f.Years.To)

	if pollutants := normalizeFolded(f.Pollutants); pollutants != nil {
		b.where(e.pollutantClause(), pollutants, pollutants)
	}
	if countries := normalizeCodes(f.Countries); countries != nil {
		b.where(`f."countryCode" IN (?)`, countries)
	}
	if f.ActivityCode != "" {
		b.where(`f."mainActivityCode" = ?`, f.ActivityCode)
	}
	b.raw(`
	GROUP BY f."Facility_INSPIRE_ID"`)
	if f.MinTotalTonnes > 0 {
		b.raw(`
	HAVING SUM(COALESCE(pr."totalPollutantQuantityKg", 0)) >= ?`, f.MinTotalTonnes*model.KgPerTonne)
	}
	b.raw(`
	ORDER BY total_kg DESC, facility_id ASC
	LIMIT ?`, e.limit(op, f.Limit, e.cfg.LeadLimit))

	q, args, err := b.render(e.db)
	if err != nil {
		return nil, err
	}
	rows = []model.LeadCandidate{}
	if err := e.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, eris.Wrap(err, "query: find leads")
	}
	return rows, nil
}

type energyRow struct {
	FacilityID string  `db:"facility_id"`
	Year       int     `db:"year"`
	Fuel       string  `db:"fuel"`
	TJ         float64 `db:"tj"`
}

type pollutantRow struct {
	FacilityID string `db:"facility_id"`
	model.PollutantTotal
}

// Profiles loads scoring support data for each facility id: energy input of
// the latest reporting year within the range (summed over installation
// parts) and per-pollutant release totals. Every requested id is present in
// the result; ids without matching rows get a zero Profile.
func (e *Engine) Profiles(ctx context.Context, ids []string, years model.YearRange) (out map[string]model.Profile, err error) {
	const op = "profiles"
	start := time.Now()
	defer func() { observe(op, start, len(out), err) }()

	if err := e.check(op, years); err != nil {
		return nil, err
	}

	ids = normalizeNames(ids)
	out = make(map[string]model.Profile, len(ids))
	for _, id := range ids {
		out[id] = model.Profile{FacilityID: id}
	}
	if len(ids) == 0 {
		return out, nil
	}

	var energy []energyRow
	var pollutants []pollutantRow

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b := newBuilder(`SELECT
			i."Parent_Facility_INSPIRE_ID" AS facility_id,
			e."reportingYear" AS year,
			COALESCE(e."fuelInput", '') AS fuel,
			SUM(COALESCE(e."energyInputTJ", 0)) AS tj
		FROM "4d_EnergyInput" e
		JOIN "4_ProductionInstallationPart" p ON e."Installation_Part_INSPIRE_ID" = p."Installation_Part_INSPIRE_ID"
		JOIN "3_ProductionInstallation" i ON p."Parent_Installation_INSPIRE_ID" = i."Installation_INSPIRE_ID"
		WHERE i."Parent_Facility_INSPIRE_ID" IN (?)`, ids)
		b.where(`e."reportingYear" BETWEEN ? AND ?`, years.From, years.To)
		b.raw(`
		GROUP BY i."Parent_Facility_INSPIRE_ID", e."reportingYear", e."fuelInput"`)

		q, args, err := b.render(e.db)
		if err != nil {
			return err
		}
		return eris.Wrap(e.db.SelectContext(gctx, &energy, q, args...), "query: profile energy")
	})
	g.Go(func() error {
		b := newBuilder(`SELECT
			pr."Facility_INSPIRE_ID" AS facility_id,
			COALESCE(MAX(pr."pollutantCode"), '') AS pollutant_code,
			COALESCE(pr."pollutantName", '') AS pollutant,
			COALESCE(UPPER(pr."medium"), '') AS medium,
			SUM(COALESCE(pr."totalPollutantQuantityKg", 0)) AS total_kg,
			COUNT(DISTINCT pr."reportingYear") AS years
		FROM "2f_PollutantRelease" pr
		WHERE pr."Facility_INSPIRE_ID" IN (?)`, ids)
		b.where(`pr."reportingYear" BETWEEN ? AND ?`, years.From, years.To)
		b.raw(`
		GROUP BY pr."Facility_INSPIRE_ID", pr."pollutantName", UPPER(pr."medium")
		ORDER BY facility_id ASC, total_kg DESC, pollutant ASC`)

		q, args, err := b.render(e.db)
		if err != nil {
			return err
		}
		return eris.Wrap(e.db.SelectContext(gctx, &pollutants, q, args...), "query: profile pollutants")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	latest := make(map[string]int)
	for _, r := range energy {
		if r.Year > latest[r.FacilityID] {
			latest[r.FacilityID] = r.Year
		}
	}
	for _, r := range energy {
		if r.Year != latest[r.FacilityID] {
			continue
		}
		p := out[r.FacilityID]
		p.EnergyYear = r.Year
		p.EnergyInputTJ += r.TJ
		if r.Fuel != "" {
			p.FuelTypes = append(p.FuelTypes, r.Fuel)
		}
		out[r.FacilityID] = p
	}
	for id, p := range out {
		sort.Strings(p.FuelTypes)
		out[id] = p
	}

	for _, r := range pollutants {
		p := out[r.FacilityID]
		p.Pollutants = append(p.Pollutants, r.PollutantTotal)
		out[r.FacilityID] = p
	}
	return out, nil
}
