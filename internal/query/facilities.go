package query

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/emissions-cli/internal/model"
)

const facilityColumns = `
	f."Facility_INSPIRE_ID" AS facility_id,
	COALESCE(f."nameOfFeature", '') AS name,
	COALESCE(f."parentCompanyName", '') AS parent_company,
	COALESCE(f."streetName", '') AS street,
	COALESCE(f."postalCode", '') AS postal_code,
	COALESCE(f."city", '') AS city,
	COALESCE(f."countryCode", '') AS country_code,
	COALESCE(f."mainActivityCode", '') AS activity_code,
	COALESCE(f."mainActivityName", '') AS activity_name,
	COALESCE(CAST(f."dateOfStartOfOperation" AS TEXT), '') AS start_date,
	COALESCE(f."Parent_Site_INSPIRE_ID", '') AS site_id,
	f."pointGeometryLat" AS lat,
	f."pointGeometryLon" AS lon`

// SearchFacilities returns facilities matching every set criterion, ordered
// by name. Facilities without releases are included.
func (e *Engine) SearchFacilities(ctx context.Context, f FacilityFilter) (rows []model.Facility, err error) {
	const op = "search_facilities"
	start := time.Now()
	defer func() { observe(op, start, len(rows), err) }()

	if err := e.check(op, f); err != nil {
		return nil, err
	}

	b := newBuilder(`SELECT` + facilityColumns + `
	FROM "2_ProductionFacility" f
	WHERE 1=1`)

	if like := likePattern(f.Name); like != "" {
		b.where(e.likeClause(`f."nameOfFeature"`, `f."parentCompanyName"`, `f."city"`), repeat(like, 3)...)
	}
	if countries := normalizeCodes(f.Countries); countries != nil {
		b.where(`f."countryCode" IN (?)`, countries)
	}
	if f.ActivityCode != "" {
		b.where(`f."mainActivityCode" = ?`, f.ActivityCode)
	}
	b.raw(` ORDER BY COALESCE(f."nameOfFeature", '') ASC, f."Facility_INSPIRE_ID" ASC LIMIT ?`,
		e.limit(op, f.Limit, e.cfg.FacilityLimit))

	q, args, err := b.render(e.db)
	if err != nil {
		return nil, err
	}
	rows = []model.Facility{}
	if err := e.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, eris.Wrap(err, "query: search facilities")
	}
	return rows, nil
}

// Facilities loads facilities by id, in name order. Unknown ids are skipped.
func (e *Engine) Facilities(ctx context.Context, ids []string) (rows []model.Facility, err error) {
	const op = "facilities_by_id"
	start := time.Now()
	defer func() { observe(op, start, len(rows), err) }()

	ids = normalizeNames(ids)
	rows = []model.Facility{}
	if len(ids) == 0 {
		return rows, nil
	}

	b := newBuilder(`SELECT` + facilityColumns + `
	FROM "2_ProductionFacility" f
	WHERE f."Facility_INSPIRE_ID" IN (?)`, ids)
	b.raw(` ORDER BY COALESCE(f."nameOfFeature", '') ASC, f."Facility_INSPIRE_ID" ASC`)

	q, args, err := b.render(e.db)
	if err != nil {
		return nil, err
	}
	if err := e.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, eris.Wrap(err, "query: facilities by id")
	}
	return rows, nil
}
