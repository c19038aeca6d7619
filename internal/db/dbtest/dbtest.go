// Package dbtest builds seeded EEA SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/emissions-cli/internal/config"
	"github.com/sells-group/emissions-cli/internal/db"
	"github.com/sells-group/emissions-cli/internal/schema"
)

// Site is a 1_ProductionSite fixture row.
type Site struct {
	ID, Name, Country string
}

// Facility is a 2_ProductionFacility fixture row. Empty strings are stored
// as NULL.
type Facility struct {
	ID, SiteID, Name, Parent, Street, PostalCode, City, Country string
	ActivityCode, ActivityName, StartDate                       string
	Lat, Lon                                                    *float64
}

// Installation is a 3_ProductionInstallation fixture row.
type Installation struct {
	ID, FacilityID, ActivityCode, ActivityName string
}

// Part is a 4_ProductionInstallationPart fixture row.
type Part struct {
	ID, InstallationID string
}

// Energy is a 4d_EnergyInput fixture row.
type Energy struct {
	PartID string
	Year   int
	Fuel   string
	TJ     float64
}

// Release is a 2f_PollutantRelease fixture row.
type Release struct {
	FacilityID   string
	Year         int
	Code, Name   string
	Medium       string
	Kg           float64
	AccidentalKg float64
	MethodCode   string
}

// Fixture is a full set of rows to seed.
type Fixture struct {
	Sites         []Site
	Facilities    []Facility
	Installations []Installation
	Parts         []Part
	Energy        []Energy
	Releases      []Release
}

// New creates a SQLite file under t.TempDir, applies the EEA schema, seeds f
// and returns a read-only handle opened through db.Open along with the store
// config pointing at the file.
func New(t testing.TB, f Fixture) (*sqlx.DB, config.StoreConfig) {
	t.Helper()
	ctx := context.Background()

	cfg := config.StoreConfig{
		Driver:      db.DriverSQLite,
		DatabaseURL: filepath.Join(t.TempDir(), "eea.db"),
	}

	w, err := db.OpenWritable(ctx, cfg)
	require.NoError(t, err)
	_, err = schema.Apply(ctx, w.DB, cfg.Driver)
	require.NoError(t, err)
	Seed(t, w, f)
	require.NoError(t, w.Close())

	ro, err := db.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { ro.Close() }) //nolint:errcheck
	return ro, cfg
}

// Seed inserts every row of f into a writable handle.
func Seed(t testing.TB, w *sqlx.DB, f Fixture) {
	t.Helper()
	ctx := context.Background()

	insert := func(table string, cols []string, rows [][]any) {
		_, err := db.InsertRows(ctx, w, table, cols, rows)
		require.NoError(t, err)
	}

	var rows [][]any
	for _, s := range f.Sites {
		rows = append(rows, []any{s.ID, null(s.Name), null(s.Country)})
	}
	insert(db.TableSite, []string{"Site_INSPIRE_ID", "siteName", "countryCode"}, rows)

	rows = nil
	for _, fa := range f.Facilities {
		rows = append(rows, []any{
			fa.ID, null(fa.SiteID), null(fa.Name), null(fa.Parent), null(fa.Street),
			null(fa.PostalCode), null(fa.City), null(fa.Country), null(fa.ActivityCode),
			null(fa.ActivityName), fa.Lat, fa.Lon, null(fa.StartDate),
		})
	}
	insert(db.TableFacility, []string{
		"Facility_INSPIRE_ID", "Parent_Site_INSPIRE_ID", "nameOfFeature", "parentCompanyName", "streetName",
		"postalCode", "city", "countryCode", "mainActivityCode",
		"mainActivityName", "pointGeometryLat", "pointGeometryLon", "dateOfStartOfOperation",
	}, rows)

	rows = nil
	for _, in := range f.Installations {
		rows = append(rows, []any{in.ID, in.FacilityID, null(in.ActivityCode), null(in.ActivityName)})
	}
	insert(db.TableInstallation, []string{
		"Installation_INSPIRE_ID", "Parent_Facility_INSPIRE_ID", "IEDMainActivityCode", "IEDMainActivityName",
	}, rows)

	rows = nil
	for _, p := range f.Parts {
		rows = append(rows, []any{p.ID, p.InstallationID})
	}
	insert(db.TablePart, []string{"Installation_Part_INSPIRE_ID", "Parent_Installation_INSPIRE_ID"}, rows)

	rows = nil
	for _, e := range f.Energy {
		rows = append(rows, []any{e.PartID, e.Year, null(e.Fuel), e.TJ})
	}
	insert(db.TableEnergyInput, []string{"Installation_Part_INSPIRE_ID", "reportingYear", "fuelInput", "energyInputTJ"}, rows)

	rows = nil
	for _, r := range f.Releases {
		rows = append(rows, []any{
			r.FacilityID, r.Year, null(r.Code), null(r.Name), null(r.Medium),
			r.Kg, r.AccidentalKg, null(r.MethodCode),
		})
	}
	insert(db.TableRelease, []string{
		"Facility_INSPIRE_ID", "reportingYear", "pollutantCode", "pollutantName", "medium",
		"totalPollutantQuantityKg", "accidentalPollutantQuantityKG", "methodCode",
	}, rows)
}

func null(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 { return &v }
