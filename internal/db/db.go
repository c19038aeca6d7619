// Package db opens the read-only EEA industrial emissions database.
package db

import (
	"context"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/emissions-cli/internal/config"
)

// Store drivers accepted in config.StoreConfig.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// EEA table names. They start with a digit and mix case, so every reference
// must be double-quoted.
const (
	TableSite         = "1_ProductionSite"
	TableFacility     = "2_ProductionFacility"
	TableInstallation = "3_ProductionInstallation"
	TablePart         = "4_ProductionInstallationPart"
	TableEnergyInput  = "4d_EnergyInput"
	TableEmissionsAir = "4e_EmissionsToAir"
	TableRelease      = "2f_PollutantRelease"
)

// RequiredTables are the tables the query engine reads. Open refuses a
// database missing any of them.
var RequiredTables = []string{
	TableSite,
	TableFacility,
	TableInstallation,
	TablePart,
	TableEnergyInput,
	TableRelease,
}

// ErrUnavailable is returned when the data source is missing, unreachable or
// is not an EEA database. It is the only fatal condition of the query layer.
var ErrUnavailable = eris.New("db: data source unavailable")

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// sqlDriver maps a config driver to its database/sql driver name.
func sqlDriver(driver string) (string, error) {
	switch driver {
	case DriverSQLite:
		return "sqlite", nil
	case DriverPostgres:
		return "pgx", nil
	default:
		return "", eris.Errorf("db: unsupported driver %q", driver)
	}
}

// Open connects to the EEA database read-only, verifies connectivity and
// checks that every required table exists. The returned handle is meant to be
// opened once per process and shared by all queries.
func Open(ctx context.Context, cfg config.StoreConfig) (*sqlx.DB, error) {
	if cfg.Driver == DriverSQLite {
		if _, err := os.Stat(cfg.DatabaseURL); err != nil {
			return nil, eris.Wrapf(ErrUnavailable, "sqlite file %s: %v", cfg.DatabaseURL, err)
		}
	}

	dsn := cfg.DatabaseURL
	if cfg.Driver == DriverSQLite {
		dsn = sqliteDSN(cfg.DatabaseURL, true)
	}

	db, err := connect(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}

	missing, err := MissingTables(ctx, db)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrapf(ErrUnavailable, "list tables: %v", err)
	}
	if len(missing) > 0 {
		db.Close() //nolint:errcheck
		return nil, eris.Wrapf(ErrUnavailable, "not an EEA database, missing tables: %s", strings.Join(missing, ", "))
	}

	zap.L().Debug("db: opened",
		zap.String("driver", cfg.Driver),
		zap.Bool("read_only", true),
	)
	return db, nil
}

// OpenWritable connects without the read-only pragma or the table check. It
// is used to bootstrap an empty database with the embedded schema.
func OpenWritable(ctx context.Context, cfg config.StoreConfig) (*sqlx.DB, error) {
	dsn := cfg.DatabaseURL
	if cfg.Driver == DriverSQLite {
		dsn = sqliteDSN(cfg.DatabaseURL, false)
	}
	return connect(ctx, cfg.Driver, dsn)
}

func connect(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	name, err := sqlDriver(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(name, dsn)
	if err != nil {
		return nil, eris.Wrapf(ErrUnavailable, "open %s: %v", driver, err)
	}

	if driver == DriverPostgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := ping(ctx, db, driver); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrapf(ErrUnavailable, "ping %s: %v", driver, err)
	}
	return db, nil
}

func sqliteDSN(path string, readOnly bool) string {
	params := []string{"_pragma=busy_timeout(5000)"}
	if readOnly {
		params = append(params, "_pragma=query_only(1)")
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

// MissingTables returns the required tables absent from db, in
// RequiredTables order.
func MissingTables(ctx context.Context, db *sqlx.DB) ([]string, error) {
	var q string
	switch db.DriverName() {
	case "pgx":
		q = `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name IN (?)`
	default:
		q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name IN (?)`
	}

	q, args, err := sqlx.In(q, RequiredTables)
	if err != nil {
		return nil, eris.Wrap(err, "db: expand table list")
	}

	var found []string
	if err := db.SelectContext(ctx, &found, db.Rebind(q), args...); err != nil {
		return nil, eris.Wrap(err, "db: list tables")
	}

	have := make(map[string]bool, len(found))
	for _, name := range found {
		have[name] = true
	}
	var missing []string
	for _, name := range RequiredTables {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// Quote double-quotes an identifier.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
