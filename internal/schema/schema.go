// Package schema carries the EEA table definitions as embedded goose
// migrations. The query engine never migrates; these exist to bootstrap
// development and test databases.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Result summarizes one applied migration.
type Result struct {
	Version int64
	Source  string
}

func provider(db *sql.DB, driver string) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch driver {
	case "sqlite":
		dialect = goose.DialectSQLite3
	case "postgres":
		dialect = goose.DialectPostgres
	default:
		return nil, eris.Errorf("schema: unsupported driver %q", driver)
	}

	fsys, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return nil, eris.Wrap(err, "schema: sub migrations fs")
	}

	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, eris.Wrap(err, "schema: new provider")
	}
	return p, nil
}

// Apply runs every pending migration against db. driver is the config store
// driver ("sqlite" or "postgres").
func Apply(ctx context.Context, db *sql.DB, driver string) ([]Result, error) {
	p, err := provider(db, driver)
	if err != nil {
		return nil, err
	}

	applied, err := p.Up(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "schema: apply migrations")
	}

	results := make([]Result, 0, len(applied))
	for _, r := range applied {
		zap.L().Info("schema: applied migration",
			zap.Int64("version", r.Source.Version),
			zap.String("source", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
		results = append(results, Result{Version: r.Source.Version, Source: r.Source.Path})
	}
	return results, nil
}

// Version returns the highest applied migration version, 0 for an empty
// database.
func Version(ctx context.Context, db *sql.DB, driver string) (int64, error) {
	p, err := provider(db, driver)
	if err != nil {
		return 0, err
	}
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "schema: get version")
	}
	return v, nil
}
