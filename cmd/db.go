package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/emissions-cli/internal/db"
	"github.com/sells-group/emissions-cli/internal/schema"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the EEA database schema",
	Long:  "Bootstraps empty development databases with the EEA schema and reports schema status. The query commands never write.",
}

// -- db init --

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the EEA tables in an empty database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("query"); err != nil {
			return err
		}

		h, err := db.OpenWritable(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer h.Close() //nolint:errcheck

		applied, err := schema.Apply(ctx, h.DB, cfg.Store.Driver)
		if err != nil {
			return eris.Wrap(err, "db init")
		}

		out := cmd.OutOrStdout()
		if len(applied) == 0 {
			fmt.Fprintln(out, "Schema is up to date.")
			return nil
		}
		for _, r := range applied {
			fmt.Fprintf(out, "applied %d %s\n", r.Version, r.Source)
		}
		return nil
	},
}

// -- db status --

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show schema version and missing EEA tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("query"); err != nil {
			return err
		}

		if cfg.Store.Driver == db.DriverSQLite {
			if _, err := os.Stat(cfg.Store.DatabaseURL); err != nil {
				return eris.Wrapf(db.ErrUnavailable, "sqlite file %s: %v", cfg.Store.DatabaseURL, err)
			}
		}

		h, err := db.OpenWritable(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer h.Close() //nolint:errcheck

		missing, err := db.MissingTables(ctx, h)
		if err != nil {
			return eris.Wrap(err, "db status")
		}
		version, err := schema.Version(ctx, h.DB, cfg.Store.Driver)
		if err != nil {
			// Databases loaded outside goose have no version table.
			version = 0
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Driver:          %s\n", cfg.Store.Driver)
		fmt.Fprintf(out, "Schema version:  %d\n", version)
		if len(missing) == 0 {
			fmt.Fprintln(out, "Tables:          all present")
		} else {
			fmt.Fprintf(out, "Missing tables:  %s\n", strings.Join(missing, ", "))
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbInitCmd, dbStatusCmd)
	rootCmd.AddCommand(dbCmd)
}
