package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/emissions-cli/internal/model"
	"github.com/sells-group/emissions-cli/internal/query"
	"github.com/sells-group/emissions-cli/internal/report"
)

var facilitiesCmd = &cobra.Command{
	Use:   "facilities",
	Short: "Search facilities",
	Long:  "Searches facilities by name, parent company or city, country and main activity. With --id, loads the given facilities instead.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := outputFormat(cmd, geoFormats)
		if err != nil {
			return err
		}

		e, err := openEnv(ctx, "query")
		if err != nil {
			return err
		}
		defer e.Close()

		f := cmd.Flags()
		ids, _ := f.GetStringSlice("id")
		name, _ := f.GetString("name")
		countries, _ := f.GetStringSlice("country")
		activity, _ := f.GetString("activity")
		limit, _ := f.GetInt("limit")

		var rows []model.Facility
		if len(ids) > 0 {
			rows, err = e.engine.Facilities(ctx, ids)
		} else {
			rows, err = e.engine.SearchFacilities(ctx, query.FacilityFilter{
				Name:         name,
				Countries:    countries,
				ActivityCode: activity,
				Limit:        limit,
			})
		}
		if err != nil {
			return eris.Wrap(err, "facilities")
		}

		zap.L().Debug("facilities: loaded", zap.Int("rows", len(rows)))
		if len(rows) == 0 && format == report.FormatTable {
			fmt.Fprintln(cmd.ErrOrStderr(), "No facilities found.")
			return nil
		}

		layer := report.FacilityLayer(rows)
		return emit(cmd, format, result{
			sheet: "Facilities",
			table: report.FacilitiesTable(rows),
			data:  rows,
			layer: &layer,
		})
	},
}

func init() {
	f := facilitiesCmd.Flags()
	f.String("name", "", "case-insensitive substring of facility name, parent company or city")
	f.StringSlice("country", nil, "country codes (e.g. DE,FR)")
	f.String("activity", "", "main activity code (e.g. 1(c))")
	f.StringSlice("id", nil, "facility ids to load")
	f.Int("limit", 0, "maximum rows (0 = configured default)")
	addOutputFlags(facilitiesCmd, geoFormats)

	rootCmd.AddCommand(facilitiesCmd)
}
