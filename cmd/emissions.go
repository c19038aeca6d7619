package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/emissions-cli/internal/query"
	"github.com/sells-group/emissions-cli/internal/report"
)

// defaultYears is the reporting window used when --years is not given.
const defaultYears = "2017-2021"

var emissionsCmd = &cobra.Command{
	Use:   "emissions",
	Short: "Search pollutant releases",
	Long:  "Lists pollutant releases per facility, year, pollutant and medium within a year range. Duplicate rows for the same key are summed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := outputFormat(cmd, tabularFormats)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		facility, _ := f.GetString("facility")
		pollutants, _ := f.GetStringSlice("pollutant")
		mediumNames, _ := f.GetStringSlice("medium")
		yearsStr, _ := f.GetString("years")
		countries, _ := f.GetStringSlice("country")
		limit, _ := f.GetInt("limit")

		years, err := parseYears(yearsStr)
		if err != nil {
			return err
		}
		mediums, err := parseMediums(mediumNames)
		if err != nil {
			return err
		}

		e, err := openEnv(ctx, "query")
		if err != nil {
			return err
		}
		defer e.Close()

		rows, err := e.engine.SearchEmissions(ctx, query.EmissionFilter{
			FacilityName: facility,
			Pollutants:   pollutants,
			Mediums:      mediums,
			Years:        years,
			Countries:    countries,
			Limit:        limit,
		})
		if err != nil {
			return eris.Wrap(err, "emissions")
		}

		if len(rows) == 0 && format == report.FormatTable {
			fmt.Fprintln(cmd.ErrOrStderr(), "No releases found.")
			return nil
		}

		return emit(cmd, format, result{
			sheet: "Emissions " + years.String(),
			table: report.EmissionsTable(rows),
			data:  rows,
		})
	},
}

func init() {
	f := emissionsCmd.Flags()
	f.String("facility", "", "case-insensitive substring of facility name or parent company")
	f.StringSlice("pollutant", nil, "pollutant names or codes")
	f.StringSlice("medium", nil, "release mediums: AIR, WATER, LAND")
	f.String("years", defaultYears, "reporting years, YYYY or YYYY-YYYY (inclusive)")
	f.StringSlice("country", nil, "country codes (e.g. DE,FR)")
	f.Int("limit", 0, "maximum rows (0 = configured default)")
	addOutputFlags(emissionsCmd, tabularFormats)

	rootCmd.AddCommand(emissionsCmd)
}
