package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/emissions-cli/internal/model"
	"github.com/sells-group/emissions-cli/internal/query"
	"github.com/sells-group/emissions-cli/internal/report"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank the largest emitters of one pollutant",
	Long:  "Sums releases of one pollutant into one medium per facility across a year range and lists the largest emitters.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := outputFormat(cmd, tabularFormats)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		pollutant, _ := f.GetString("pollutant")
		mediumName, _ := f.GetString("medium")
		yearsStr, _ := f.GetString("years")
		countries, _ := f.GetStringSlice("country")
		n, _ := f.GetInt("top")

		years, err := parseYears(yearsStr)
		if err != nil {
			return err
		}
		medium, ok := model.ParseMedium(mediumName)
		if !ok {
			return eris.Errorf("top: invalid --medium %q: want AIR, WATER or LAND", mediumName)
		}

		e, err := openEnv(ctx, "query")
		if err != nil {
			return err
		}
		defer e.Close()

		rows, err := e.engine.TopEmitters(ctx, query.TopFilter{
			Pollutant: pollutant,
			Medium:    medium,
			Years:     years,
			Countries: countries,
			TopN:      n,
		})
		if err != nil {
			return eris.Wrap(err, "top")
		}

		if len(rows) == 0 && format == report.FormatTable {
			fmt.Fprintf(cmd.ErrOrStderr(), "No %s releases to %s in %s.\n", pollutant, medium, years)
			return nil
		}

		return emit(cmd, format, result{
			sheet: "Top " + pollutant,
			table: report.TopEmittersTable(rows),
			data:  rows,
		})
	},
}

func init() {
	f := topCmd.Flags()
	f.String("pollutant", "", "pollutant name or code (required)")
	f.String("medium", string(model.MediumAir), "release medium: AIR, WATER, LAND")
	f.String("years", defaultYears, "reporting years, YYYY or YYYY-YYYY (inclusive)")
	f.StringSlice("country", nil, "country codes (e.g. DE,FR)")
	f.Int("top", 0, "number of facilities (0 = configured default)")
	_ = topCmd.MarkFlagRequired("pollutant")
	addOutputFlags(topCmd, tabularFormats)

	rootCmd.AddCommand(topCmd)
}
