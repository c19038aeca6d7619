package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/emissions-cli/internal/report"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the values available to each filter",
	Long:  "Lists distinct countries, pollutants, reporting years and main activities in the database.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := outputFormat(cmd, tabularFormats)
		if err != nil {
			return err
		}

		e, err := openEnv(ctx, "query")
		if err != nil {
			return err
		}
		defer e.Close()

		opts, err := e.engine.FilterOptions(ctx)
		if err != nil {
			return eris.Wrap(err, "options")
		}

		return emit(cmd, format, result{
			sheet: "Options",
			table: report.OptionsTable(opts),
			data:  opts,
		})
	},
}

func init() {
	addOutputFlags(optionsCmd, tabularFormats)
	rootCmd.AddCommand(optionsCmd)
}
