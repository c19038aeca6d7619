package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/emissions-cli/internal/fetcher"
	"github.com/sells-group/emissions-cli/internal/leads"
	"github.com/sells-group/emissions-cli/internal/query"
	"github.com/sells-group/emissions-cli/internal/report"
	"github.com/sells-group/emissions-cli/internal/scorer"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Find, score and tier emission-control leads",
	Long: "Aggregates releases per facility over a year range, gates candidates on plant age and region, " +
		"scores the survivors 0-100 and groups them into priority tiers. --format xlsx writes a workbook " +
		"with a summary sheet and one sheet per tier.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := outputFormat(cmd, geoFormats)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		activity, _ := f.GetString("activity")
		countries, _ := f.GetStringSlice("country")
		pollutants, _ := f.GetStringSlice("pollutant")
		yearsStr, _ := f.GetString("years")
		minTotal, _ := f.GetFloat64("min-total")
		limit, _ := f.GetInt("limit")
		signalsPath, _ := f.GetString("signals")
		showRejected, _ := f.GetBool("rejected")

		years, err := parseYears(yearsStr)
		if err != nil {
			return err
		}

		applyLeadOverrides(cmd)

		opts := leads.Options{
			MinAge:         cfg.Scoring.MinAge,
			AllowedRegions: cfg.Scoring.AllowedRegions,
			MinScore:       cfg.Scoring.MinScore,
		}
		if signalsPath != "" {
			opts.Signals, err = loadSignals(signalsPath)
			if err != nil {
				return err
			}
		}

		s, err := newScorer()
		if err != nil {
			return err
		}

		e, err := openEnv(ctx, "leads")
		if err != nil {
			return err
		}
		defer e.Close()

		filter := query.LeadFilter{
			ActivityCode:   activity,
			Countries:      countries,
			Pollutants:     pollutants,
			Years:          years,
			MinTotalTonnes: minTotal,
			Limit:          limit,
		}
		res, err := leads.New(e.engine, s, opts).Run(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "leads")
		}

		switch format {
		case report.FormatXLSX:
			return writeLeadWorkbook(cmd, res, s.Tiers(), report.NewRunInfo(years, describeFilter(filter)))
		case report.FormatTable:
			if len(res.Leads) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No leads found.")
			} else if err := emit(cmd, format, result{table: report.LeadsTable(res.Leads)}); err != nil {
				return err
			}
			if showRejected && len(res.Rejected) > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
				return report.WriteText(cmd.OutOrStdout(), report.RejectedTable(res.Rejected))
			}
			return nil
		}

		layer := report.LeadLayer(res.Leads)
		return emit(cmd, format, result{
			sheet: "Leads",
			table: report.LeadsTable(res.Leads),
			data:  res,
			layer: &layer,
		})
	},
}

func init() {
	f := leadsCmd.Flags()
	f.String("activity", "", "main activity code (e.g. 5(b))")
	f.StringSlice("country", nil, "country codes (e.g. DE,FR)")
	f.StringSlice("pollutant", nil, "only aggregate these pollutant names or codes")
	f.String("years", defaultYears, "reporting years, YYYY or YYYY-YYYY (inclusive)")
	f.Float64("min-total", 0, "minimum summed releases in tonnes (inclusive)")
	f.Int("limit", 0, "maximum candidates (0 = configured default)")
	f.Int("min-age", 0, "minimum plant age in years (overrides scoring.min_age)")
	f.StringSlice("region", nil, "allowed regions (overrides scoring.allowed_regions)")
	f.Int("min-score", 0, "drop leads scoring below this (overrides scoring.min_score)")
	f.String("signals", "", "JSON file of extra per-facility signals keyed by facility_id")
	f.Bool("rejected", false, "also list rejected candidates (table format)")
	addOutputFlags(leadsCmd, geoFormats)

	rootCmd.AddCommand(leadsCmd)
}

// applyLeadOverrides copies explicitly set flags over the scoring config.
func applyLeadOverrides(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("min-age") {
		cfg.Scoring.MinAge, _ = f.GetInt("min-age")
	}
	if f.Changed("region") {
		cfg.Scoring.AllowedRegions, _ = f.GetStringSlice("region")
	}
	if f.Changed("min-score") {
		cfg.Scoring.MinScore, _ = f.GetInt("min-score")
	}
}

// loadSignals reads a JSON array (or single object) of records and indexes
// them by facility id.
func loadSignals(path string) (map[string]scorer.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "leads: open signals %s", path)
	}
	defer file.Close() //nolint:errcheck

	records, err := fetcher.DecodeJSON[scorer.Record](file)
	if err != nil {
		return nil, eris.Wrapf(err, "leads: read signals %s", path)
	}

	out := make(map[string]scorer.Record, len(records))
	for i, r := range records {
		r = scorer.Normalize(r)
		id, ok := r.String(scorer.KeyFacilityID)
		if !ok {
			return nil, eris.Errorf("leads: signals record %d has no %s", i, scorer.KeyFacilityID)
		}
		delete(r, scorer.KeyFacilityID)
		out[id] = r
	}
	zap.L().Info("leads: loaded signals", zap.String("path", path), zap.Int("facilities", len(out)))
	return out, nil
}

// describeFilter renders the non-default lead filter values for the
// workbook summary.
func describeFilter(f query.LeadFilter) string {
	var parts []string
	if f.ActivityCode != "" {
		parts = append(parts, "activity="+f.ActivityCode)
	}
	if len(f.Countries) > 0 {
		parts = append(parts, "countries="+strings.Join(f.Countries, ","))
	}
	if len(f.Pollutants) > 0 {
		parts = append(parts, "pollutants="+strings.Join(f.Pollutants, ","))
	}
	if f.MinTotalTonnes > 0 {
		parts = append(parts, fmt.Sprintf("min_total=%gt", f.MinTotalTonnes))
	}
	return strings.Join(parts, " ")
}

func writeLeadWorkbook(cmd *cobra.Command, res *leads.Result, tiers []scorer.Tier, info report.RunInfo) error {
	wb, err := report.LeadWorkbook(res, tiers, info)
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(cmd)
	if err != nil {
		return err
	}
	if err := wb.Write(w); err != nil {
		closeFn() //nolint:errcheck
		return eris.Wrap(err, "leads: write workbook")
	}
	if err := closeFn(); err != nil {
		return eris.Wrap(err, "leads: close workbook")
	}

	zap.L().Info("leads: workbook written",
		zap.String("run_id", info.RunID),
		zap.Int("leads", len(res.Leads)),
		zap.Int("rejected", len(res.Rejected)),
	)
	return nil
}
