package main

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/emissions-cli/internal/fetcher"
	"github.com/sells-group/emissions-cli/internal/report"
	"github.com/sells-group/emissions-cli/internal/scorer"
)

// scoredRecord is the outcome of scoring one input record.
type scoredRecord struct {
	Index      int      `json:"index"`
	FacilityID string   `json:"facility_id,omitempty"`
	Name       string   `json:"name,omitempty"`
	Passed     bool     `json:"passed"`
	Filter     string   `json:"filter,omitempty"`
	Score      int      `json:"score"`
	Tier       int      `json:"tier"`
	TierLabel  string   `json:"tier_label"`
	Action     string   `json:"action"`
	Reasons    []string `json:"reasons"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score facility records from JSON",
	Long: "Reads a JSON array of facility records (or a single object) from --input or stdin and scores each one. " +
		"Records are flat objects keyed by signal name, e.g. energy_input_tj, nox, start_date, country, compliance_status.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := outputFormat(cmd, tabularFormats)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		input, _ := f.GetString("input")
		gate, _ := f.GetBool("filter")

		applyLeadOverrides(cmd)
		if gate {
			if err := cfg.Validate("leads"); err != nil {
				return err
			}
		}

		s, err := newScorer()
		if err != nil {
			return err
		}

		var r io.Reader = cmd.InOrStdin()
		if input != "" && input != "-" {
			file, err := os.Open(input)
			if err != nil {
				return eris.Wrapf(err, "score: open %s", input)
			}
			defer file.Close() //nolint:errcheck
			r = file
		}

		records, err := fetcher.DecodeJSON[scorer.Record](r)
		if err != nil {
			return eris.Wrap(err, "score: read records")
		}

		results := make([]scoredRecord, 0, len(records))
		for i, rec := range records {
			results = append(results, scoreRecord(s, i, scorer.Normalize(rec), gate))
		}
		zap.L().Info("score: records scored", zap.Int("records", len(results)))

		return emit(cmd, format, result{
			sheet: "Scores",
			table: scoreTable(results),
			data:  results,
		})
	},
}

func init() {
	f := scoreCmd.Flags()
	f.StringP("input", "i", "", "JSON file of records (default stdin)")
	f.Bool("filter", false, "apply the plant age and region gate before scoring")
	f.Int("min-age", 0, "minimum plant age in years (overrides scoring.min_age)")
	f.StringSlice("region", nil, "allowed regions (overrides scoring.allowed_regions)")
	addOutputFlags(scoreCmd, tabularFormats)

	rootCmd.AddCommand(scoreCmd)
}

func scoreRecord(s *scorer.Scorer, index int, rec scorer.Record, gate bool) scoredRecord {
	out := scoredRecord{Index: index, Passed: true}
	out.FacilityID, _ = rec.String(scorer.KeyFacilityID)
	out.Name, _ = rec.String(scorer.KeyName)

	if gate {
		out.Passed, out.Filter = s.FilterLead(rec, cfg.Scoring.MinAge, cfg.Scoring.AllowedRegions)
		if !out.Passed {
			out.Reasons = []string{}
			return out
		}
	}

	out.Score, out.Reasons = s.ScoreLead(rec)
	t := s.GetTier(out.Score)
	out.Tier, out.TierLabel, out.Action = t.Tier, t.Label, t.Action
	return out
}

func scoreTable(rows []scoredRecord) report.Table {
	t := report.Table{Header: []string{"index", "facility_id", "name", "passed", "filter", "score", "tier", "tier_label", "action", "reasons"}}
	for _, r := range rows {
		tier, score := "", ""
		if r.Passed {
			tier, score = strconv.Itoa(r.Tier), strconv.Itoa(r.Score)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(r.Index), r.FacilityID, r.Name, strconv.FormatBool(r.Passed), r.Filter,
			score, tier, r.TierLabel, r.Action, strings.Join(r.Reasons, "; "),
		})
	}
	return t
}
