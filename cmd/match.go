package main

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/emissions-cli/internal/fetcher"
	"github.com/sells-group/emissions-cli/internal/model"
	"github.com/sells-group/emissions-cli/internal/query"
	"github.com/sells-group/emissions-cli/internal/report"
	"github.com/sells-group/emissions-cli/internal/similarity"
)

// nameMatch correlates one external name with a facility.
type nameMatch struct {
	Row        int     `json:"row"`
	Input      string  `json:"input"`
	Matched    bool    `json:"matched"`
	FacilityID string  `json:"facility_id,omitempty"`
	Facility   string  `json:"facility,omitempty"`
	MatchedOn  string  `json:"matched_on,omitempty"`
	Country    string  `json:"country,omitempty"`
	Score      float64 `json:"score"`
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Correlate external company names with facilities",
	Long: "Reads company names from a CSV, TSV or XLSX file and finds the most similar facility by facility " +
		"name or parent company. Matches below the similarity threshold are reported as unmatched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format, err := outputFormat(cmd, tabularFormats)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		input, _ := f.GetString("input")
		column, _ := f.GetString("column")
		countries, _ := f.GetStringSlice("country")
		if f.Changed("algorithm") {
			cfg.Match.Algorithm, _ = f.GetString("algorithm")
		}
		if f.Changed("threshold") {
			cfg.Match.Threshold, _ = f.GetFloat64("threshold")
		}

		sim, err := similarity.ByName(cfg.Match.Algorithm)
		if err != nil {
			return err
		}

		table, err := fetcher.ReadTable(ctx, input)
		if err != nil {
			return err
		}
		col := table.Column(column, "name", "company", "company_name")
		if col < 0 {
			return eris.Errorf("match: %s has no %q column", input, column)
		}

		e, err := openEnv(ctx, "query")
		if err != nil {
			return err
		}
		defer e.Close()

		facilities, err := e.engine.SearchFacilities(ctx, query.FacilityFilter{
			Countries: countries,
			Limit:     cfg.Query.MaxLimit,
		})
		if err != nil {
			return eris.Wrap(err, "match: load facilities")
		}

		matches := matchNames(sim, cfg.Match.Threshold, table, col, facilities)
		zap.L().Info("match: complete",
			zap.String("algorithm", cfg.Match.Algorithm),
			zap.Int("names", len(matches)),
			zap.Int("facilities", len(facilities)),
		)

		return emit(cmd, format, result{
			sheet: "Matches",
			table: matchTable(matches),
			data:  matches,
		})
	},
}

func init() {
	f := matchCmd.Flags()
	f.StringP("input", "i", "", "CSV, TSV or XLSX file of company names (required)")
	f.String("column", "name", "column holding the company name")
	f.StringSlice("country", nil, "only match facilities in these countries")
	f.String("algorithm", similarity.AlgorithmTokenSet, "similarity algorithm: token_set, levenshtein (overrides match.algorithm)")
	f.Float64("threshold", 0.8, "minimum similarity 0-1 (overrides match.threshold)")
	_ = matchCmd.MarkFlagRequired("input")
	addOutputFlags(matchCmd, tabularFormats)

	rootCmd.AddCommand(matchCmd)
}

// matchNames finds the best facility for every non-blank name in column col.
// Both the facility name and its parent company are candidates.
func matchNames(sim similarity.Func, threshold float64, t fetcher.Table, col int, facilities []model.Facility) []nameMatch {
	var candidates []string
	var owner []int
	for i, fac := range facilities {
		candidates = append(candidates, fac.Name)
		owner = append(owner, i)
		if fac.ParentCompany != "" {
			candidates = append(candidates, fac.ParentCompany)
			owner = append(owner, i)
		}
	}

	out := make([]nameMatch, 0, len(t.Rows))
	for i, row := range t.Rows {
		name := strings.TrimSpace(fetcher.Value(row, col))
		if name == "" {
			continue
		}
		m := nameMatch{Row: i + 1, Input: name}
		if best, ok := similarity.BestMatch(sim, name, candidates, threshold); ok {
			fac := facilities[owner[best.Index]]
			m.Matched = true
			m.FacilityID = fac.ID
			m.Facility = fac.Name
			m.MatchedOn = best.Name
			m.Country = fac.CountryCode
			m.Score = best.Score
		}
		out = append(out, m)
	}
	return out
}

func matchTable(rows []nameMatch) report.Table {
	t := report.Table{Header: []string{"row", "input", "matched", "facility_id", "facility", "matched_on", "country", "score"}}
	for _, m := range rows {
		score := ""
		if m.Matched {
			score = strconv.FormatFloat(m.Score, 'f', 3, 64)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(m.Row), m.Input, strconv.FormatBool(m.Matched),
			m.FacilityID, m.Facility, m.MatchedOn, m.Country, score,
		})
	}
	return t
}
