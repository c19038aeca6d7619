package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/emissions-cli/internal/leads"
	"github.com/sells-group/emissions-cli/internal/model"
	"github.com/sells-group/emissions-cli/internal/scorer"
)

// maxSheetName is Excel's limit on worksheet name length.
const maxSheetName = 31

// RunInfo identifies one export run. The run id is stamped into the workbook
// and the logs so an exported file can be traced back to its invocation.
type RunInfo struct {
	RunID       string
	GeneratedAt time.Time
	Years       model.YearRange
	Filter      string
}

// NewRunInfo stamps a fresh run id and timestamp.
func NewRunInfo(years model.YearRange, filter string) RunInfo {
	return RunInfo{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Years:       years,
		Filter:      filter,
	}
}

func sheetName(s string) string {
	s = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")").Replace(s)
	if r := []rune(s); len(r) > maxSheetName {
		s = string(r[:maxSheetName])
	}
	return s
}

// TierSheetName is the worksheet name used for a tier.
func TierSheetName(t scorer.Tier) string {
	return sheetName(fmt.Sprintf("Tier %d - %s", t.Tier, t.Label))
}

func addStrings(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// LeadWorkbook builds a workbook with a summary sheet, one sheet per tier
// (in tier order, header only when a tier is empty) and a sheet of rejected
// candidates when there are any.
func LeadWorkbook(res *leads.Result, tiers []scorer.Tier, info RunInfo) (*xlsx.File, error) {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return nil, eris.Wrap(err, "report: add summary sheet")
	}
	addStrings(summary, "Run ID", info.RunID)
	addStrings(summary, "Generated at", info.GeneratedAt.Format(time.RFC3339))
	addStrings(summary, "Years", info.Years.String())
	if info.Filter != "" {
		addStrings(summary, "Filter", info.Filter)
	}
	addStrings(summary, "Leads", strconv.Itoa(len(res.Leads)))
	addStrings(summary, "Rejected", strconv.Itoa(len(res.Rejected)))
	summary.AddRow()
	addStrings(summary, "Tier", "Label", "Min score", "Leads", "Action")

	byTier := leads.ByTier(res.Leads)
	rank := make(map[string]int, len(res.Leads))
	for i, l := range res.Leads {
		rank[l.ID] = i + 1
	}

	for _, t := range tiers {
		row := summary.AddRow()
		row.AddCell().SetInt(t.Tier)
		row.AddCell().SetString(t.Label)
		row.AddCell().SetInt(t.Min)
		row.AddCell().SetInt(len(byTier[t.Tier]))
		row.AddCell().SetString(t.Action)

		sheet, err := f.AddSheet(TierSheetName(t))
		if err != nil {
			return nil, eris.Wrapf(err, "report: add sheet for tier %d", t.Tier)
		}
		addStrings(sheet, LeadHeader...)
		for _, l := range byTier[t.Tier] {
			addLeadRow(sheet, rank[l.ID], l)
		}
	}

	if len(res.Rejected) > 0 {
		sheet, err := f.AddSheet("Rejected")
		if err != nil {
			return nil, eris.Wrap(err, "report: add rejected sheet")
		}
		rt := RejectedTable(res.Rejected)
		addStrings(sheet, rt.Header...)
		for _, r := range rt.Rows {
			addStrings(sheet, r...)
		}
	}

	return f, nil
}

func addLeadRow(sheet *xlsx.Sheet, rank int, l model.Lead) {
	row := sheet.AddRow()
	row.AddCell().SetInt(rank)
	for _, s := range []string{l.ID, l.Name, l.ParentCompany, l.City, l.CountryCode, l.ActivityName} {
		row.AddCell().SetString(s)
	}
	row.AddCell().SetInt(l.Score)
	row.AddCell().SetInt(l.Tier)
	row.AddCell().SetString(l.TierLabel)
	row.AddCell().SetString(l.Action)
	row.AddCell().SetFloat(model.Tonnes(l.TotalKg))
	row.AddCell().SetInt(l.YearsReported)
	row.AddCell().SetInt(l.PollutantCount)
	row.AddCell().SetFloat(l.EnergyInputTJ)
	row.AddCell().SetString(strings.Join(l.Reasons, "; "))
}

// SaveLeadWorkbook writes the lead workbook to path.
func SaveLeadWorkbook(path string, res *leads.Result, tiers []scorer.Tier, info RunInfo) error {
	f, err := LeadWorkbook(res, tiers, info)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook holding t.
func WriteXLSX(w io.Writer, sheet string, t Table) error {
	f := xlsx.NewFile()
	s, err := f.AddSheet(sheetName(sheet))
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}
	addStrings(s, t.Header...)
	for _, r := range t.Rows {
		addStrings(s, r...)
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}
