package query

import (
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"github.com/sells-group/emissions-cli/internal/db"
	"github.com/sells-group/emissions-cli/internal/model"
)

// FacilityFilter selects facilities. Zero values mean no restriction.
type FacilityFilter struct {
	// Name matches facility name, parent company or city (case-insensitive
	// substring).
	Name         string   `json:"name,omitempty"`
	Countries    []string `json:"countries,omitempty" validate:"dive,alpha,min=2,max=3"`
	ActivityCode string   `json:"activity_code,omitempty"`
	Limit        int      `json:"limit,omitempty" validate:"gte=0"`
}

// EmissionFilter selects release rows. Years is mandatory.
type EmissionFilter struct {
	// FacilityName matches facility name or parent company.
	FacilityName string `json:"facility_name,omitempty"`
	// Pollutants match pollutant name or code exactly.
	Pollutants []string        `json:"pollutants,omitempty"`
	Mediums    []model.Medium  `json:"mediums,omitempty" validate:"dive,oneof=AIR WATER LAND"`
	Years      model.YearRange `json:"years"`
	Countries  []string        `json:"countries,omitempty" validate:"dive,alpha,min=2,max=3"`
	Limit      int             `json:"limit,omitempty" validate:"gte=0"`
}

// TopFilter selects the largest emitters of one pollutant into one medium.
type TopFilter struct {
	Pollutant string          `json:"pollutant" validate:"required"`
	Medium    model.Medium    `json:"medium" validate:"required,oneof=AIR WATER LAND"`
	Years     model.YearRange `json:"years"`
	Countries []string        `json:"countries,omitempty" validate:"dive,alpha,min=2,max=3"`
	TopN      int             `json:"top_n,omitempty" validate:"gte=0"`
}

// LeadFilter selects lead candidates by aggregated releases.
type LeadFilter struct {
	ActivityCode string   `json:"activity_code,omitempty"`
	Countries    []string `json:"countries,omitempty" validate:"dive,alpha,min=2,max=3"`
	// Pollutants restricts which releases are aggregated; empty means all.
	Pollutants []string        `json:"pollutants,omitempty"`
	Years      model.YearRange `json:"years"`
	// MinTotalTonnes keeps facilities whose summed releases are at least
	// this many tonnes. Zero disables the check.
	MinTotalTonnes float64 `json:"min_total_tonnes,omitempty" validate:"gte=0"`
	Limit          int     `json:"limit,omitempty" validate:"gte=0"`
}

// builder accumulates AND-ed predicates. Slice arguments are expanded by
// sqlx.In when the query is rendered.
type builder struct {
	sql  strings.Builder
	args []any
}

// newBuilder starts a query. args bind the placeholders inside base.
func newBuilder(base string, args ...any) *builder {
	b := &builder{args: args}
	b.sql.WriteString(base)
	return b
}

func (b *builder) where(clause string, args ...any) {
	b.sql.WriteString(" AND ")
	b.sql.WriteString(clause)
	b.args = append(b.args, args...)
}

func (b *builder) raw(s string, args ...any) {
	b.sql.WriteString(s)
	b.args = append(b.args, args...)
}

// render expands IN (?) slices and rebinds placeholders for the driver.
func (b *builder) render(db *sqlx.DB) (string, []any, error) {
	q, args, err := sqlx.In(b.sql.String(), b.args...)
	if err != nil {
		return "", nil, eris.Wrap(err, "query: expand arguments")
	}
	return db.Rebind(q), args, nil
}

// likeEscape is the escape character declared on every LIKE predicate.
const likeEscape = `\`

// likePattern builds a case-folded substring pattern, escaping LIKE
// wildcards in the user input. Returns "" for blank input.
func likePattern(s string) string {
	s = db.Fold(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + r.Replace(s) + "%"
}

// likeClause matches a likePattern against any of the columns, folding
// each column with the driver's Unicode-aware lower-casing.
func (e *Engine) likeClause(cols ...string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = e.fold(c) + " LIKE ? ESCAPE '" + likeEscape + "'"
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func repeat(v any, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// normalizeCodes upper-cases, trims and de-duplicates codes, dropping blanks.
func normalizeCodes(in []string) []string {
	return clean(in, strings.ToUpper)
}

// normalizeFolded trims, case-folds and de-duplicates values, dropping
// blanks. Compare the result against Engine.fold of a column.
func normalizeFolded(in []string) []string {
	return clean(in, db.Fold)
}

// pollutantClause matches pollutant name or code, case-insensitively.
func (e *Engine) pollutantClause() string {
	return "(" + e.fold(`pr."pollutantName"`) + " IN (?) OR " + e.fold(`pr."pollutantCode"`) + " IN (?))"
}

// normalizeNames trims and de-duplicates names, dropping blanks.
func normalizeNames(in []string) []string {
	return clean(in, func(s string) string { return s })
}

func clean(in []string, fn func(string) string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = fn(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mediumStrings(in []model.Medium) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		out = append(out, string(m))
	}
	return normalizeCodes(out)
}
