package query

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/emissions-cli/internal/metrics"
)

// optionsCacheKey is versioned so a shape change never reads stale entries.
const optionsCacheKey = "filter_options:v1"

// activityLabelMax is the rune length activity names are cut to in labels.
const activityLabelMax = 60

// Country is a selectable country code with its display name.
type Country struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Activity is a selectable main-activity code with a shortened label.
type Activity struct {
	Code  string `json:"code" db:"code"`
	Name  string `json:"name" db:"name"`
	Label string `json:"label" db:"-"`
}

// Options enumerates the distinct values available to each filter.
type Options struct {
	Countries  []Country  `json:"countries"`
	Pollutants []string   `json:"pollutants"`
	Years      []int      `json:"years"`
	Activities []Activity `json:"activities"`
}

// FilterOptions returns the distinct filter values. Results are cached for
// the engine's TTL and concurrent misses share a single load.
func (e *Engine) FilterOptions(ctx context.Context) (*Options, error) {
	if raw, ok, err := e.cache.Get(ctx, optionsCacheKey); err != nil {
		zap.L().Warn("query: filter options cache read failed", zap.Error(err))
	} else if ok {
		var opts Options
		if err := json.Unmarshal(raw, &opts); err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &opts, nil
		}
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := e.group.Do(optionsCacheKey, func() (any, error) {
		opts, err := e.loadOptions(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(opts)
		if err != nil {
			return nil, eris.Wrap(err, "query: marshal filter options")
		}
		if err := e.cache.Set(ctx, optionsCacheKey, raw, e.cacheTTL); err != nil {
			zap.L().Warn("query: filter options cache write failed", zap.Error(err))
		}
		return opts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Options), nil
}

func (e *Engine) loadOptions(ctx context.Context) (opts *Options, err error) {
	const op = "filter_options"
	start := time.Now()
	defer func() {
		n := 0
		if opts != nil {
			n = len(opts.Countries) + len(opts.Pollutants) + len(opts.Years) + len(opts.Activities)
		}
		observe(op, start, n, err)
	}()

	opts = &Options{}

	var codes []string
	if err := e.db.SelectContext(ctx, &codes, `SELECT DISTINCT "countryCode" FROM "2_ProductionFacility"
		WHERE "countryCode" IS NOT NULL AND "countryCode" <> '' ORDER BY "countryCode"`); err != nil {
		return nil, eris.Wrap(err, "query: load countries")
	}
	for _, c := range codes {
		name := CountryName(c)
		opts.Countries = append(opts.Countries, Country{Code: c, Name: name, Label: name + " (" + c + ")"})
	}

	if err := e.db.SelectContext(ctx, &opts.Pollutants, `SELECT DISTINCT "pollutantName" FROM "2f_PollutantRelease"
		WHERE "pollutantName" IS NOT NULL AND "pollutantName" <> 'CONFIDENTIAL' ORDER BY "pollutantName"`); err != nil {
		return nil, eris.Wrap(err, "query: load pollutants")
	}

	if err := e.db.SelectContext(ctx, &opts.Years, `SELECT DISTINCT "reportingYear" FROM "2f_PollutantRelease"
		WHERE "reportingYear" IS NOT NULL ORDER BY "reportingYear"`); err != nil {
		return nil, eris.Wrap(err, "query: load years")
	}

	if err := e.db.SelectContext(ctx, &opts.Activities, `SELECT "mainActivityCode" AS code,
		COALESCE(MIN("mainActivityName"), '') AS name
		FROM "2_ProductionFacility"
		WHERE "mainActivityCode" IS NOT NULL
		GROUP BY "mainActivityCode" ORDER BY "mainActivityCode"`); err != nil {
		return nil, eris.Wrap(err, "query: load activities")
	}
	for i := range opts.Activities {
		opts.Activities[i].Label = activityLabel(opts.Activities[i].Code, opts.Activities[i].Name)
	}
	return opts, nil
}

// activityLabel renders "code - name", cutting long names with an ellipsis.
func activityLabel(code, name string) string {
	if name == "" {
		return code
	}
	if utf8.RuneCountInString(name) > activityLabelMax {
		name = string([]rune(name)[:activityLabelMax]) + "…"
	}
	return code + " - " + name
}
