// Package query composes optional, independent filters into parameterized SQL
// over the EEA schema. Every operation is read-only and bounded by a limit.
package query

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/emissions-cli/internal/cache"
	"github.com/sells-group/emissions-cli/internal/config"
	"github.com/sells-group/emissions-cli/internal/db"
	"github.com/sells-group/emissions-cli/internal/metrics"
)

// ErrInvalidFilter is returned when a filter fails validation, e.g. an
// inverted year range or an unknown medium.
var ErrInvalidFilter = eris.New("query: invalid filter")

// Engine runs queries against one shared database handle.
type Engine struct {
	db       *sqlx.DB
	cfg      config.QueryConfig
	validate *validator.Validate
	cache    cache.Cache
	cacheTTL time.Duration
	group    singleflight.Group
}

// New creates an Engine over db. A nil cache falls back to an in-process
// cache; ttl bounds how long filter options are reused.
func New(db *sqlx.DB, cfg config.QueryConfig, c cache.Cache, ttl time.Duration) *Engine {
	if c == nil {
		c = cache.NewMemory()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Engine{
		db:       db,
		cfg:      cfg,
		validate: validator.New(),
		cache:    c,
		cacheTTL: ttl,
	}
}

// check validates a filter struct, wrapping failures in ErrInvalidFilter.
func (e *Engine) check(op string, filter any) error {
	if err := e.validate.Struct(filter); err != nil {
		return eris.Wrapf(ErrInvalidFilter, "%s: %v", op, err)
	}
	return nil
}

// limit resolves a requested limit: non-positive means the operation
// default, anything above the configured maximum is clamped.
func (e *Engine) limit(op string, requested, def int) int {
	if requested <= 0 {
		requested = def
	}
	if requested <= 0 {
		requested = 100
	}
	if e.cfg.MaxLimit > 0 && requested > e.cfg.MaxLimit {
		zap.L().Warn("query: limit clamped",
			zap.String("op", op),
			zap.Int("requested", requested),
			zap.Int("max", e.cfg.MaxLimit),
		)
		metrics.LimitsClamped.WithLabelValues(op).Inc()
		requested = e.cfg.MaxLimit
	}
	return requested
}

// fold wraps a column expression in the driver's case-folding function.
func (e *Engine) fold(col string) string {
	return db.FoldExpr(e.db.DriverName(), col)
}

// observe records the outcome of one operation.
func observe(op string, start time.Time, rows int, err error) {
	elapsed := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.QueriesTotal.WithLabelValues(op, status).Inc()
	metrics.QueryLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	if err == nil {
		metrics.RowsReturned.WithLabelValues(op).Add(float64(rows))
	}
	zap.L().Debug("query: executed",
		zap.String("op", op),
		zap.Int("rows", rows),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	)
}
