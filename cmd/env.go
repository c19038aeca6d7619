package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/emissions-cli/internal/cache"
	"github.com/sells-group/emissions-cli/internal/db"
	"github.com/sells-group/emissions-cli/internal/query"
	"github.com/sells-group/emissions-cli/internal/scorer"
)

// env holds the process-wide database handle and the engine built on it.
type env struct {
	db     *sqlx.DB
	cache  cache.Cache
	engine *query.Engine
}

// openEnv validates config for mode, opens the database once and wires the
// query engine with its filter-option cache.
func openEnv(ctx context.Context, mode string) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	h, err := db.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		h.Close() //nolint:errcheck
		return nil, err
	}

	return &env{
		db:     h,
		cache:  c,
		engine: query.New(h, cfg.Query, c, cache.TTL(cfg.Cache)),
	}, nil
}

func (e *env) Close() {
	if err := e.cache.Close(); err != nil {
		zap.L().Warn("close cache", zap.Error(err))
	}
	if err := e.db.Close(); err != nil {
		zap.L().Warn("close database", zap.Error(err))
	}
}

// newScorer builds a scorer from the configured rule file, the inline
// scoring.rules section, or the built-in rules, in that order.
func newScorer() (*scorer.Scorer, error) {
	rules := scorer.DefaultRuleTable()
	switch {
	case cfg.Scoring.RulesFile != "":
		var err error
		rules, err = scorer.LoadRules(cfg.Scoring.RulesFile)
		if err != nil {
			return nil, err
		}
	case len(cfg.Scoring.Rules) > 0:
		data, err := yaml.Marshal(cfg.Scoring.Rules)
		if err != nil {
			return nil, eris.Wrap(err, "scoring.rules: encode")
		}
		rules, err = scorer.ParseRules(data)
		if err != nil {
			return nil, eris.Wrap(err, "scoring.rules")
		}
	}
	return scorer.New(rules, cfg.Scoring.ReferenceYear)
}
