package db

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Ping retry settings. Only Postgres is retried; a SQLite file either opens
// or it does not.
const (
	pingAttempts   = 3
	pingTimeout    = 10 * time.Second
	initialBackoff = 250 * time.Millisecond
	maxBackoff     = 2 * time.Second
	jitterFraction = 0.25
)

// ping verifies connectivity, retrying Postgres with exponential backoff and
// jitter. Context cancellation stops retries immediately.
func ping(ctx context.Context, h *sqlx.DB, driver string) error {
	attempts := 1
	if driver == DriverPostgres {
		attempts = pingAttempts
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = h.PingContext(pingCtx)
		cancel()
		if err == nil || ctx.Err() != nil || attempt == attempts-1 {
			return err
		}

		delay := backoff(attempt)
		zap.L().Warn("db: ping failed, retrying",
			zap.String("driver", driver),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// backoff returns the delay before retry attempt+1: initialBackoff doubled
// per attempt, capped at maxBackoff, then jittered by ±jitterFraction.
func backoff(attempt int) time.Duration {
	delay := float64(initialBackoff) * math.Pow(2, float64(attempt))
	delay = math.Min(delay, float64(maxBackoff))
	delay += (rand.Float64()*2 - 1) * delay * jitterFraction
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
