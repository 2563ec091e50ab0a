package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/shelf/internal/cache"
	"github.com/five82/shelf/internal/inventory"
	"github.com/five82/shelf/internal/state"
)

const (
	defaultRevalidateInterval = 30 * time.Second
	maxBackoff                = 4 * time.Minute
)

// Prober is the call the revalidator uses to check the session.
type Prober interface {
	Me(ctx context.Context) (inventory.User, error)
}

// StartRevalidator launches a background goroutine that probes the session,
// records the outcome in store and sweeps idle cache entries. While the
// backend keeps failing, probes back off exponentially. It returns when ctx
// is cancelled.
func StartRevalidator(ctx context.Context, store *state.Store, client Prober, c *cache.Cache, interval time.Duration, logger *zap.Logger) {
	go runRevalidator(ctx, store, client, c, interval, logger)
}

func runRevalidator(ctx context.Context, store *state.Store, client Prober, c *cache.Cache, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultRevalidateInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("revalidate")

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		revalidate(ctx, store, client, logger)
		if c != nil {
			c.Sweep()
		}

		wait := calculateBackoff(store.Snapshot().ConsecutiveFailures, interval)
		timer.Reset(wait)
	}
}

// revalidate runs one probe. Probes are skipped while no user is signed in.
func revalidate(ctx context.Context, store *state.Store, client Prober, logger *zap.Logger) {
	snap := store.Snapshot()
	if !snap.HasUser {
		return
	}
	user, err := client.Me(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		store.Update(nil, err)
		logger.Warn("session probe failed",
			zap.String("kind", inventory.Classify(err).String()),
			zap.Int("consecutive_failures", store.Snapshot().ConsecutiveFailures),
			zap.Error(err),
		)
		return
	}
	store.Update(&user, nil)
}

// calculateBackoff doubles base once per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
