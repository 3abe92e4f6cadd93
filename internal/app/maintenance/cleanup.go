// Package maintenance runs background cleanup of expired cache entries:
// leftover verification codes and closed rate-limit windows.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/soiree-app/soiree/internal/cache"
	"github.com/soiree-app/soiree/pkg/logger"
)

const defaultPurgeSpec = "@hourly"

// Purger removes expired entries from a cache backend and reports how many
// were deleted.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgerFunc adapts a function to the Purger interface.
type PurgerFunc func(ctx context.Context) (int64, error)

func (f PurgerFunc) PurgeExpired(ctx context.Context) (int64, error) { return f(ctx) }

// PurgerFor wraps the cache backends that support purging. Backends with
// native expiry (Redis) need no purger and yield nil.
func PurgerFor(store cache.Store) Purger {
	switch s := store.(type) {
	case *cache.DatabaseStore:
		return s
	case *cache.MemoryStore:
		return PurgerFunc(func(context.Context) (int64, error) {
			return int64(s.PurgeExpired()), nil
		})
	default:
		return nil
	}
}

// Cleaner schedules the periodic purge.
type Cleaner struct {
	purger   Purger
	cron     *cron.Cron
	log      *zap.Logger
	schedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the purge job.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil purger disables the job.
func NewCleaner(purger Purger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		purger:   purger,
		schedule: defaultPurgeSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the purge job and launches the scheduler.
func (c *Cleaner) Start() error {
	if c.purger == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("cache purge failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes the purge immediately. Used by tests and during shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if c.purger == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	start := time.Now()
	purged, err := c.purger.PurgeExpired(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if purged > 0 {
		c.log.Info("purged expired cache entries",
			zap.Int64("count", purged),
			zap.Duration("took", time.Since(start)),
		)
	}

	return errs
}
