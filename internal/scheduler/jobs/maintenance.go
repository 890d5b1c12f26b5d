package jobs

import (
	"context"

	"github.com/wonny/fundlens/pkg/logger"
)

// StaleCleaner drops expired quotes
type StaleCleaner interface {
	CleanStale() int
}

// QuoteCacheCleanupJob cleans stale quotes from the in-process cache
type QuoteCacheCleanupJob struct {
	cache    StaleCleaner
	schedule string
	logger   *logger.Logger
}

// NewQuoteCacheCleanupJob creates a new cache cleanup job
func NewQuoteCacheCleanupJob(c StaleCleaner, schedule string, log *logger.Logger) *QuoteCacheCleanupJob {
	if schedule == "" {
		schedule = "0 * * * * *"
	}
	return &QuoteCacheCleanupJob{
		cache:    c,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *QuoteCacheCleanupJob) Name() string {
	return "quote_cache_cleanup"
}

// Schedule returns the cron schedule (every minute by default)
func (j *QuoteCacheCleanupJob) Schedule() string {
	return j.schedule
}

// Run executes the cache cleanup
func (j *QuoteCacheCleanupJob) Run(_ context.Context) error {
	count := j.cache.CleanStale()
	if count > 0 {
		j.logger.WithField("removed", count).Info("Quote cache cleanup completed")
	}
	return nil
}
