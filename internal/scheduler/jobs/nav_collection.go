package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/fundlens/internal/navdata"
	"github.com/wonny/fundlens/pkg/logger"
)

// NavCollector refreshes stored NAV history
type NavCollector interface {
	CollectAll(ctx context.Context, codes []string) ([]navdata.Result, error)
}

// Invalidator drops cached analysis of a fund
type Invalidator interface {
	Invalidate(ctx context.Context, code string) error
}

// NavCollectionJob refreshes NAV history after the daily publication
// ⭐ SSOT: 기준가 수집 스케줄은 이 Job에서만
type NavCollectionJob struct {
	collector   NavCollector
	invalidator Invalidator
	codes       []string // 비어 있으면 저장된 전체 펀드
	schedule    string
	logger      *logger.Logger
}

// NewNavCollectionJob creates a new NAV collection job
func NewNavCollectionJob(col NavCollector, inv Invalidator, codes []string, schedule string, log *logger.Logger) *NavCollectionJob {
	if schedule == "" {
		schedule = "0 30 21 * * 1-5"
	}
	return &NavCollectionJob{
		collector:   col,
		invalidator: inv,
		codes:       codes,
		schedule:    schedule,
		logger:      log.WithComponent("nav_collection"),
	}
}

// Name returns the job name
func (j *NavCollectionJob) Name() string {
	return "nav_collection"
}

// Schedule returns the cron schedule (weekdays 21:30 by default)
func (j *NavCollectionJob) Schedule() string {
	return j.schedule
}

// Run collects new NAV points and invalidates analysis of updated funds
func (j *NavCollectionJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled NAV collection")

	results, err := j.collector.CollectAll(ctx, j.codes)
	if err != nil {
		return fmt.Errorf("collect nav: %w", err)
	}

	saved, failed := 0, 0
	for _, res := range results {
		if res.Error != nil {
			failed++
			continue
		}
		saved += res.Saved
		if res.Saved > 0 && j.invalidator != nil {
			if err := j.invalidator.Invalidate(ctx, res.Code); err != nil {
				j.logger.WithFund(res.Code).WithError(err).Warn("Failed to invalidate analysis cache")
			}
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"funds":  len(results),
		"saved":  saved,
		"failed": failed,
	}).Info("Scheduled NAV collection completed")
	return nil
}
