package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/pkg/logger"
	"github.com/wonny/fundlens/pkg/metrics"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // 앞의 N회 실패
	calls    atomic.Int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(_ context.Context) error {
	if n := j.calls.Add(1); n <= j.failures {
		return errors.New("upstream down")
	}
	return nil
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "0 * * * * *"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@every 1m"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@every 1m"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "c", schedule: "not a cron"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestScheduler_RunJobNowRetries(t *testing.T) {
	m := metrics.New()
	s := New(logger.Nop(), WithRetry(2, time.Millisecond), WithMetrics(m))

	ok := &countingJob{name: "flaky", schedule: "@every 1h", failures: 2}
	bad := &countingJob{name: "broken", schedule: "@every 1h", failures: 10}
	require.NoError(t, s.AddJob(ok))
	require.NoError(t, s.AddJob(bad))

	require.NoError(t, s.RunJobNow(context.Background(), "flaky"))
	assert.Equal(t, int32(3), ok.calls.Load())

	assert.Error(t, s.RunJobNow(context.Background(), "broken"))
	assert.Equal(t, int32(3), bad.calls.Load(), "1 try + 2 retries")

	assert.Error(t, s.RunJobNow(context.Background(), "missing"))

	stats := s.GetJobStats()
	assert.Equal(t, 1, stats["flaky"].SuccessCount)
	assert.Equal(t, 1, stats["broken"].FailureCount)
	assert.NotNil(t, stats["broken"].LastFailure)
	assert.Nil(t, stats["broken"].LastSuccess)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("flaky", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("broken", "error")))

	history, err := s.GetJobHistory("broken")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "upstream down", history[0].Error)
}

func TestScheduler_CancelStopsRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &countingJob{name: "slow", schedule: "@every 1h", failures: 10}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.RunJobNow(ctx, "slow"))
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(3))
}
