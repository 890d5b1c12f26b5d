package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/navdata"
	"github.com/wonny/fundlens/pkg/logger"
)

type fakeCollector struct {
	results []navdata.Result
	err     error
	codes   []string
}

func (f *fakeCollector) CollectAll(_ context.Context, codes []string) ([]navdata.Result, error) {
	f.codes = codes
	return f.results, f.err
}

type fakeInvalidator struct {
	codes []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, code string) error {
	f.codes = append(f.codes, code)
	return nil
}

type fakeCleaner struct{ calls int }

func (f *fakeCleaner) CleanStale() int {
	f.calls++
	return 2
}

func TestNavCollectionJob(t *testing.T) {
	col := &fakeCollector{results: []navdata.Result{
		{Code: "000001", Saved: 3},
		{Code: "000002", Saved: 0},
		{Code: "000003", Error: errors.New("boom")},
	}}
	inv := &fakeInvalidator{}

	job := NewNavCollectionJob(col, inv, []string{"000001", "000002", "000003"}, "", logger.Nop())
	assert.Equal(t, "nav_collection", job.Name())
	assert.Equal(t, "0 30 21 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{"000001", "000002", "000003"}, col.codes)
	assert.Equal(t, []string{"000001"}, inv.codes, "only funds with new points")
}

func TestNavCollectionJob_AllFailed(t *testing.T) {
	col := &fakeCollector{err: errors.New("all funds failed")}
	job := NewNavCollectionJob(col, nil, nil, "0 0 22 * * *", logger.Nop())

	assert.Equal(t, "0 0 22 * * *", job.Schedule())
	assert.Error(t, job.Run(context.Background()))
}

func TestQuoteCacheCleanupJob(t *testing.T) {
	c := &fakeCleaner{}
	job := NewQuoteCacheCleanupJob(c, "", logger.Nop())

	assert.Equal(t, "quote_cache_cleanup", job.Name())
	assert.Equal(t, "0 * * * * *", job.Schedule())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, c.calls)
}
