package redis

import (
	"context"
	"os"
	"path"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), EastmoneyRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, EastmoneyRateLimit.Limit, remaining)

	assert.NoError(t, limiter.Wait(context.Background(), FundgzRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "v", time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))

	n, err := cache.DeletePattern(ctx, "*")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_GetOrSet_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	type payload struct {
		Score float64 `json:"score"`
	}

	calls := 0
	var got payload
	err := cache.GetOrSet(context.Background(), AnalysisKey("score", 365, "000216"), &got, TTLAnalysis,
		func() (interface{}, error) {
			calls++
			return payload{Score: 72.5}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 72.5, got.Score)
}

func TestCache_NilSafe(t *testing.T) {
	var cache *Cache
	assert.False(t, cache.Enabled())
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"AnalysisKey", AnalysisKey("returns", 365, "000216"), "analysis:returns:365:,000216,"},
		{"AnalysisKey multi", AnalysisKey("correlation:date", 90, "000001", "000216"), "analysis:correlation:date:90:,000001,000216,"},
		{"AnalysisPattern", AnalysisPattern("000216"), "analysis:*,000216,*"},
		{"AnalysisPattern escaped", AnalysisPattern("a*b"), `analysis:*,a\*b,*`},
		{"QuoteKey", QuoteKey("110011"), "quote:110011"},
		{"FundInfoKey", FundInfoKey("110011"), "fund:info:110011"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

// path.Match follows the same glob rules as redis SCAN MATCH for keys without '/'
func TestAnalysisPattern_Matches(t *testing.T) {
	pattern := AnalysisPattern("000216")

	tests := []struct {
		key  string
		want bool
	}{
		{AnalysisKey("returns", 365, "000216"), true},
		{AnalysisKey("dip:weekly:1000", 0, "000216"), true},
		{AnalysisKey("correlation:date", 365, "000001", "000216"), true},
		{AnalysisKey("correlation:date", 365, "000216", "110011"), true},
		{AnalysisKey("correlation:positional", 90, "000001", "000216", "110011"), true},
		{AnalysisKey("returns", 365, "000001"), false},
		{AnalysisKey("correlation:date", 365, "000001", "1000216"), false},
		{AnalysisKey("returns", 216, "000001"), false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			ok, err := path.Match(pattern, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

// Integration: REDIS_ADDR=localhost:6379 go test ./pkg/redis
func TestCache_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	client := NewFromClient(rdb)
	defer client.Close()

	ctx := context.Background()
	cache := NewCache(client, "fundlens-test")

	require.NoError(t, cache.Set(ctx, AnalysisKey("score", 30, "T00001"), map[string]int{"v": 1}, time.Minute))
	require.NoError(t, cache.Set(ctx, AnalysisKey("correlation:date", 30, "T00000", "T00001"), map[string]int{"v": 2}, time.Minute))
	require.NoError(t, cache.Set(ctx, AnalysisKey("score", 30, "T00002"), map[string]int{"v": 3}, time.Minute))

	var got map[string]int
	found, err := cache.Get(ctx, AnalysisKey("score", 30, "T00001"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, got["v"])

	n, err := cache.DeletePattern(ctx, AnalysisPattern("T00001"))
	require.NoError(t, err)
	assert.Equal(t, 2, n, "single-fund and correlation keys")

	found, err = cache.Get(ctx, AnalysisKey("score", 30, "T00002"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	_, err = cache.DeletePattern(ctx, AnalysisPattern("T00002"))
	require.NoError(t, err)

	limiter := NewRateLimiter(client, "fundlens-test")
	cfg := RateLimitConfig{Key: "it-" + time.Now().Format("150405.000"), Limit: 2, Window: time.Second}
	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
}
