package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/contracts"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache() (*QuoteCache, *clock) {
	clk := &clock{t: time.Date(2024, 6, 28, 14, 0, 0, 0, time.UTC)}
	c := NewQuoteCache(30*time.Second, nil)
	c.now = clk.now
	return c, clk
}

func TestQuoteCache_TTL(t *testing.T) {
	c, clk := newTestCache()

	require.True(t, c.Set(&contracts.FundQuote{Code: "000001", NAV: 1.2}))

	q, ok := c.Get("000001")
	require.True(t, ok)
	assert.Equal(t, 1.2, q.NAV)

	clk.advance(31 * time.Second)
	_, ok = c.Get("000001")
	assert.False(t, ok, "expired after 30s")

	assert.Equal(t, Stats{TotalCount: 1, StaleCount: 1}, c.Stats())
	assert.Equal(t, 1, c.CleanStale())
	assert.Equal(t, 0, c.Len())
}

func TestQuoteCache_RejectsOlder(t *testing.T) {
	c, _ := newTestCache()
	now := time.Now()

	require.True(t, c.Set(&contracts.FundQuote{Code: "000001", NAV: 1.3, UpdatedAt: now}))
	assert.False(t, c.Set(&contracts.FundQuote{Code: "000001", NAV: 1.1, UpdatedAt: now.Add(-time.Minute)}))
	assert.False(t, c.Set(nil))

	q, _ := c.Get("000001")
	assert.Equal(t, 1.3, q.NAV)
}

func TestQuoteCache_GetMany(t *testing.T) {
	c, clk := newTestCache()

	c.Set(&contracts.FundQuote{Code: "A"})
	clk.advance(20 * time.Second)
	c.Set(&contracts.FundQuote{Code: "B"})
	clk.advance(15 * time.Second)

	hits, misses := c.GetMany([]string{"A", "B", "C"})
	assert.Len(t, hits, 1)
	assert.Contains(t, hits, "B")
	assert.Equal(t, []string{"A", "C"}, misses)

	c.Delete("B")
	c.Clear()
	assert.Equal(t, 0, c.Len())
}
