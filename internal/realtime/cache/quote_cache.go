package cache

import (
	"sync"
	"time"

	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/pkg/logger"
)

// QuoteCache is an in-memory cache for merged fund quotes
// ⭐ SSOT: 실시간 시세 캐싱은 이 구조체에서만
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[string]entry
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

type entry struct {
	quote    *contracts.FundQuote
	cachedAt time.Time
}

// Stats returns cache statistics
type Stats struct {
	TotalCount int `json:"total_count"`
	StaleCount int `json:"stale_count"`
}

// NewQuoteCache creates a new quote cache
func NewQuoteCache(ttl time.Duration, log *logger.Logger) *QuoteCache {
	if log == nil {
		log = logger.Nop()
	}
	return &QuoteCache{
		quotes: make(map[string]entry),
		ttl:    ttl,
		logger: log,
		now:    time.Now,
	}
}

// TTL returns the freshness window
func (c *QuoteCache) TTL() time.Duration {
	return c.ttl
}

// Set stores a quote. Older quotes (by UpdatedAt) never replace newer ones.
func (c *QuoteCache) Set(q *contracts.FundQuote) bool {
	if q == nil || q.Code == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.quotes[q.Code]; ok && q.UpdatedAt.Before(existing.quote.UpdatedAt) {
		c.logger.WithFields(map[string]interface{}{
			"fund_code": q.Code,
			"new_time":  q.UpdatedAt,
			"old_time":  existing.quote.UpdatedAt,
		}).Debug("Rejected older quote")
		return false
	}

	c.quotes[q.Code] = entry{quote: q, cachedAt: c.now()}
	return true
}

// Get returns a fresh quote; stale entries are a miss
func (c *QuoteCache) Get(code string) (*contracts.FundQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.quotes[code]
	if !ok || c.stale(e) {
		return nil, false
	}
	return e.quote, true
}

// GetMany returns fresh quotes and the codes that missed
func (c *QuoteCache) GetMany(codes []string) (map[string]*contracts.FundQuote, []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits := make(map[string]*contracts.FundQuote, len(codes))
	var misses []string
	for _, code := range codes {
		if e, ok := c.quotes[code]; ok && !c.stale(e) {
			hits[code] = e.quote
			continue
		}
		misses = append(misses, code)
	}
	return hits, misses
}

// Delete removes a quote from cache
func (c *QuoteCache) Delete(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.quotes, code)
}

// Clear clears all quotes from cache
func (c *QuoteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.quotes = make(map[string]entry)
	c.logger.Info("Cleared quote cache")
}

// Len returns the number of quotes in cache
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.quotes)
}

// CleanStale removes stale quotes from cache
func (c *QuoteCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for code, e := range c.quotes {
		if c.stale(e) {
			delete(c.quotes, code)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Debug("Cleaned stale quotes from cache")
	}
	return count
}

// Stats returns cache statistics
func (c *QuoteCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{TotalCount: len(c.quotes)}
	for _, e := range c.quotes {
		if c.stale(e) {
			stats.StaleCount++
		}
	}
	return stats
}

func (c *QuoteCache) stale(e entry) bool {
	return c.now().Sub(e.cachedAt) > c.ttl
}
