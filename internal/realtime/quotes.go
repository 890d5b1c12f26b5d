package realtime

import (
	"context"
	"fmt"

	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/realtime/cache"
	"github.com/wonny/fundlens/pkg/logger"
	"github.com/wonny/fundlens/pkg/metrics"
	"github.com/wonny/fundlens/pkg/redis"
)

// QuoteService serves merged quotes: memory cache → shared redis → upstream
// ⭐ SSOT: 실시간 시세 조회는 여기서만
type QuoteService struct {
	fetcher contracts.QuoteFetcher
	local   *cache.QuoteCache
	shared  *redis.Cache
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewQuoteService creates the quote service; shared and m may be nil
func NewQuoteService(fetcher contracts.QuoteFetcher, local *cache.QuoteCache, shared *redis.Cache, m *metrics.Metrics, log *logger.Logger) *QuoteService {
	if log == nil {
		log = logger.Nop()
	}
	return &QuoteService{
		fetcher: fetcher,
		local:   local,
		shared:  shared,
		metrics: m,
		logger:  log.WithComponent("quotes"),
	}
}

// Quote returns one fund's quote
func (s *QuoteService) Quote(ctx context.Context, code string) (*contracts.FundQuote, error) {
	if q, ok := s.local.Get(code); ok {
		return q, nil
	}
	if q := s.fromShared(ctx, code); q != nil {
		return q, nil
	}

	q, err := s.fetcher.FetchQuote(ctx, code)
	if err != nil {
		return nil, err
	}
	s.store(ctx, q)
	return q, nil
}

// Quotes returns quotes of codes; codes that fail upstream are absent
func (s *QuoteService) Quotes(ctx context.Context, codes []string) (map[string]*contracts.FundQuote, error) {
	hits, misses := s.local.GetMany(codes)

	var remaining []string
	for _, code := range misses {
		if q := s.fromShared(ctx, code); q != nil {
			hits[code] = q
			continue
		}
		remaining = append(remaining, code)
	}
	if len(remaining) == 0 {
		return hits, nil
	}

	fetched, err := s.fetcher.FetchQuotes(ctx, remaining)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	for code, q := range fetched {
		s.store(ctx, q)
		hits[code] = q
	}
	return hits, nil
}

// CleanStale drops expired quotes and refreshes the cache gauge
func (s *QuoteService) CleanStale() int {
	n := s.local.CleanStale()
	if s.metrics != nil {
		s.metrics.QuoteCacheSize.Set(float64(s.local.Len()))
	}
	return n
}

// Stats reports the local cache state
func (s *QuoteService) Stats() cache.Stats {
	return s.local.Stats()
}

func (s *QuoteService) fromShared(ctx context.Context, code string) *contracts.FundQuote {
	if !s.shared.Enabled() {
		return nil
	}
	var q contracts.FundQuote
	found, err := s.shared.Get(ctx, redis.QuoteKey(code), &q)
	if err != nil {
		s.logger.WithFund(code).WithError(err).Warn("Shared quote cache read failed")
		return nil
	}
	if !found {
		return nil
	}
	s.local.Set(&q)
	return &q
}

func (s *QuoteService) store(ctx context.Context, q *contracts.FundQuote) {
	s.local.Set(q)
	if err := s.shared.Set(ctx, redis.QuoteKey(q.Code), q, s.local.TTL()); err != nil {
		s.logger.WithFund(q.Code).WithError(err).Warn("Shared quote cache write failed")
	}
	if s.metrics != nil {
		s.metrics.QuoteCacheSize.Set(float64(s.local.Len()))
	}
}
