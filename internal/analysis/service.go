package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/navdata"
	"github.com/wonny/fundlens/internal/statistics"
	"github.com/wonny/fundlens/pkg/logger"
	"github.com/wonny/fundlens/pkg/metrics"
	"github.com/wonny/fundlens/pkg/redis"
)

var (
	// ErrInsufficientData series too short for the requested statistic
	ErrInsufficientData = errors.New("insufficient data")
	// ErrFundNotFound fund has no stored history
	ErrFundNotFound = errors.New("fund not found")
	// ErrInvalidArgument bad request parameter (amount, frequency, codes)
	ErrInvalidArgument = errors.New("invalid argument")
)

// DefaultDays is the analysis window when none is given (calendar days)
const DefaultDays = 365

// Analysis kinds (cache keys and metrics labels)
const (
	KindReturns     = "returns"
	KindScore       = "score"
	KindDIP         = "dip"
	KindBestDIPDay  = "best_dip_day"
	KindTrend       = "trend"
	KindCorrelation = "correlation"
	KindAllocation  = "allocation"
	KindReport      = "report"
)

// Service runs the statistics engine over stored NAV history
// ⭐ SSOT: 저장 데이터 기반 분석 진입점
type Service struct {
	navRepo  contracts.NavRepository
	holdings contracts.HoldingRepository
	engine   *statistics.Engine
	cache    *redis.Cache
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates the analysis service. cache and m may be nil.
func NewService(
	navRepo contracts.NavRepository,
	holdings contracts.HoldingRepository,
	engine *statistics.Engine,
	cache *redis.Cache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	if engine == nil {
		engine = statistics.NewEngine(statistics.Labels{}, statistics.Taxonomy{})
	}
	if cacheTTL <= 0 {
		cacheTTL = redis.TTLAnalysis
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		navRepo:  navRepo,
		holdings: holdings,
		engine:   engine,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  m,
		logger:   log.WithComponent("analysis"),
		now:      time.Now,
	}
}

// Engine exposes the configured statistics engine
func (s *Service) Engine() *statistics.Engine {
	return s.engine
}

// Series loads the last days of NAV history (days <= 0 means everything)
func (s *Service) Series(ctx context.Context, code string, days int) (*contracts.FundSeries, error) {
	var from time.Time
	if days > 0 {
		// 날짜 단위 창: 시각은 버림
		t := s.now().UTC().AddDate(0, 0, -days)
		from = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	series, err := s.navRepo.GetSeries(ctx, code, from, time.Time{})
	if errors.Is(err, navdata.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrFundNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("load series %s: %w", code, err)
	}
	return series, nil
}

// Returns computes return/risk metrics
func (s *Service) Returns(ctx context.Context, code string, days int) (*statistics.ReturnAnalysis, error) {
	return cached(ctx, s, KindReturns, redis.AnalysisKey(KindReturns, days, code), func() (*statistics.ReturnAnalysis, error) {
		series, err := s.Series(ctx, code, days)
		if err != nil {
			return nil, err
		}
		ra := s.engine.ReturnAnalysis(series.Points)
		if ra == nil {
			return nil, insufficient(code, len(series.Points), statistics.MinReturnPoints)
		}

		s.logger.WithFund(code).WithFields(map[string]interface{}{
			"total_return": ra.TotalReturn,
			"volatility":   ra.Volatility,
			"max_drawdown": ra.MaxDrawdown,
			"sharpe":       ra.SharpeRatio,
		}).Debug("Return analysis computed")
		return ra, nil
	})
}

// Score computes the composite fund score
func (s *Service) Score(ctx context.Context, code string, days int) (*statistics.FundScore, error) {
	return cached(ctx, s, KindScore, redis.AnalysisKey(KindScore, days, code), func() (*statistics.FundScore, error) {
		ra, err := s.Returns(ctx, code, days)
		if err != nil {
			return nil, err
		}
		score := s.engine.FundScore(*ra)
		return &score, nil
	})
}

// DIP simulates a dollar-cost averaging plan
func (s *Service) DIP(ctx context.Context, code string, days int, amount float64, freq statistics.Frequency) (*statistics.DIPSimulation, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be > 0", ErrInvalidArgument)
	}
	if !freq.Valid() {
		return nil, fmt.Errorf("%w: frequency %q", ErrInvalidArgument, freq)
	}

	kind := fmt.Sprintf("%s:%s:%g", KindDIP, freq, amount)
	return cached(ctx, s, KindDIP, redis.AnalysisKey(kind, days, code), func() (*statistics.DIPSimulation, error) {
		series, err := s.Series(ctx, code, days)
		if err != nil {
			return nil, err
		}
		sim := s.engine.DIP(series.Points, amount, freq)
		if sim == nil {
			return nil, insufficient(code, len(series.Points), statistics.MinDIPPoints)
		}

		s.logger.WithFund(code).WithFields(map[string]interface{}{
			"periods":     sim.Periods,
			"return_rate": sim.ReturnRate,
		}).Debug("DIP simulated")
		return sim, nil
	})
}

// BestDIPDay ranks contribution days of the month
func (s *Service) BestDIPDay(ctx context.Context, code string, days int) ([]statistics.BestDIPDay, error) {
	return cached(ctx, s, KindBestDIPDay, redis.AnalysisKey(KindBestDIPDay, days, code), func() ([]statistics.BestDIPDay, error) {
		series, err := s.Series(ctx, code, days)
		if err != nil {
			return nil, err
		}
		ranked := s.engine.BestDIPDay(series.Points)
		if len(ranked) == 0 {
			return nil, insufficient(code, len(series.Points), statistics.MinBestDayPoints)
		}
		return ranked, nil
	})
}

// Trend computes the technical trend view
func (s *Service) Trend(ctx context.Context, code string, days int) (*statistics.TrendPrediction, error) {
	return cached(ctx, s, KindTrend, redis.AnalysisKey(KindTrend, days, code), func() (*statistics.TrendPrediction, error) {
		series, err := s.Series(ctx, code, days)
		if err != nil {
			return nil, err
		}
		tp := s.engine.Trend(series.Points)
		if tp == nil {
			return nil, insufficient(code, len(series.Points), statistics.MinTrendPoints)
		}

		s.logger.WithFund(code).WithFields(map[string]interface{}{
			"trend":      tp.Trend,
			"confidence": tp.Confidence,
		}).Debug("Trend computed")
		return tp, nil
	})
}

// Correlation compares two or more funds
func (s *Service) Correlation(ctx context.Context, codes []string, days int, alignment statistics.Alignment) (*statistics.CorrelationAnalysis, error) {
	unique := uniqueSorted(codes)
	if len(unique) < 2 {
		return nil, fmt.Errorf("%w: correlation needs at least 2 funds", ErrInvalidArgument)
	}
	if alignment == "" {
		alignment = statistics.AlignByDate
	}

	kind := fmt.Sprintf("%s:%s", KindCorrelation, alignment)
	key := redis.AnalysisKey(kind, days, unique...)
	return cached(ctx, s, KindCorrelation, key, func() (*statistics.CorrelationAnalysis, error) {
		funds := make([]contracts.FundSeries, 0, len(unique))
		for _, code := range unique {
			series, err := s.Series(ctx, code, days)
			if err != nil {
				return nil, err
			}
			funds = append(funds, *series)
		}

		ca := s.engine.Correlation(funds, statistics.CorrelationOptions{Alignment: alignment})
		if ca == nil {
			return nil, fmt.Errorf("%w: correlation", ErrInsufficientData)
		}
		return ca, nil
	})
}

// Allocation analyses the stored holdings (never cached; holdings change in place)
func (s *Service) Allocation(ctx context.Context) (*statistics.AllocationAdvice, error) {
	holdings, err := s.holdings.List(ctx)
	s.metrics.ObserveAnalysis(KindAllocation, err)
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}

	advice := s.engine.Allocation(holdings)
	return &advice, nil
}

// Report bundles returns, score and trend of one fund
type Report struct {
	Code    string                      `json:"code"`
	Name    string                      `json:"name"`
	Points  int                         `json:"points"`
	Returns *statistics.ReturnAnalysis  `json:"returns"`
	Score   *statistics.FundScore       `json:"score"`
	Trend   *statistics.TrendPrediction `json:"trend,omitempty"` // 30 포인트 미만이면 생략
}

// Report computes the one-shot fund report
func (s *Service) Report(ctx context.Context, code string, days int) (*Report, error) {
	return cached(ctx, s, KindReport, redis.AnalysisKey(KindReport, days, code), func() (*Report, error) {
		series, err := s.Series(ctx, code, days)
		if err != nil {
			return nil, err
		}
		return s.ReportFor(*series)
	})
}

// ReportFor computes a report from an in-memory series (ad-hoc / offline input)
func (s *Service) ReportFor(series contracts.FundSeries) (*Report, error) {
	ra := s.engine.ReturnAnalysis(series.Points)
	if ra == nil {
		return nil, insufficient(series.Code, len(series.Points), statistics.MinReturnPoints)
	}
	score := s.engine.FundScore(*ra)

	return &Report{
		Code:    series.Code,
		Name:    series.Name,
		Points:  len(series.Points),
		Returns: ra,
		Score:   &score,
		Trend:   s.engine.Trend(series.Points),
	}, nil
}

// Invalidate drops cached results of a fund (after a NAV refresh)
func (s *Service) Invalidate(ctx context.Context, code string) error {
	n, err := s.cache.DeletePattern(ctx, redis.AnalysisPattern(code))
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.WithFund(code).WithField("keys", n).Debug("Analysis cache invalidated")
	}
	return nil
}

// cached wraps compute with the redis cache and the analysis metric
func cached[T any](ctx context.Context, s *Service, kind, key string, compute func() (T, error)) (T, error) {
	var out T
	err := s.cache.GetOrSet(ctx, key, &out, s.cacheTTL, func() (interface{}, error) {
		return compute()
	})
	s.metrics.ObserveAnalysis(kind, err)
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func insufficient(code string, have, need int) error {
	return fmt.Errorf("%w: %s has %d points, need %d", ErrInsufficientData, code, have, need)
}

func uniqueSorted(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
