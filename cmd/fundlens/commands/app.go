package commands

import (
	"fmt"
	"net/url"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/external/eastmoney"
	"github.com/wonny/fundlens/internal/labelconfig"
	"github.com/wonny/fundlens/internal/navdata"
	"github.com/wonny/fundlens/internal/realtime"
	"github.com/wonny/fundlens/internal/realtime/cache"
	"github.com/wonny/fundlens/pkg/config"
	"github.com/wonny/fundlens/pkg/database"
	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
	"github.com/wonny/fundlens/pkg/metrics"
	"github.com/wonny/fundlens/pkg/redis"
)

// app holds the wired dependencies shared by commands
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics

	db    *database.DB // offline이면 nil
	redis *redis.Client
	cache *redis.Cache

	labels    *labelconfig.Config
	eastmoney *eastmoney.Client

	navRepo  contracts.NavRepository
	holdings contracts.HoldingRepository
	analysis *analysis.Service
}

// appOptions selects which backends a command needs
type appOptions struct {
	// offline skips PostgreSQL and Redis; store backs the repositories instead
	offline bool
	store   *navdata.MemoryStore
}

func newApp(opts appOptions) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.offline {
		cfg, err = config.LoadOffline()
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyGlobalFlags(cfg)

	log := logger.New(cfg)
	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}

	a.labels, err = labelconfig.LoadOrDefault(cfg.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	if cfg.LabelsPath != "" {
		if snap, err := labelconfig.NewSnapshot(a.labels); err == nil {
			log.WithFields(map[string]interface{}{
				"config_id": snap.ConfigID,
				"hash":      snap.ConfigHash[:12],
				"locale":    snap.Locale,
			}).Info("Labels loaded")
		}
	}

	if opts.offline {
		a.redis = redis.NewFromClient(nil)
		store := opts.store
		if store == nil {
			store = navdata.NewMemoryStore()
		}
		a.navRepo, a.holdings = store, store
	} else {
		a.db, err = database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info("Connected to database")
		a.navRepo = navdata.NewNavRepository(a.db.Pool)
		a.holdings = navdata.NewHoldingRepository(a.db.Pool)

		a.redis, err = redis.New(cfg)
		if err != nil {
			// Redis는 선택: 캐시/공유 리밋 없이 계속
			log.WithError(err).Warn("Redis unavailable, continuing without shared cache")
			a.redis = redis.NewFromClient(nil)
		}
	}
	a.cache = redis.NewCache(a.redis, "fundlens")

	a.eastmoney = eastmoney.NewClient(a.upstreamHTTP(), cfg.Eastmoney, log)
	a.analysis = analysis.NewService(a.navRepo, a.holdings, a.labels.Engine(), a.cache, cfg.Cache.AnalysisTTL, a.metrics, log)

	return a, nil
}

// upstreamHTTP builds the eastmoney HTTP client with shared limits and metrics
func (a *app) upstreamHTTP() *httputil.Client {
	limiter := redis.NewRateLimiter(a.redis, "fundlens")
	client := eastmoney.NewHTTPClient(a.cfg.Eastmoney, a.log).
		WithRateLimiter(limiter, redis.EastmoneyRateLimit).
		WithObserver(a.metrics.ObserveUpstream)

	hostLimits := map[string]redis.RateLimitConfig{
		a.cfg.Eastmoney.EstimateURL: redis.FundgzRateLimit,
		a.cfg.Eastmoney.Fund123URL:  redis.Fund123RateLimit,
	}
	for raw, limit := range hostLimits {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			client.WithHostRateLimit(u.Host, limit)
		}
	}
	return client
}

func (a *app) collector() *navdata.Collector {
	return navdata.NewCollector(a.eastmoney, a.eastmoney, a.eastmoney, a.navRepo, navdata.CollectorConfig{
		PageSize: a.cfg.Scheduler.HistoryPageSize,
		MaxPages: a.cfg.Scheduler.HistoryMaxPages,
	}, a.log)
}

func (a *app) quoteService() *realtime.QuoteService {
	local := cache.NewQuoteCache(a.cfg.Cache.QuoteTTL, a.log)
	return realtime.NewQuoteService(a.eastmoney, local, a.cache, a.metrics, a.log)
}

// Close releases database and redis connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
