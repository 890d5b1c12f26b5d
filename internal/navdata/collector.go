package navdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/external/eastmoney"
	"github.com/wonny/fundlens/pkg/logger"
)

// HTMLHistoryFetcher is the legacy HTML NAV table (second int = page count)
type HTMLHistoryFetcher interface {
	FetchHistoryHTML(ctx context.Context, code string, page, per int) ([]contracts.NetValuePoint, int, error)
}

// DetailFetcher resolves fund name and type
type DetailFetcher interface {
	FetchDetail(ctx context.Context, code string) (*eastmoney.Detail, error)
}

// Collector refreshes stored NAV history from upstream
// ⭐ SSOT: NAV 수집 오케스트레이션은 여기서만
type Collector struct {
	history  contracts.HistoryFetcher
	fallback HTMLHistoryFetcher
	details  DetailFetcher
	repo     contracts.NavRepository
	logger   *logger.Logger
	cfg      CollectorConfig
}

// CollectorConfig holds collector configuration
type CollectorConfig struct {
	PageSize int // lsjz pageSize
	MaxPages int // 한 번 수집 시 최대 페이지
	Workers  int // Number of concurrent workers
}

// Result represents the result of one fund refresh
type Result struct {
	Code     string
	Fetched  int
	Saved    int
	Latest   string
	Fallback bool
	Error    error
}

// NewCollector creates a new Collector instance; fallback and details may be nil
func NewCollector(
	history contracts.HistoryFetcher,
	fallback HTMLHistoryFetcher,
	details DetailFetcher,
	repo contracts.NavRepository,
	cfg CollectorConfig,
	log *logger.Logger,
) *Collector {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Collector{
		history:  history,
		fallback: fallback,
		details:  details,
		repo:     repo,
		cfg:      cfg,
		logger:   log.WithComponent("collector"),
	}
}

// pageFunc fetches one page; done reports that no older page exists
type pageFunc func(ctx context.Context, page int) (points []contracts.NetValuePoint, done bool, err error)

// CollectFund fetches NAVs newer than the latest stored date and saves them.
// The JSON source is tried first; the HTML table is used when it fails.
func (c *Collector) CollectFund(ctx context.Context, code string) Result {
	res := Result{Code: code}

	latest, err := c.repo.GetLatestDate(ctx, code)
	if err != nil {
		res.Error = err
		return res
	}

	c.refreshProfile(ctx, code)

	points, err := c.collectPages(ctx, latest, c.jsonPages(code))
	if err != nil && c.fallback != nil && ctx.Err() == nil {
		c.logger.WithFund(code).WithError(err).Warn("JSON history failed, falling back to HTML")
		res.Fallback = true
		points, err = c.collectPages(ctx, latest, c.htmlPages(code))
	}
	if err != nil {
		res.Error = fmt.Errorf("collect %s: %w", code, err)
		return res
	}

	res.Fetched = len(points)
	if len(points) > 0 {
		saved, err := c.repo.SaveBatch(ctx, code, contracts.SortedPoints(points))
		if err != nil {
			res.Error = err
			return res
		}
		res.Saved = saved
		res.Latest = contracts.SortedPoints(points)[len(points)-1].Date
	}

	c.logger.WithFund(code).WithFields(map[string]interface{}{
		"fetched":  res.Fetched,
		"saved":    res.Saved,
		"fallback": res.Fallback,
	}).Debug("NAV refreshed")
	return res
}

// collectPages walks pages newest → oldest until it reaches a stored date
func (c *Collector) collectPages(ctx context.Context, latest time.Time, fetch pageFunc) ([]contracts.NetValuePoint, error) {
	var out []contracts.NetValuePoint
	for page := 1; page <= c.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		points, done, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}

		reachedStored := false
		for _, p := range points {
			t, ok := p.Time()
			if !ok {
				continue
			}
			if !latest.IsZero() && !t.After(latest) {
				reachedStored = true
				continue
			}
			out = append(out, p)
		}

		if reachedStored || done || len(points) == 0 {
			break
		}
	}
	return out, nil
}

func (c *Collector) jsonPages(code string) pageFunc {
	return func(ctx context.Context, page int) ([]contracts.NetValuePoint, bool, error) {
		points, total, err := c.history.FetchHistory(ctx, code, page, c.cfg.PageSize)
		if err != nil {
			return nil, false, err
		}
		return points, page*c.cfg.PageSize >= total, nil
	}
}

func (c *Collector) htmlPages(code string) pageFunc {
	return func(ctx context.Context, page int) ([]contracts.NetValuePoint, bool, error) {
		points, pages, err := c.fallback.FetchHistoryHTML(ctx, code, page, c.cfg.PageSize)
		if err != nil {
			return nil, false, err
		}
		return points, page >= pages, nil
	}
}

// refreshProfile stores name/type; failures only log
func (c *Collector) refreshProfile(ctx context.Context, code string) {
	if c.details == nil {
		return
	}
	d, err := c.details.FetchDetail(ctx, code)
	if err != nil {
		c.logger.WithFund(code).WithError(err).Debug("Fund detail unavailable")
		return
	}
	if err := c.repo.SaveFund(ctx, code, d.Name, d.Type); err != nil {
		c.logger.WithFund(code).WithError(err).Warn("Failed to save fund profile")
	}
}

// CollectAll refreshes codes with a worker pool.
// An empty codes slice means every fund already stored.
func (c *Collector) CollectAll(ctx context.Context, codes []string) ([]Result, error) {
	if len(codes) == 0 {
		stored, err := c.repo.ListCodes(ctx)
		if err != nil {
			return nil, fmt.Errorf("list codes: %w", err)
		}
		codes = stored
	}

	c.logger.WithFields(map[string]interface{}{
		"fund_count": len(codes),
		"workers":    c.cfg.Workers,
	}).Info("Starting NAV collection")

	codeCh := make(chan string, len(codes))
	resultCh := make(chan Result, len(codes))

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for code := range codeCh {
				if err := ctx.Err(); err != nil {
					resultCh <- Result{Code: code, Error: err}
					continue
				}
				resultCh <- c.CollectFund(ctx, code)
			}
		}()
	}

	for _, code := range codes {
		codeCh <- code
	}
	close(codeCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, 0, len(codes))
	failCount := 0
	saved := 0
	for r := range resultCh {
		results = append(results, r)
		if r.Error != nil {
			failCount++
			c.logger.WithFund(r.Code).WithError(r.Error).Error("NAV collection failed")
			continue
		}
		saved += r.Saved
	}

	c.logger.WithFields(map[string]interface{}{
		"success": len(results) - failCount,
		"failed":  failCount,
		"saved":   saved,
	}).Info("NAV collection completed")

	if failCount > 0 && failCount == len(results) {
		return results, fmt.Errorf("all %d funds failed", failCount)
	}
	return results, nil
}
