package eastmoney

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/fundlens/internal/contracts"
)

// latestNAV is the newest published NAV (lsjz page 1, size 1)
type latestNAV struct {
	Date   string
	Value  float64
	Change float64
}

func (c *Client) fetchLatestNAV(ctx context.Context, code string) (*latestNAV, error) {
	points, _, err := c.FetchHistory(ctx, code, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}
	p := points[len(points)-1]
	nav := &latestNAV{Date: p.Date, Value: p.Value}
	if p.Change != nil {
		nav.Change = *p.Change
	}
	return nav, nil
}

// Source names used in comparisons and logs
const (
	SourceFundgz  = "fundgz"
	SourceLSJZ    = "lsjz"
	SourceDetail  = "detail"
	SourceFund123 = "fund123"
)

// sourceSet holds one round of per-source answers; nil means that source failed
type sourceSet struct {
	est    *Estimate
	nav    *latestNAV
	detail *Detail
	ant    *AntQuote
	errs   map[string]error
}

// fetchSources queries every configured source in parallel.
// A failing source is recorded in errs and never fails the round.
func (c *Client) fetchSources(ctx context.Context, code string) *sourceSet {
	set := &sourceSet{errs: make(map[string]error, 4)}
	var mu sync.Mutex
	fail := func(source string, err error) {
		c.logger.WithFund(code).WithField("source", source).WithError(err).Debug("Quote source failed")
		mu.Lock()
		set.errs[source] = err
		mu.Unlock()
	}

	// 소스별 병렬 조회 (하나 실패해도 나머지는 사용)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		if set.est, err = c.FetchEstimate(ctx, code); err != nil {
			fail(SourceFundgz, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if set.nav, err = c.fetchLatestNAV(ctx, code); err != nil {
			fail(SourceLSJZ, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if set.detail, err = c.FetchDetail(ctx, code); err != nil {
			fail(SourceDetail, err)
		}
		return nil
	})
	if c.Fund123Enabled() {
		g.Go(func() error {
			var err error
			if set.ant, err = c.FetchFund123(ctx, code); err != nil {
				fail(SourceFund123, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return set
}

// FetchQuote merges fundgz, lsjz, detail and fund123 answers for one fund.
// A failing source only clears its Sources flag; ErrNoData when none answered.
// ⭐ SSOT: 실시간 시세 병합 규칙 (공시 净值 > 추정가)
func (c *Client) FetchQuote(ctx context.Context, code string) (*contracts.FundQuote, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	set := c.fetchSources(ctx, code)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := mergeQuote(code, set)
	if !q.HasData() {
		return nil, fmt.Errorf("fund %s: %w", code, ErrNoData)
	}
	q.UpdatedAt = c.now()
	return q, nil
}

// mergeQuote applies source precedence: detail < fundgz for the estimate fields,
// fund123 only when neither gave an estimate, published NAV for the nav fields,
// then Resolve picks the display value.
func mergeQuote(code string, set *sourceSet) *contracts.FundQuote {
	est, nav, detail, ant := set.est, set.nav, set.detail, set.ant
	q := &contracts.FundQuote{
		Code: code,
		Sources: contracts.QuoteSources{
			Estimate: est != nil,
			NAV:      nav != nil,
			Detail:   detail != nil,
			Ant:      ant != nil,
		},
	}

	if detail != nil {
		q.Name = detail.Name
		q.Type = detail.Type
		q.Estimate = detail.Estimate
		q.EstimateTime = detail.EstimateTime
		q.EstimateChange = detail.EstimateChange
	}

	if est != nil {
		if q.Name == "" {
			q.Name = est.Name
		}
		q.Estimate = est.Estimate
		q.EstimateTime = est.EstimateTime
		q.EstimateChange = est.EstimateChange
	}

	if ant != nil {
		if q.Name == "" {
			q.Name = ant.Name
		}
		if q.Estimate <= 0 {
			q.Estimate = ant.Estimate
			q.EstimateTime = ant.EstimateTime
			q.EstimateChange = ant.EstimateChange
		}
	}

	if nav != nil {
		q.NAV = nav.Value
		q.NAVDate = nav.Date
		q.NAVChange = nav.Change
	}

	q.Resolve()
	return q
}

// SourceReading is one source's answer in a comparison
type SourceReading struct {
	Source   string  `json:"source"`
	OK       bool    `json:"ok"`
	Name     string  `json:"name,omitempty"`
	NAV      float64 `json:"nav"`
	Estimate float64 `json:"estimate"`
	Change   float64 `json:"change"` // 추정 등락률, lsjz 는 공시 등락률 (%)
	Time     string  `json:"time"`   // 추정 시각, lsjz 는 净值 날짜
	Error    string  `json:"error,omitempty"`
}

// SourceComparison lines up every source for one fund
type SourceComparison struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Sources []SourceReading `json:"sources"`
	// EstimateSpread is max - min over sources that reported an estimate
	EstimateSpread float64 `json:"estimate_spread"`
}

// CompareSources queries every source and reports them side by side.
// ErrNoData when no source answered.
func (c *Client) CompareSources(ctx context.Context, code string) (*SourceComparison, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	set := c.fetchSources(ctx, code)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readings := []SourceReading{{Source: SourceFundgz}, {Source: SourceLSJZ}, {Source: SourceDetail}}
	if c.Fund123Enabled() {
		readings = append(readings, SourceReading{Source: SourceFund123})
	}

	cmp := &SourceComparison{Code: code}
	var lo, hi float64
	for i := range readings {
		r := &readings[i]
		switch r.Source {
		case SourceFundgz:
			if e := set.est; e != nil {
				r.OK, r.Name, r.NAV, r.Estimate, r.Change, r.Time = true, e.Name, e.NAV, e.Estimate, e.EstimateChange, e.EstimateTime
			}
		case SourceLSJZ:
			if n := set.nav; n != nil {
				r.OK, r.NAV, r.Change, r.Time = true, n.Value, n.Change, n.Date
			}
		case SourceDetail:
			if d := set.detail; d != nil {
				r.OK, r.Name, r.NAV, r.Estimate, r.Change, r.Time = true, d.Name, d.NAV, d.Estimate, d.EstimateChange, d.EstimateTime
			}
		case SourceFund123:
			if a := set.ant; a != nil {
				r.OK, r.Name, r.NAV, r.Estimate, r.Change, r.Time = true, a.Name, a.NAV, a.Estimate, a.EstimateChange, a.EstimateTime
			}
		}
		if err := set.errs[r.Source]; err != nil {
			r.Error = err.Error()
		}

		if cmp.Name == "" && r.Name != "" {
			cmp.Name = r.Name
		}
		if r.Estimate > 0 {
			if lo == 0 || r.Estimate < lo {
				lo = r.Estimate
			}
			if r.Estimate > hi {
				hi = r.Estimate
			}
		}
	}
	cmp.Sources = readings
	cmp.EstimateSpread = hi - lo

	if set.est == nil && set.nav == nil && set.detail == nil && set.ant == nil {
		return nil, fmt.Errorf("fund %s: %w", code, ErrNoData)
	}
	return cmp, nil
}

// FetchQuotes fetches up to BatchLimit quotes with bounded concurrency.
// Codes that fail are omitted from the result and logged.
func (c *Client) FetchQuotes(ctx context.Context, codes []string) (map[string]*contracts.FundQuote, error) {
	unique := dedupe(codes)
	if len(unique) > c.cfg.BatchLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyCodes, len(unique), c.cfg.BatchLimit)
	}

	var (
		mu     sync.Mutex
		quotes = make(map[string]*contracts.FundQuote, len(unique))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.BatchConcurrency)
	for _, code := range unique {
		code := code
		g.Go(func() error {
			q, err := c.FetchQuote(gctx, code)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.WithFund(code).WithError(err).Warn("Quote fetch failed")
				return nil
			}
			mu.Lock()
			quotes[code] = q
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return quotes, err
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(unique),
		"fetched":   len(quotes),
	}).Debug("Fetched quotes")
	return quotes, nil
}

func dedupe(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
