package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fundlens/internal/contracts"
)

// lsjzResponse is the lsjz JSONP payload
type lsjzResponse struct {
	Data struct {
		LSJZList []lsjzRow `json:"LSJZList"`
	} `json:"Data"`
	ErrCode    int    `json:"ErrCode"`
	ErrMsg     string `json:"ErrMsg"`
	TotalCount int    `json:"TotalCount"`
}

type lsjzRow struct {
	FSRQ  string `json:"FSRQ"`  // 净值日期
	DWJZ  string `json:"DWJZ"`  // 单位净值
	LJJZ  string `json:"LJJZ"`  // 累计净值
	JZZZL string `json:"JZZZL"` // 日增长率 (%)
}

// FetchHistory fetches one page of published NAVs (newest first upstream).
// Returns points sorted ascending and the upstream total record count.
// ⭐ SSOT: lsjz 호출은 이 함수에서만
func (c *Client) FetchHistory(ctx context.Context, code string, pageIndex, pageSize int) ([]contracts.NetValuePoint, int, error) {
	if !ValidCode(code) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	params := url.Values{}
	params.Set("callback", "jQuery")
	params.Set("fundCode", code)
	params.Set("pageIndex", strconv.Itoa(pageIndex))
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("_", c.cacheBuster())

	body, err := c.get(ctx, c.cfg.HistoryURL, params)
	if err != nil {
		return nil, 0, err
	}

	points, total, err := parseHistoryJSONP(body)
	if err != nil {
		return nil, 0, fmt.Errorf("fund %s: %w", code, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"fund_code": code,
		"page":      pageIndex,
		"count":     len(points),
		"total":     total,
	}).Debug("Fetched NAV history page")
	return points, total, nil
}

func parseHistoryJSONP(body []byte) ([]contracts.NetValuePoint, int, error) {
	payload, err := unwrapJSONP(body, "jQuery")
	if err != nil {
		return nil, 0, err
	}

	var resp lsjzResponse
	if err := decode(payload, &resp); err != nil {
		return nil, 0, err
	}
	if resp.ErrCode != 0 {
		return nil, 0, fmt.Errorf("upstream error %d: %s", resp.ErrCode, resp.ErrMsg)
	}

	points := make([]contracts.NetValuePoint, 0, len(resp.Data.LSJZList))
	for _, row := range resp.Data.LSJZList {
		p, ok := toPoint(row.FSRQ, row.DWJZ, row.JZZZL)
		if ok {
			points = append(points, p)
		}
	}
	if len(points) == 0 && resp.TotalCount == 0 {
		return nil, 0, ErrNoData
	}
	return contracts.SortedPoints(points), resp.TotalCount, nil
}

// toPoint converts raw strings; rows without a positive NAV are skipped (停牌/未公布)
func toPoint(date, nav, change string) (contracts.NetValuePoint, bool) {
	date = strings.TrimSpace(date)
	p := contracts.NetValuePoint{Date: date}
	if _, ok := p.Time(); !ok {
		return p, false
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(nav), 64)
	if err != nil || v <= 0 {
		return p, false
	}
	p.Value = v

	change = strings.TrimSuffix(strings.TrimSpace(change), "%")
	if ch, err := strconv.ParseFloat(change, 64); err == nil {
		p.Change = &ch
	}
	return p, true
}

// apidataRe captures the HTML table and paging of F10DataApi.aspx
//
//	var apidata={ content:"<table>...</table>",records:1234,pages:62,curpage:1};
var apidataRe = regexp.MustCompile(`(?s)content:"(.*)",\s*records:(\d+),\s*pages:(\d+)`)

// FetchHistoryHTML fetches one page of the legacy HTML NAV table.
// Returns points sorted ascending and the upstream page count.
func (c *Client) FetchHistoryHTML(ctx context.Context, code string, page, per int) ([]contracts.NetValuePoint, int, error) {
	if !ValidCode(code) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	params := url.Values{}
	params.Set("type", "lsjz")
	params.Set("code", code)
	params.Set("page", strconv.Itoa(page))
	params.Set("per", strconv.Itoa(per))

	body, err := c.get(ctx, c.cfg.HistoryHTMLURL, params)
	if err != nil {
		return nil, 0, err
	}

	points, pages, err := parseHistoryHTML(string(body))
	if err != nil {
		return nil, 0, fmt.Errorf("fund %s: %w", code, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"fund_code": code,
		"page":      page,
		"count":     len(points),
		"pages":     pages,
	}).Debug("Fetched NAV history page (html)")
	return points, pages, nil
}

func parseHistoryHTML(body string) ([]contracts.NetValuePoint, int, error) {
	m := apidataRe.FindStringSubmatch(body)
	if m == nil {
		return nil, 0, fmt.Errorf("unexpected apidata payload")
	}
	pages, _ := strconv.Atoi(m[3])

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(m[1]))
	if err != nil {
		return nil, 0, fmt.Errorf("parse html failed: %w", err)
	}

	// 컬럼: 净值日期 | 单位净值 | 累计净值 | 日增长率 | 申购状态 | 赎回状态 | 分红送配
	var points []contracts.NetValuePoint
	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		p, ok := toPoint(cells.Eq(0).Text(), cells.Eq(1).Text(), cells.Eq(3).Text())
		if ok {
			points = append(points, p)
		}
	})

	if len(points) == 0 && pages == 0 {
		return nil, 0, ErrNoData
	}
	return contracts.SortedPoints(points), pages, nil
}
