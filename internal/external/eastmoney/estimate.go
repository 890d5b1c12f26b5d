package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/fundlens/pkg/httputil"
)

// Estimate is the intraday valuation from fundgz
type Estimate struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	NAV            float64 `json:"nav"`      // dwjz: 전일 단위净值
	NAVDate        string  `json:"nav_date"` // jzrq
	Estimate       float64 `json:"estimate"` // gsz
	EstimateChange float64 `json:"estimate_change"`
	EstimateTime   string  `json:"estimate_time"`
}

type fundgzPayload struct {
	FundCode string    `json:"fundcode"`
	Name     string    `json:"name"`
	JZRQ     string    `json:"jzrq"`
	DWJZ     flexFloat `json:"dwjz"`
	GSZ      flexFloat `json:"gsz"`
	GSZZL    flexFloat `json:"gszzl"`
	GZTime   string    `json:"gztime"`
}

// FetchEstimate fetches the real-time estimate (jsonpgz)
func (c *Client) FetchEstimate(ctx context.Context, code string) (*Estimate, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	base := fmt.Sprintf("%s/%s.js", strings.TrimRight(c.cfg.EstimateURL, "/"), code)
	params := url.Values{}
	params.Set("rt", c.cacheBuster())

	body, err := c.get(ctx, base, params)
	if err != nil {
		// fundgz 는 미지원 펀드(货币型 등)에 404 를 돌려준다
		var se *httputil.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("fund %s: %w", code, ErrNoData)
		}
		return nil, err
	}

	est, err := parseEstimate(body, code)
	if err != nil {
		return nil, fmt.Errorf("fund %s: %w", code, err)
	}
	return est, nil
}

func parseEstimate(body []byte, code string) (*Estimate, error) {
	payload, err := unwrapJSONP(body, "jsonpgz")
	if err != nil {
		return nil, err
	}

	var p fundgzPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}

	est := &Estimate{
		Code:           p.FundCode,
		Name:           p.Name,
		NAV:            float64(p.DWJZ),
		NAVDate:        p.JZRQ,
		Estimate:       float64(p.GSZ),
		EstimateChange: float64(p.GSZZL),
		EstimateTime:   p.GZTime,
	}
	if est.Code == "" {
		est.Code = code
	}
	return est, nil
}
