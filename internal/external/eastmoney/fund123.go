package eastmoney

import (
	"context"
	"fmt"
	"net/url"
)

// AntQuote is the valuation published by 蚂蚁基金 (fund123.cn)
type AntQuote struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	NAV            float64 `json:"nav"`
	Estimate       float64 `json:"estimate"`
	EstimateChange float64 `json:"estimate_change"`
	EstimateTime   string  `json:"estimate_time"`
}

type fund123Response struct {
	Success bool `json:"success"`
	Result  *struct {
		FundName      string    `json:"fundName"`
		NetValue      flexFloat `json:"netValue"`
		EstimateValue flexFloat `json:"estimateValue"`
		EstimateRate  flexFloat `json:"estimateRate"`
		EstimateTime  string    `json:"estimateTime"`
	} `json:"result"`
}

// Fund123Enabled reports whether the 蚂蚁基金 source is configured
func (c *Client) Fund123Enabled() bool {
	return c.cfg.Fund123URL != ""
}

// FetchFund123 fetches the 蚂蚁基金 valuation (queryFundInfo)
func (c *Client) FetchFund123(ctx context.Context, code string) (*AntQuote, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	if !c.Fund123Enabled() {
		return nil, fmt.Errorf("fund %s: fund123 source disabled: %w", code, ErrNoData)
	}

	params := url.Values{}
	params.Set("fundCode", code)
	params.Set("_", c.cacheBuster())

	body, err := c.get(ctx, c.cfg.Fund123URL, params)
	if err != nil {
		return nil, err
	}

	q, err := parseFund123(body, code)
	if err != nil {
		return nil, fmt.Errorf("fund %s: %w", code, err)
	}
	return q, nil
}

func parseFund123(body []byte, code string) (*AntQuote, error) {
	var resp fund123Response
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Result == nil {
		return nil, ErrNoData
	}

	r := resp.Result
	return &AntQuote{
		Code:           code,
		Name:           r.FundName,
		NAV:            float64(r.NetValue),
		Estimate:       float64(r.EstimateValue),
		EstimateChange: float64(r.EstimateRate),
		EstimateTime:   r.EstimateTime,
	}, nil
}
