package eastmoney

import (
	"context"
	"fmt"
	"net/url"
)

// Detail is the fund profile from the mobile API
type Detail struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Type           string  `json:"type"` // FTYPE (예: 混合型-偏股)
	NAV            float64 `json:"nav"`
	NAVDate        string  `json:"nav_date"` // PDATE
	Estimate       float64 `json:"estimate"`
	EstimateChange float64 `json:"estimate_change"`
	EstimateTime   string  `json:"estimate_time"`
}

type detailResponse struct {
	Datas []struct {
		FCODE     string    `json:"FCODE"`
		SHORTNAME string    `json:"SHORTNAME"`
		FTYPE     string    `json:"FTYPE"`
		DWJZ      flexFloat `json:"DWJZ"`
		GSZ       flexFloat `json:"GSZ"`
		GSZZL     flexFloat `json:"GSZZL"`
		GZTIME    string    `json:"GZTIME"`
		PDATE     string    `json:"PDATE"`
	} `json:"Datas"`
	ErrCode int    `json:"ErrCode"`
	ErrMsg  string `json:"ErrMsg"`
}

// FetchDetail fetches name, type and latest values (FundMNFInfo)
func (c *Client) FetchDetail(ctx context.Context, code string) (*Detail, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	params := url.Values{}
	params.Set("plat", "Android")
	params.Set("appType", "ttjj")
	params.Set("product", "EFund")
	params.Set("Version", "6.9.2")
	params.Set("deviceid", "1")
	params.Set("Fcodes", code)
	params.Set("_", c.cacheBuster())

	body, err := c.get(ctx, c.cfg.DetailURL, params)
	if err != nil {
		return nil, err
	}

	detail, err := parseDetail(body, code)
	if err != nil {
		return nil, fmt.Errorf("fund %s: %w", code, err)
	}
	return detail, nil
}

func parseDetail(body []byte, code string) (*Detail, error) {
	var resp detailResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Datas) == 0 {
		return nil, ErrNoData
	}

	d := resp.Datas[0]
	detail := &Detail{
		Code:           d.FCODE,
		Name:           d.SHORTNAME,
		Type:           d.FTYPE,
		NAV:            float64(d.DWJZ),
		NAVDate:        d.PDATE,
		Estimate:       float64(d.GSZ),
		EstimateChange: float64(d.GSZZL),
		EstimateTime:   d.GZTIME,
	}
	if detail.Code == "" {
		detail.Code = code
	}
	return detail, nil
}
