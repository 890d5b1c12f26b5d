package eastmoney

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/fundlens/pkg/config"
	"github.com/wonny/fundlens/pkg/httputil"
	"github.com/wonny/fundlens/pkg/logger"
)

var (
	// ErrNoData upstream answered but carried no record for the fund
	ErrNoData = errors.New("eastmoney: no data")
	// ErrInvalidCode fund codes are six digits
	ErrInvalidCode = errors.New("eastmoney: invalid fund code")
	// ErrTooManyCodes batch exceeds the configured limit
	ErrTooManyCodes = errors.New("eastmoney: too many codes")
)

var codeRe = regexp.MustCompile(`^\d{6}$`)

// ValidCode reports whether code looks like a fund code (6 digits)
func ValidCode(code string) bool {
	return codeRe.MatchString(code)
}

// Client handles communication with 天天基金 / 东方财富
// ⭐ SSOT: 펀드 외부 데이터 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.EastmoneyConfig
	now        func() time.Time
}

// NewHTTPClient builds the shared upstream HTTP client (timeout, retry, headers, local limiter)
func NewHTTPClient(cfg config.EastmoneyConfig, log *logger.Logger) *httputil.Client {
	return httputil.NewWithTimeout(log, cfg.Timeout).
		WithRetry(cfg.MaxRetries, 500*time.Millisecond).
		WithHeader("User-Agent", cfg.UserAgent).
		WithHeader("Referer", cfg.Referer).
		WithHeader("Accept", "application/json, text/javascript, */*; q=0.01").
		WithLocalLimiter(cfg.RequestsPerSecond, 1)
}

// NewClient creates a new eastmoney client
func NewClient(httpClient *httputil.Client, cfg config.EastmoneyConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 50
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 10
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("eastmoney"),
		cfg:        cfg,
		now:        time.Now,
	}
}

// BatchLimit is the maximum number of codes FetchQuotes accepts
func (c *Client) BatchLimit() int {
	return c.cfg.BatchLimit
}

func (c *Client) get(ctx context.Context, base string, params url.Values) ([]byte, error) {
	fullURL := base
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", base, params.Encode())
	}

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return body, nil
}

// cacheBuster mimics the browser "_" / "rt" millisecond parameter
func (c *Client) cacheBuster() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

// unwrapJSONP strips `callback(...)` (and a trailing semicolon) around a JSON payload
func unwrapJSONP(body []byte, callback string) ([]byte, error) {
	s := strings.TrimSpace(string(body))
	s = strings.TrimSuffix(s, ";")
	if !strings.HasPrefix(s, callback+"(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("unexpected JSONP envelope (want %s)", callback)
	}
	inner := strings.TrimSpace(s[len(callback)+1 : len(s)-1])
	if inner == "" {
		return nil, ErrNoData
	}
	return []byte(inner), nil
}

// flexFloat decodes numbers sent either as JSON numbers or strings ("1.2345", "", "--")
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == "null" || s == "--" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

func decode(data []byte, dest interface{}) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode response failed: %w", err)
	}
	return nil
}
