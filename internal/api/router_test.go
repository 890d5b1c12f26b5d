package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/api/handlers"
	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/external/eastmoney"
	"github.com/wonny/fundlens/internal/navdata"
	"github.com/wonny/fundlens/internal/realtime/cache"
	"github.com/wonny/fundlens/pkg/logger"
	"github.com/wonny/fundlens/pkg/metrics"
)

type fakeQuotes struct{}

func (fakeQuotes) Quote(_ context.Context, code string) (*contracts.FundQuote, error) {
	if code == "999999" {
		return nil, fmt.Errorf("%w: %s", eastmoney.ErrNoData, code)
	}
	return &contracts.FundQuote{Code: code, Name: "테스트", NAV: 1.5, CurrentValue: 1.5}, nil
}

func (f fakeQuotes) Quotes(ctx context.Context, codes []string) (map[string]*contracts.FundQuote, error) {
	out := make(map[string]*contracts.FundQuote)
	for _, c := range codes {
		if q, err := f.Quote(ctx, c); err == nil {
			out[c] = q
		}
	}
	return out, nil
}

func (fakeQuotes) Stats() cache.Stats { return cache.Stats{TotalCount: 2} }

type fakeCollector struct {
	codes []string
}

func (f *fakeCollector) CollectAll(_ context.Context, codes []string) ([]navdata.Result, error) {
	f.codes = codes
	return []navdata.Result{
		{Code: "000001", Fetched: 3, Saved: 3, Latest: "2024-12-31"},
		{Code: "000009", Error: eastmoney.ErrNoData},
	}, nil
}

// series builds n daily points ending today so ?days= windows include them
func series(n int, phase float64) []contracts.NetValuePoint {
	end := time.Now().UTC().Truncate(24 * time.Hour)
	out := make([]contracts.NetValuePoint, n)
	for i := range out {
		v := 1 + 0.002*float64(i) + 0.05*math.Sin(float64(i)/7+phase)
		out[i] = contracts.NetValuePoint{
			Date:  end.AddDate(0, 0, i-(n-1)).Format(contracts.DateLayout),
			Value: v,
		}
	}
	return out
}

type testEnv struct {
	router    http.Handler
	store     *navdata.MemoryStore
	metrics   *metrics.Metrics
	collector *fakeCollector
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Nop()

	store := navdata.NewMemoryStore()
	store.LoadSeries(contracts.FundSeries{Code: "000001", Name: "성장", Points: series(400, 0)})
	store.LoadSeries(contracts.FundSeries{Code: "000002", Name: "가치", Points: series(400, 1.5)})
	store.LoadSeries(contracts.FundSeries{Code: "000003", Name: "신규", Points: series(5, 0)})

	m := metrics.New()
	svc := analysis.NewService(store, store, nil, nil, 0, m, log)
	col := &fakeCollector{}

	router := NewRouter(Handlers{
		Health:    handlers.NewHealthHandler(fakeQuotes{}),
		Fund:      handlers.NewFundHandler(fakeQuotes{}, svc, 3, log),
		Analysis:  handlers.NewAnalysisHandler(svc, 3, log),
		Portfolio: handlers.NewPortfolioHandler(store, svc, log),
		Data:      handlers.NewDataHandler(col, svc, navdata.NewQualityGate(store, navdata.QualityConfig{}), log),
	}, m, log)

	return &testEnv{router: router, store: store, metrics: m, collector: col}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "fundlens", body["service"])
	assert.Equal(t, 2.0, body["cache_size"])
}

func TestRouter_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"quote ok", "GET", "/api/funds/000001/quote", 200},
		{"quote not found", "GET", "/api/funds/999999/quote", 404},
		{"bad code", "GET", "/api/funds/abc/quote", 400},
		{"quotes batch", "GET", "/api/funds?codes=000001,000002", 200},
		{"quotes missing codes", "GET", "/api/funds", 400},
		{"quotes over limit", "GET", "/api/funds?codes=000001,000002,000003,000004", 400},
		{"nav", "GET", "/api/funds/000001/nav?days=30", 200},
		{"nav unknown fund", "GET", "/api/funds/123456/nav", 404},
		{"bad days", "GET", "/api/funds/000001/analysis?days=-1", 400},
		{"analysis", "GET", "/api/funds/000001/analysis", 200},
		{"analysis all", "GET", "/api/funds/000001/analysis?days=all", 200},
		{"analysis insufficient", "GET", "/api/funds/000003/trend", 422},
		{"score", "GET", "/api/funds/000001/score", 200},
		{"trend", "GET", "/api/funds/000001/trend", 200},
		{"best dip day", "GET", "/api/funds/000001/best-dip-day?days=all", 200},
		{"dip", "GET", "/api/funds/000001/dip?amount=500&frequency=weekly", 200},
		{"dip bad frequency", "GET", "/api/funds/000001/dip?frequency=daily", 400},
		{"dip bad amount", "GET", "/api/funds/000001/dip?amount=x", 400},
		{"report", "GET", "/api/funds/000001/report", 200},
		{"quality", "GET", "/api/data/quality", 200},
		{"quality bad date", "GET", "/api/data/quality?date=31-12-2024", 400},
		{"unknown route", "GET", "/api/nope", 404},
		{"wrong method", "POST", "/api/funds/000001/quote", 405},
		{"wrong method portfolio", "DELETE", "/api/portfolio/allocation", 405},
		{"wrong method health", "POST", "/health", 405},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.method, tt.path, nil)
			assert.Equal(t, tt.status, status, body.Error)
			assert.Equal(t, tt.status == 200, body.Success)
			if tt.status != 200 {
				assert.NotEmpty(t, body.Error)
			}
		})
	}
}

func TestRouter_Analysis(t *testing.T) {
	env := newTestEnv(t)

	var report analysis.Report
	status, body := env.do(t, "GET", "/api/funds/000001/report?days=90", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body.Data, &report))
	assert.Equal(t, "성장", report.Name)
	assert.Equal(t, 91, report.Points)
	assert.NotNil(t, report.Trend)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		env.metrics.HTTPRequests.WithLabelValues("/api/funds/{code}/report", "GET", "200")))
}

func TestRouter_Correlation(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, "POST", "/api/analysis/correlation", map[string]interface{}{
		"codes": []string{"000001", "000002"},
		"days":  180,
	})
	require.Equal(t, http.StatusOK, status, body.Error)

	var ca struct {
		Funds  []string    `json:"funds"`
		Matrix [][]float64 `json:"matrix"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &ca))
	assert.Equal(t, []string{"000001", "000002"}, ca.Funds)
	require.Len(t, ca.Matrix, 2)
	assert.Equal(t, 1.0, ca.Matrix[0][0])

	status, _ = env.do(t, "POST", "/api/analysis/correlation", map[string]interface{}{"codes": []string{"000001"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, "POST", "/api/analysis/correlation", map[string]interface{}{
		"codes": []string{"000001", "000002"}, "alignment": "nearest",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, "POST", "/api/analysis/correlation", map[string]interface{}{"codez": []string{}})
	assert.Equal(t, http.StatusBadRequest, status, "unknown fields are rejected")
}

func TestRouter_Statistics(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, "POST", "/api/analysis/statistics", map[string]interface{}{
		"code":   "adhoc",
		"points": series(120, 0.3),
		"amount": 1000,
	})
	require.Equal(t, http.StatusOK, status, body.Error)

	var resp struct {
		Code   string `json:"code"`
		Points int    `json:"points"`
		DIP    *struct {
			Frequency string `json:"frequency"`
		} `json:"dip"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Equal(t, "adhoc", resp.Code)
	assert.Equal(t, 120, resp.Points)
	require.NotNil(t, resp.DIP)
	assert.Equal(t, "monthly", resp.DIP.Frequency)

	status, _ = env.do(t, "POST", "/api/analysis/statistics", map[string]interface{}{
		"points": series(1, 0),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestRouter_Portfolio(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, "PUT", "/api/portfolio/holdings/000001", map[string]interface{}{
		"name": "성장", "amount": 6000, "type": "股票型",
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, "PUT", "/api/portfolio/holdings/000002", map[string]interface{}{
		"name": "债券", "amount": 4000, "type": "债券型",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, "PUT", "/api/portfolio/holdings/000002", map[string]interface{}{"amount": -1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := env.do(t, "GET", "/api/portfolio/holdings", nil)
	require.Equal(t, http.StatusOK, status)
	var list []contracts.Holding
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "000001", list[0].Code, "largest amount first")

	status, body = env.do(t, "GET", "/api/portfolio/allocation", nil)
	require.Equal(t, http.StatusOK, status)
	var advice struct {
		TotalAmount float64 `json:"total_amount"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &advice))
	assert.Equal(t, 10000.0, advice.TotalAmount)

	status, _ = env.do(t, "DELETE", "/api/portfolio/holdings/000002", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, "DELETE", "/api/portfolio/holdings/000002", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_Collect(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, "POST", "/api/data/collect", map[string]interface{}{
		"codes": []string{"000001", "000009"},
	})
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.Equal(t, []string{"000001", "000009"}, env.collector.codes)

	var results []handlers.CollectResult
	require.NoError(t, json.Unmarshal(body.Data, &results))
	require.Len(t, results, 2)
	assert.Equal(t, 3, results[0].Saved)
	assert.NotEmpty(t, results[1].Error)

	status, _ = env.do(t, "POST", "/api/data/collect", map[string]interface{}{"codes": []string{"12"}})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
