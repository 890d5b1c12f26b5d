package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/external/eastmoney"
	"github.com/wonny/fundlens/internal/realtime/cache"
	"github.com/wonny/fundlens/internal/statistics"
	"github.com/wonny/fundlens/pkg/logger"
)

// QuoteSource serves merged real-time quotes
type QuoteSource interface {
	Quote(ctx context.Context, code string) (*contracts.FundQuote, error)
	Quotes(ctx context.Context, codes []string) (map[string]*contracts.FundQuote, error)
	Stats() cache.Stats
}

// FundHandler handles per-fund API endpoints
// ⭐ SSOT: 펀드 API 핸들러는 이 구조체에서만
type FundHandler struct {
	quotes     QuoteSource
	analysis   *analysis.Service
	batchLimit int
	logger     *logger.Logger
}

// NewFundHandler creates a new fund handler
func NewFundHandler(quotes QuoteSource, svc *analysis.Service, batchLimit int, log *logger.Logger) *FundHandler {
	if batchLimit <= 0 {
		batchLimit = 50
	}
	return &FundHandler{
		quotes:     quotes,
		analysis:   svc,
		batchLimit: batchLimit,
		logger:     log,
	}
}

// fundCode reads and validates {code}
func fundCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := mux.Vars(r)["code"]
	if !eastmoney.ValidCode(code) {
		respondError(w, http.StatusBadRequest, "fund code must be 6 digits")
		return "", false
	}
	return code, true
}

// codeAndDays reads {code} and ?days=
func codeAndDays(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	code, ok := fundCode(w, r)
	if !ok {
		return "", 0, false
	}
	days, err := parseDays(r)
	if err != nil {
		respondErr(w, err)
		return "", 0, false
	}
	return code, days, true
}

func (h *FundHandler) fail(w http.ResponseWriter, err error, msg, code string) {
	if statusFor(err) >= http.StatusInternalServerError {
		h.logger.WithFund(code).WithError(err).Error(msg)
	}
	respondErr(w, err)
}

// GetQuote returns the merged real-time quote
// GET /api/funds/{code}/quote
func (h *FundHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	code, ok := fundCode(w, r)
	if !ok {
		return
	}

	q, err := h.quotes.Quote(r.Context(), code)
	if err != nil {
		h.fail(w, err, "Failed to get quote", code)
		return
	}
	respondOK(w, q)
}

// GetQuotes returns quotes of several funds
// GET /api/funds?codes=a,b
func (h *FundHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	codes := parseCodes(r.URL.Query().Get("codes"))
	if len(codes) == 0 {
		respondError(w, http.StatusBadRequest, "codes is required")
		return
	}
	if len(codes) > h.batchLimit {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d codes per request", h.batchLimit))
		return
	}
	for _, c := range codes {
		if !eastmoney.ValidCode(c) {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid fund code %q", c))
			return
		}
	}

	quotes, err := h.quotes.Quotes(r.Context(), codes)
	if err != nil {
		h.fail(w, err, "Failed to get quotes", "")
		return
	}
	respondOK(w, quotes)
}

// GetNAV returns stored NAV history
// GET /api/funds/{code}/nav?days=365
func (h *FundHandler) GetNAV(w http.ResponseWriter, r *http.Request) {
	code, days, ok := codeAndDays(w, r)
	if !ok {
		return
	}

	series, err := h.analysis.Series(r.Context(), code, days)
	if err != nil {
		h.fail(w, err, "Failed to get NAV history", code)
		return
	}
	respondOK(w, series)
}

// GetAnalysis returns return/risk metrics
// GET /api/funds/{code}/analysis?days=365
func (h *FundHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	code, days, ok := codeAndDays(w, r)
	if !ok {
		return
	}

	ra, err := h.analysis.Returns(r.Context(), code, days)
	if err != nil {
		h.fail(w, err, "Failed to analyse returns", code)
		return
	}
	respondOK(w, ra)
}

// GetScore returns the composite score
// GET /api/funds/{code}/score?days=365
func (h *FundHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	code, days, ok := codeAndDays(w, r)
	if !ok {
		return
	}

	score, err := h.analysis.Score(r.Context(), code, days)
	if err != nil {
		h.fail(w, err, "Failed to score fund", code)
		return
	}
	respondOK(w, score)
}

// GetTrend returns the technical trend
// GET /api/funds/{code}/trend?days=365
func (h *FundHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	code, days, ok := codeAndDays(w, r)
	if !ok {
		return
	}

	trend, err := h.analysis.Trend(r.Context(), code, days)
	if err != nil {
		h.fail(w, err, "Failed to predict trend", code)
		return
	}
	respondOK(w, trend)
}

// GetBestDIPDay ranks DCA days of the month
// GET /api/funds/{code}/best-dip-day?days=all
func (h *FundHandler) GetBestDIPDay(w http.ResponseWriter, r *http.Request) {
	code, days, ok := codeAndDays(w, r)
	if !ok {
		return
	}

	ranked, err := h.analysis.BestDIPDay(r.Context(), code, days)
	if err != nil {
		h.fail(w, err, "Failed to rank DIP days", code)
		return
	}
	respondOK(w, ranked)
}

// GetDIP simulates a DCA plan
// GET /api/funds/{code}/dip?amount=1000&frequency=monthly&days=365
func (h *FundHandler) GetDIP(w http.ResponseWriter, r *http.Request) {
	code, days, ok := codeAndDays(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	amount := 1000.0
	if raw := q.Get("amount"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "amount must be a number")
			return
		}
		amount = v
	}
	freq := statistics.FrequencyMonthly
	if raw := q.Get("frequency"); raw != "" {
		freq = statistics.Frequency(raw)
	}

	sim, err := h.analysis.DIP(r.Context(), code, days, amount, freq)
	if err != nil {
		h.fail(w, err, "Failed to simulate DIP", code)
		return
	}
	respondOK(w, sim)
}

// GetReport returns returns + score + trend in one payload
// GET /api/funds/{code}/report?days=365
func (h *FundHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	code, days, ok := codeAndDays(w, r)
	if !ok {
		return
	}

	report, err := h.analysis.Report(r.Context(), code, days)
	if err != nil {
		h.fail(w, err, "Failed to build report", code)
		return
	}
	respondOK(w, report)
}
