package handlers

import (
	"net/http"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/external/eastmoney"
	"github.com/wonny/fundlens/internal/statistics"
	"github.com/wonny/fundlens/pkg/logger"
)

// AnalysisHandler handles multi-fund and ad-hoc analysis endpoints
type AnalysisHandler struct {
	analysis   *analysis.Service
	batchLimit int
	logger     *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(svc *analysis.Service, batchLimit int, log *logger.Logger) *AnalysisHandler {
	if batchLimit <= 0 {
		batchLimit = 50
	}
	return &AnalysisHandler{analysis: svc, batchLimit: batchLimit, logger: log}
}

// CorrelationRequest is the body of POST /api/analysis/correlation
type CorrelationRequest struct {
	Codes     []string             `json:"codes"`
	Days      *int                 `json:"days,omitempty"`
	Alignment statistics.Alignment `json:"alignment,omitempty"`
}

// Correlation compares stored funds
// POST /api/analysis/correlation
func (h *AnalysisHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	var req CorrelationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}

	if len(req.Codes) > h.batchLimit {
		respondError(w, http.StatusBadRequest, "too many codes")
		return
	}
	for _, c := range req.Codes {
		if !eastmoney.ValidCode(c) {
			respondError(w, http.StatusBadRequest, "fund code must be 6 digits")
			return
		}
	}
	switch req.Alignment {
	case "", statistics.AlignByDate, statistics.AlignPositional:
	default:
		respondError(w, http.StatusBadRequest, "alignment must be date or positional")
		return
	}

	days := analysis.DefaultDays
	if req.Days != nil {
		if *req.Days < 0 {
			respondError(w, http.StatusBadRequest, "days must be >= 0")
			return
		}
		days = *req.Days
	}

	ca, err := h.analysis.Correlation(r.Context(), req.Codes, days, req.Alignment)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.logger.WithError(err).Error("Failed to compute correlation")
		}
		respondErr(w, err)
		return
	}
	respondOK(w, ca)
}

// StatisticsRequest is an ad-hoc series posted by the client
type StatisticsRequest struct {
	Code      string                    `json:"code,omitempty"`
	Name      string                    `json:"name,omitempty"`
	Points    []contracts.NetValuePoint `json:"points"`
	Amount    float64                   `json:"amount,omitempty"`    // > 0 이면 DIP 시뮬레이션 포함
	Frequency statistics.Frequency      `json:"frequency,omitempty"` // 기본 monthly
}

// StatisticsResponse bundles the ad-hoc results
type StatisticsResponse struct {
	*analysis.Report
	DIP         *statistics.DIPSimulation `json:"dip,omitempty"`
	BestDIPDays []statistics.BestDIPDay   `json:"best_dip_days,omitempty"`
}

// Statistics runs the engine on posted points without touching storage
// POST /api/analysis/statistics
func (h *AnalysisHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	var req StatisticsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}

	report, err := h.analysis.ReportFor(contracts.FundSeries{Code: req.Code, Name: req.Name, Points: req.Points})
	if err != nil {
		respondErr(w, err)
		return
	}

	engine := h.analysis.Engine()
	resp := StatisticsResponse{
		Report:      report,
		BestDIPDays: engine.BestDIPDay(req.Points),
	}
	if req.Amount > 0 {
		freq := req.Frequency
		if freq == "" {
			freq = statistics.FrequencyMonthly
		}
		if !freq.Valid() {
			respondError(w, http.StatusBadRequest, "frequency must be monthly or weekly")
			return
		}
		resp.DIP = engine.DIP(req.Points, req.Amount, freq)
	}

	respondOK(w, resp)
}
