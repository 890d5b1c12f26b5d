package handlers

import (
	"net/http"
	"strings"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/pkg/logger"
)

// PortfolioHandler handles holdings and allocation endpoints
type PortfolioHandler struct {
	holdings contracts.HoldingRepository
	analysis *analysis.Service
	logger   *logger.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(holdings contracts.HoldingRepository, svc *analysis.Service, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{holdings: holdings, analysis: svc, logger: log}
}

// GetAllocation analyses stored holdings
// GET /api/portfolio/allocation
func (h *PortfolioHandler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	advice, err := h.analysis.Allocation(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to analyse allocation")
		respondErr(w, err)
		return
	}
	respondOK(w, advice)
}

// ListHoldings returns stored holdings
// GET /api/portfolio/holdings
func (h *PortfolioHandler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	list, err := h.holdings.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list holdings")
		respondErr(w, err)
		return
	}
	if list == nil {
		list = []contracts.Holding{}
	}
	respondOK(w, list)
}

// HoldingRequest is the body of PUT /api/portfolio/holdings/{code}
type HoldingRequest struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

// PutHolding creates or replaces one holding
// PUT /api/portfolio/holdings/{code}
func (h *PortfolioHandler) PutHolding(w http.ResponseWriter, r *http.Request) {
	code, ok := fundCode(w, r)
	if !ok {
		return
	}

	var req HoldingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if req.Amount < 0 {
		respondError(w, http.StatusBadRequest, "amount must be >= 0")
		return
	}

	holding := contracts.Holding{
		Code:   code,
		Name:   strings.TrimSpace(req.Name),
		Amount: req.Amount,
		Type:   strings.TrimSpace(req.Type),
	}
	if err := h.holdings.Upsert(r.Context(), holding); err != nil {
		h.logger.WithFund(code).WithError(err).Error("Failed to save holding")
		respondErr(w, err)
		return
	}
	respondOK(w, holding)
}

// DeleteHolding removes one holding
// DELETE /api/portfolio/holdings/{code}
func (h *PortfolioHandler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	code, ok := fundCode(w, r)
	if !ok {
		return
	}

	if err := h.holdings.Delete(r.Context(), code); err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.logger.WithFund(code).WithError(err).Error("Failed to delete holding")
		}
		respondErr(w, err)
		return
	}
	respondOK(w, map[string]string{"code": code})
}
