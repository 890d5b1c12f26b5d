package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/fundlens/internal/external/eastmoney"
	"github.com/wonny/fundlens/internal/navdata"
	"github.com/wonny/fundlens/pkg/logger"
)

// NavCollector refreshes stored NAV history
type NavCollector interface {
	CollectAll(ctx context.Context, codes []string) ([]navdata.Result, error)
}

// CacheInvalidator drops cached analysis of a fund
type CacheInvalidator interface {
	Invalidate(ctx context.Context, code string) error
}

// QualityChecker validates stored NAV history
type QualityChecker interface {
	Check(ctx context.Context, asOf time.Time) (*navdata.QualitySnapshot, error)
}

// DataHandler handles data endpoints
// ⭐ SSOT: 데이터 API 핸들러는 이 구조체에서만
type DataHandler struct {
	collector   NavCollector
	invalidator CacheInvalidator
	quality     QualityChecker
	logger      *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(col NavCollector, inv CacheInvalidator, quality QualityChecker, log *logger.Logger) *DataHandler {
	return &DataHandler{collector: col, invalidator: inv, quality: quality, logger: log}
}

// GetQuality returns the stored NAV quality snapshot
// GET /api/data/quality?date=2024-12-31
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		asOf = t
	}

	snapshot, err := h.quality.Check(r.Context(), asOf)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check data quality")
		respondError(w, http.StatusInternalServerError, "Failed to check data quality")
		return
	}
	respondOK(w, snapshot)
}

// CollectRequest represents a collection request
type CollectRequest struct {
	Codes []string `json:"codes"` // 비어 있으면 저장된 전체 펀드
}

// CollectResult is the per-fund outcome
type CollectResult struct {
	Code     string `json:"code"`
	Saved    int    `json:"saved"`
	Latest   string `json:"latest,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Collect triggers NAV collection
// POST /api/data/collect
func (h *DataHandler) Collect(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondErr(w, err)
			return
		}
	}
	for _, c := range req.Codes {
		if !eastmoney.ValidCode(c) {
			respondError(w, http.StatusBadRequest, "fund code must be 6 digits")
			return
		}
	}

	ctx := r.Context()
	h.logger.WithField("codes", len(req.Codes)).Info("Data collection triggered")

	results, err := h.collector.CollectAll(ctx, req.Codes)
	if err != nil && len(results) == 0 {
		h.logger.WithError(err).Error("Failed to collect NAV")
		respondError(w, http.StatusInternalServerError, "Failed to collect NAV")
		return
	}

	out := make([]CollectResult, 0, len(results))
	for _, res := range results {
		item := CollectResult{Code: res.Code, Saved: res.Saved, Latest: res.Latest, Fallback: res.Fallback}
		if res.Error != nil {
			item.Error = res.Error.Error()
		} else if res.Saved > 0 && h.invalidator != nil {
			if err := h.invalidator.Invalidate(ctx, res.Code); err != nil {
				h.logger.WithFund(res.Code).WithError(err).Warn("Failed to invalidate analysis cache")
			}
		}
		out = append(out, item)
	}

	respondOK(w, out)
}
