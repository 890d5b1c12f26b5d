package contracts

import (
	"sort"
	"time"
)

// DateLayout is the wire format of every NAV date (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// NetValuePoint is one NAV observation of a fund
// ⭐ SSOT: 통계 엔진의 유일한 입력 형태
type NetValuePoint struct {
	Date   string   `json:"date"`             // YYYY-MM-DD
	Value  float64  `json:"value"`            // 기준가 (NAV)
	Change *float64 `json:"change,omitempty"` // 일간 등락률 (%)
}

// Time parses the point date. Malformed dates return the zero time and false.
func (p NetValuePoint) Time() (time.Time, bool) {
	t, err := time.Parse(DateLayout, p.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FundSeries is a named NAV history
type FundSeries struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Points []NetValuePoint `json:"points"`
}

// SortedPoints returns a copy of points sorted ascending by date string.
// Points sharing a date are ordered by value, then change (nil first), so the
// result does not depend on input order. The input slice is never modified.
func SortedPoints(points []NetValuePoint) []NetValuePoint {
	sorted := make([]NetValuePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return pointLess(sorted[i], sorted[j])
	})
	return sorted
}

func pointLess(a, b NetValuePoint) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	switch {
	case a.Change == nil:
		return b.Change != nil
	case b.Change == nil:
		return false
	default:
		return *a.Change < *b.Change
	}
}

// Holding is a user position used by the allocation advisor
type Holding struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"` // 보유 금액
	Type      string    `json:"type"`   // 원본 유형 문자열 (예: 股票型)
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// QuoteSources records which upstream sources answered
type QuoteSources struct {
	Estimate bool `json:"estimate"`
	NAV      bool `json:"nav"`
	Detail   bool `json:"detail"`
	Ant      bool `json:"ant"` // 蚂蚁基金 (fund123)
}

// FundQuote is the merged real-time view of a fund
// Published NAV wins over the intraday estimate when both exist.
type FundQuote struct {
	Code           string       `json:"code"`
	Name           string       `json:"name"`
	Type           string       `json:"type"`
	NAV            float64      `json:"nav"`
	NAVDate        string       `json:"nav_date"`
	NAVChange      float64      `json:"nav_change"`
	Estimate       float64      `json:"estimate"`
	EstimateTime   string       `json:"estimate_time"`
	EstimateChange float64      `json:"estimate_change"`
	CurrentValue   float64      `json:"current_value"`
	DayChange      float64      `json:"day_change"`
	Sources        QuoteSources `json:"sources"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Resolve fills CurrentValue/DayChange from the best available source
func (q *FundQuote) Resolve() {
	switch {
	case q.NAV > 0:
		q.CurrentValue = q.NAV
		q.DayChange = q.NAVChange
	case q.Estimate > 0:
		q.CurrentValue = q.Estimate
		q.DayChange = q.EstimateChange
	default:
		q.CurrentValue = 0
		q.DayChange = 0
	}
}

// HasData reports whether any source answered
func (q *FundQuote) HasData() bool {
	return q.Sources.Estimate || q.Sources.NAV || q.Sources.Detail || q.Sources.Ant
}
