package statistics

import (
	"math"

	"github.com/wonny/fundlens/internal/contracts"
)

// MinReturnPoints is the minimum series length for a return analysis
const MinReturnPoints = 2

// ReturnAnalysis computes total/annualized return, volatility, max drawdown
// and Sharpe/Sortino/Calmar over a NAV series.
func (e *Engine) ReturnAnalysis(points []contracts.NetValuePoint) *ReturnAnalysis {
	if len(points) < MinReturnPoints {
		return nil
	}

	sorted := contracts.SortedPoints(points)
	vals := values(sorted)
	returns := DailyReturns(vals)

	first, lastVal := vals[0], vals[len(vals)-1]
	tradingDays := len(returns)

	totalReturn := 0.0
	if first != 0 {
		totalReturn = (lastVal - first) / first
	}

	// 연율화: years = 거래일 / 252, 0 이하이면 누적 수익률 그대로
	annualized := totalReturn
	years := float64(tradingDays) / TradingDaysPerYear
	if years > 0 {
		annualized = math.Pow(1+totalReturn, 1/years) - 1
	}

	meanDaily := mean(returns)
	stdDaily := popStdDev(returns)
	volatility := stdDaily * math.Sqrt(TradingDaysPerYear)

	maxDD, ddStart, ddEnd := maxDrawdown(sorted)

	sharpe := 0.0
	if stdDaily > 0 {
		sharpe = (meanDaily - dailyRiskFree) / stdDaily * math.Sqrt(TradingDaysPerYear)
	}

	sortino := 0.0
	if downside := downsideDeviation(returns); downside > 0 {
		sortino = (meanDaily - dailyRiskFree) / downside * math.Sqrt(TradingDaysPerYear)
	}

	annualizedPct := annualized * 100
	calmar := 0.0
	if maxDD > 0 {
		calmar = annualizedPct / (maxDD * 100)
	}

	return &ReturnAnalysis{
		TotalReturn:      round(totalReturn*100, 2),
		AnnualizedReturn: round(annualizedPct, 2),
		DailyReturn:      round(meanDaily*100, 4),
		Volatility:       round(volatility*100, 2),
		MaxDrawdown:      round(maxDD*100, 2),
		MaxDrawdownStart: ddStart,
		MaxDrawdownEnd:   ddEnd,
		SharpeRatio:      round(sharpe, 2),
		SortinoRatio:     round(sortino, 2),
		CalmarRatio:      round(calmar, 2),
		TradingDays:      tradingDays,
		StartDate:        sorted[0].Date,
		EndDate:          sorted[len(sorted)-1].Date,
	}
}

// maxDrawdown scans forward keeping the running peak. It returns the worst
// drawdown as a fraction together with the peak date that preceded it and the
// trough date. Without any decline both dates are the first date.
func maxDrawdown(sorted []contracts.NetValuePoint) (float64, string, string) {
	if len(sorted) == 0 {
		return 0, "", ""
	}

	peak := sorted[0].Value
	peakDate := sorted[0].Date
	maxDD := 0.0
	start, end := sorted[0].Date, sorted[0].Date

	for _, p := range sorted {
		if p.Value > peak {
			peak = p.Value
			peakDate = p.Date
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Value) / peak
		if dd > maxDD {
			maxDD = dd
			start = peakDate
			end = p.Date
		}
	}

	return math.Min(maxDD, 1), start, end
}

// downsideDeviation is the semi-deviation of returns below the daily
// risk-free rate; 0 when no return falls below it.
func downsideDeviation(returns []float64) float64 {
	var sumSq float64
	var count int
	for _, r := range returns {
		if r < dailyRiskFree {
			d := r - dailyRiskFree
			sumSq += d * d
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(count))
}
