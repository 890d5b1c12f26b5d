package statistics

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fundlens/internal/contracts"
)

const (
	// TradingDaysPerYear is the annualisation base
	TradingDaysPerYear = 252
	// RiskFreeRate is the annual risk-free rate used by Sharpe/Sortino
	RiskFreeRate = 0.02
)

// dailyRiskFree = 연 2% / 252
var dailyRiskFree = RiskFreeRate / TradingDaysPerYear

// round rounds half away from zero to places decimals.
// NaN and ±Inf collapse to 0 so no degenerate value escapes the engine.
func round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

// values extracts NAV values in order
func values(points []contracts.NetValuePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// DailyReturns returns simple returns r_i = (v_i - v_{i-1}) / v_{i-1}.
// A zero previous value yields a 0 return for that step.
func DailyReturns(vals []float64) []float64 {
	if len(vals) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(vals)-1)
	for i := 1; i < len(vals); i++ {
		if vals[i-1] != 0 {
			returns[i-1] = (vals[i] - vals[i-1]) / vals[i-1]
		}
	}
	return returns
}

// mean is 0 for an empty slice
func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// popStdDev is the population standard deviation (divide by n)
func popStdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(stat.Moment(2, x, nil))
}

// SMA returns the trailing simple moving average.
// The output has len(vals)-window+1 entries; no padding.
func SMA(vals []float64, window int) []float64 {
	if window <= 0 || len(vals) < window {
		return []float64{}
	}
	out := make([]float64, 0, len(vals)-window+1)
	var sum float64
	for i, v := range vals {
		sum += v
		if i >= window {
			sum -= vals[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// EMA returns the final exponential moving average seeded at the first value
// (multiplier 2/(period+1)).
func EMA(vals []float64, period int) float64 {
	if len(vals) == 0 || period <= 0 {
		return 0
	}
	k := 2.0 / (float64(period) + 1.0)
	ema := vals[0]
	for _, v := range vals[1:] {
		ema = v*k + ema*(1-k)
	}
	return ema
}

// RSI is the simplified relative strength index over the last period deltas:
// plain mean gain / mean loss, not Wilder smoothing.
func RSI(vals []float64, period int) float64 {
	if period <= 0 || len(vals) < period+1 {
		return 50 // neutral
	}
	var gains, losses float64
	start := len(vals) - period
	for i := start; i < len(vals); i++ {
		change := vals[i] - vals[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func minMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	lo, hi := x[0], x[0]
	for _, v := range x[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func last(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return x[len(x)-1]
}
