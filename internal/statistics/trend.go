package statistics

import (
	"math"

	"github.com/wonny/fundlens/internal/contracts"
)

const (
	// MinTrendPoints is the minimum series length for trend prediction
	MinTrendPoints = 30

	rsiPeriod        = 14
	macdFast         = 12
	macdSlow         = 26
	macdSignalFactor = 0.2
	supportWindow    = 20
	trendThreshold   = 30
	sidewaysStrength = 50

	strengthMA   = 80
	strengthMACD = 70
	strengthRSI  = 60
)

// Trend computes MA5/10/20, RSI(14) and a simplified MACD, evaluates the
// signal rules and classifies the short-term direction.
//
// RSI uses the plain mean gain / mean loss of the last 14 deltas and the MACD
// signal line is macd × 0.2 instead of a 9-period EMA; neither is the
// textbook indicator.
func (e *Engine) Trend(points []contracts.NetValuePoint) *TrendPrediction {
	if len(points) < MinTrendPoints {
		return nil
	}

	sorted := contracts.SortedPoints(points)
	vals := values(sorted)

	ma5, ma10, ma20 := SMA(vals, 5), SMA(vals, 10), SMA(vals, 20)
	cur5, cur10, cur20 := last(ma5), last(ma10), last(ma20)

	rsi := RSI(vals, rsiPeriod)

	macdLine := EMA(vals, macdFast) - EMA(vals, macdSlow)
	signalLine := macdLine * macdSignalFactor
	histogram := macdLine - signalLine

	var signals []TrendSignal
	add := func(t SignalType, rule SignalRule, indicator string, strength int) {
		signals = append(signals, TrendSignal{
			Type:      t,
			Rule:      rule,
			Indicator: indicator,
			Strength:  strength,
			Reason:    e.labels.SignalReasons[rule],
		})
	}

	// 이동평균 정배열 / 역배열
	switch {
	case cur5 > cur10 && cur10 > cur20:
		add(SignalBuy, RuleMABullish, "MA", strengthMA)
	case cur5 < cur10 && cur10 < cur20:
		add(SignalSell, RuleMABearish, "MA", strengthMA)
	}

	switch {
	case rsi > 70:
		add(SignalSell, RuleRSIOverbought, "RSI", strengthRSI)
	case rsi < 30:
		add(SignalBuy, RuleRSIOversold, "RSI", strengthRSI)
	}

	switch {
	case histogram > 0 && macdLine > signalLine:
		add(SignalBuy, RuleMACDBullish, "MACD", strengthMACD)
	case histogram < 0 && macdLine < signalLine:
		add(SignalSell, RuleMACDBearish, "MACD", strengthMACD)
	}

	trend, strength, confidence, buy, sell := classifyTrend(signals)

	window := vals
	if len(window) > supportWindow {
		window = window[len(window)-supportWindow:]
	}
	support, resistance := minMax(window)

	if signals == nil {
		signals = []TrendSignal{}
	}

	averages := MovingAverages{
		MA5:       roundAll(ma5, 4),
		MA10:      roundAll(ma10, 4),
		MA20:      roundAll(ma20, 4),
		Current5:  round(cur5, 4),
		Current10: round(cur10, 4),
		Current20: round(cur20, 4),
	}
	macd := MACD{
		MACD:      round(macdLine, 6),
		Signal:    round(signalLine, 6),
		Histogram: round(histogram, 6),
	}

	return &TrendPrediction{
		Trend:          trend,
		Strength:       strength,
		Confidence:     confidence,
		BuyStrength:    buy,
		SellStrength:   sell,
		MovingAverages: averages,
		RSI:            round(rsi, 2),
		MACD:           macd,
		Signals:        signals,
		Support:        round(support, 4),
		Resistance:     round(resistance, 4),
		Summary:        e.labels.Trends[trend],
	}
}

// classifyTrend sums signal strengths per side. A lead above 30 decides the
// direction; otherwise sideways with strength 50.
func classifyTrend(signals []TrendSignal) (trend TrendDirection, strength, confidence, buy, sell int) {
	for _, s := range signals {
		if s.Type == SignalBuy {
			buy += s.Strength
		} else {
			sell += s.Strength
		}
	}

	diff := buy - sell
	trend, strength = TrendSideways, sidewaysStrength
	switch {
	case diff > trendThreshold:
		trend, strength = TrendUp, min(100, diff)
	case diff < -trendThreshold:
		trend, strength = TrendDown, min(100, -diff)
	}

	confidence = min(100, int(math.Round(math.Abs(float64(diff))/2+50)))
	return trend, strength, confidence, buy, sell
}

func roundAll(x []float64, places int32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = round(v, places)
	}
	return out
}
