package statistics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fundlens/internal/contracts"
)

const (
	// MinCorrelationFunds is the minimum number of series to correlate
	MinCorrelationFunds = 2

	// minOverlap is the fewest aligned returns a pair needs to enter the score
	minOverlap = 2

	highCorrelation     = 0.7
	veryHighCorrelation = 0.9
)

// returnSeries is one fund's daily returns keyed by the date they end on
type returnSeries struct {
	dates   []string
	returns []float64
	byDate  map[string]float64
}

func newReturnSeries(points []contracts.NetValuePoint) returnSeries {
	sorted := contracts.SortedPoints(points)
	returns := DailyReturns(values(sorted))
	rs := returnSeries{
		dates:   make([]string, len(returns)),
		returns: returns,
		byDate:  make(map[string]float64, len(returns)),
	}
	for i, r := range returns {
		d := sorted[i+1].Date
		rs.dates[i] = d
		rs.byDate[d] = r
	}
	return rs
}

// Correlation computes the pairwise Pearson matrix of daily returns, flags
// highly correlated pairs and scores diversification.
// Default alignment joins returns on common dates. Pairs with fewer than two
// aligned returns stay 0 in the matrix, are listed in InsufficientPairs and do
// not count toward the score; nil when no pair has enough overlap.
func (e *Engine) Correlation(funds []contracts.FundSeries, opts CorrelationOptions) *CorrelationAnalysis {
	if len(funds) < MinCorrelationFunds {
		return nil
	}

	alignment := opts.Alignment
	if alignment != AlignPositional {
		alignment = AlignByDate
	}

	n := len(funds)
	series := make([]returnSeries, n)
	codes := make([]string, n)
	names := make([]string, n)
	for i, f := range funds {
		series[i] = newReturnSeries(f.Points)
		codes[i] = f.Code
		names[i] = f.Name
		if names[i] == "" {
			names[i] = f.Code
		}
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}

	var (
		high   []CorrelationPair
		sparse []CorrelationPair
		sumAbs float64
		pairs  int
	)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			x, y := alignReturns(series[i], series[j], alignment)
			if len(x) < minOverlap {
				// 겹치는 수익률 부족: 행렬은 0, 분산 점수에서는 제외
				sparse = append(sparse, CorrelationPair{
					FundA:   codes[i],
					FundB:   codes[j],
					NameA:   names[i],
					NameB:   names[j],
					Overlap: len(x),
				})
				continue
			}
			corr := pearson(x, y)

			rounded := round(corr, 2)
			matrix[i][j] = rounded
			matrix[j][i] = rounded

			sumAbs += math.Abs(corr)
			pairs++

			if corr > highCorrelation {
				suggestion := e.labels.Correlation.PairModerate
				if corr > veryHighCorrelation {
					suggestion = e.labels.Correlation.PairHigh
				}
				high = append(high, CorrelationPair{
					FundA:       codes[i],
					FundB:       codes[j],
					NameA:       names[i],
					NameB:       names[j],
					Correlation: rounded,
					Overlap:     len(x),
					Suggestion:  suggestion,
				})
			}
		}
	}

	if pairs == 0 {
		return nil
	}
	score := round(math.Max(0, (1-sumAbs/float64(pairs))*100), 1)

	if high == nil {
		high = []CorrelationPair{}
	}
	if sparse == nil {
		sparse = []CorrelationPair{}
	}

	return &CorrelationAnalysis{
		Funds:                codes,
		Names:                names,
		Matrix:               matrix,
		HighCorrelations:     high,
		InsufficientPairs:    sparse,
		DiversificationScore: score,
		Suggestion:           e.diversificationSuggestion(score),
		Alignment:            alignment,
	}
}

func (e *Engine) diversificationSuggestion(score float64) string {
	switch {
	case score >= 70:
		return e.labels.Correlation.Diversified
	case score >= 50:
		return e.labels.Correlation.Moderate
	default:
		return e.labels.Correlation.Concentrated
	}
}

// alignReturns pairs two return series.
// by date: intersection of return dates in ascending order.
// positional: index-by-index over the shorter length.
func alignReturns(a, b returnSeries, alignment Alignment) ([]float64, []float64) {
	if alignment == AlignPositional {
		n := len(a.returns)
		if len(b.returns) < n {
			n = len(b.returns)
		}
		return a.returns[:n], b.returns[:n]
	}

	common := make([]string, 0, len(a.dates))
	for _, d := range a.dates {
		if _, ok := b.byDate[d]; ok {
			common = append(common, d)
		}
	}
	sort.Strings(common)

	x := make([]float64, len(common))
	y := make([]float64, len(common))
	for i, d := range common {
		x[i] = a.byDate[d]
		y[i] = b.byDate[d]
	}
	return x, y
}

// pearson wraps stat.Correlation; zero variance gives 0
func pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	corr := stat.Correlation(x, y, nil)
	if math.IsNaN(corr) || math.IsInf(corr, 0) {
		return 0
	}
	return clamp(corr, -1, 1)
}
