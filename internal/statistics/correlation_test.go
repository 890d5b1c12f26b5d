package statistics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/contracts"
)

func TestCalculateCorrelation_TooFew(t *testing.T) {
	assert.Nil(t, CalculateCorrelation(nil, CorrelationOptions{}))
	assert.Nil(t, CalculateCorrelation([]contracts.FundSeries{
		{Code: "000001", Points: genSeries("2024-01-01", 30, zigzag)},
	}, CorrelationOptions{}))
}

func TestCalculateCorrelation_Identical(t *testing.T) {
	points := genSeries("2024-01-01", 60, zigzag)
	funds := []contracts.FundSeries{
		{Code: "000001", Name: "A", Points: points},
		{Code: "000002", Name: "B", Points: points},
	}

	got := CalculateCorrelation(funds, CorrelationOptions{})
	require.NotNil(t, got)

	assert.InDelta(t, 1.0, got.Matrix[0][1], 1e-9)
	assert.Equal(t, AlignByDate, got.Alignment)
	require.Len(t, got.HighCorrelations, 1)
	assert.Equal(t, "000001", got.HighCorrelations[0].FundA)
	assert.Equal(t, "000002", got.HighCorrelations[0].FundB)
	assert.Equal(t, DefaultLabels().Correlation.PairHigh, got.HighCorrelations[0].Suggestion)
	assert.Equal(t, 0.0, got.DiversificationScore)
	assert.Equal(t, DefaultLabels().Correlation.Concentrated, got.Suggestion)
}

func TestCalculateCorrelation_Symmetric(t *testing.T) {
	funds := []contracts.FundSeries{
		{Code: "A", Points: genSeries("2024-01-01", 80, zigzag)},
		{Code: "B", Points: genSeries("2024-01-01", 80, func(i int) float64 { return 1 + 0.1*math.Sin(float64(i)/3) })},
		{Code: "C", Points: genSeries("2024-01-01", 80, func(i int) float64 { return 2 - 0.01*float64(i%7) })},
	}

	got := CalculateCorrelation(funds, CorrelationOptions{})
	require.NotNil(t, got)

	require.Len(t, got.Matrix, 3)
	for i := range got.Matrix {
		assert.Equal(t, 1.0, got.Matrix[i][i])
		for j := range got.Matrix {
			assert.Equal(t, got.Matrix[i][j], got.Matrix[j][i])
			assert.GreaterOrEqual(t, got.Matrix[i][j], -1.0)
			assert.LessOrEqual(t, got.Matrix[i][j], 1.0)
		}
	}
	assert.Equal(t, []string{"A", "B", "C"}, got.Names, "empty name falls back to code")
}

func TestCalculateCorrelation_Alignment(t *testing.T) {
	a := genSeries("2024-01-01", 40, zigzag)
	// B has one extra leading day, then the exact same path as A
	bVals := []float64{1.0}
	for _, p := range a {
		bVals = append(bVals, p.Value)
	}
	b := dailySeries("2023-12-31", bVals...)

	funds := []contracts.FundSeries{{Code: "A", Points: a}, {Code: "B", Points: b}}

	byDate := CalculateCorrelation(funds, CorrelationOptions{Alignment: AlignByDate})
	require.NotNil(t, byDate)
	assert.InDelta(t, 1.0, byDate.Matrix[0][1], 1e-9)

	positional := CalculateCorrelation(funds, CorrelationOptions{Alignment: AlignPositional})
	require.NotNil(t, positional)
	assert.Equal(t, AlignPositional, positional.Alignment)
	assert.Less(t, positional.Matrix[0][1], 0.99)
}

func TestCalculateCorrelation_ZeroVariance(t *testing.T) {
	funds := []contracts.FundSeries{
		{Code: "A", Points: genSeries("2024-01-01", 30, flat)},
		{Code: "B", Points: genSeries("2024-01-01", 30, zigzag)},
	}

	got := CalculateCorrelation(funds, CorrelationOptions{})
	require.NotNil(t, got)

	assert.Equal(t, 0.0, got.Matrix[0][1])
	assert.Empty(t, got.HighCorrelations)
	assert.Equal(t, 100.0, got.DiversificationScore)
	assert.Equal(t, DefaultLabels().Correlation.Diversified, got.Suggestion)
}

func TestCalculateCorrelation_SortInvariant(t *testing.T) {
	a := genSeries("2024-01-01", 50, zigzag)
	b := genSeries("2024-01-01", 50, func(i int) float64 { return 1 + 0.05*math.Cos(float64(i)) })

	want := CalculateCorrelation([]contracts.FundSeries{{Code: "A", Points: a}, {Code: "B", Points: b}}, CorrelationOptions{})
	got := CalculateCorrelation([]contracts.FundSeries{{Code: "A", Points: reversed(a)}, {Code: "B", Points: reversed(b)}}, CorrelationOptions{})

	assert.Equal(t, want, got)
}

func TestCalculateCorrelation_NoOverlap(t *testing.T) {
	funds := []contracts.FundSeries{
		{Code: "A", Points: genSeries("2024-01-01", 30, zigzag)},
		{Code: "B", Points: genSeries("2025-01-01", 30, zigzag)},
	}

	assert.Nil(t, CalculateCorrelation(funds, CorrelationOptions{}), "no pair has common return dates")

	positional := CalculateCorrelation(funds, CorrelationOptions{Alignment: AlignPositional})
	require.NotNil(t, positional)
	assert.Empty(t, positional.InsufficientPairs)
}

func TestCalculateCorrelation_SparsePairExcluded(t *testing.T) {
	a := genSeries("2024-01-01", 60, zigzag)
	funds := []contracts.FundSeries{
		{Code: "A", Name: "A", Points: a},
		{Code: "B", Name: "B", Points: a},
		{Code: "C", Name: "C", Points: genSeries("2025-01-01", 60, zigzag)},
	}

	got := CalculateCorrelation(funds, CorrelationOptions{})
	require.NotNil(t, got)

	assert.InDelta(t, 1.0, got.Matrix[0][1], 1e-9)
	assert.Equal(t, 0.0, got.Matrix[0][2])
	assert.Equal(t, 0.0, got.Matrix[2][1])

	require.Len(t, got.InsufficientPairs, 2)
	assert.Equal(t, "A", got.InsufficientPairs[0].FundA)
	assert.Equal(t, "C", got.InsufficientPairs[0].FundB)
	assert.Equal(t, 0, got.InsufficientPairs[0].Overlap)
	assert.Equal(t, "B", got.InsufficientPairs[1].FundA)

	// only the A-B pair (ρ=1) is scored
	assert.Equal(t, 0.0, got.DiversificationScore)
	assert.Equal(t, DefaultLabels().Correlation.Concentrated, got.Suggestion)
}
