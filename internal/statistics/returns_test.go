package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundlens/internal/contracts"
)

func TestCalculateReturnAnalysis_TwoPoints(t *testing.T) {
	points := []contracts.NetValuePoint{
		{Date: "2024-01-01", Value: 1.0},
		{Date: "2024-01-02", Value: 1.1},
	}

	got := CalculateReturnAnalysis(points)
	require.NotNil(t, got)

	assert.Equal(t, 10.0, got.TotalReturn)
	assert.Equal(t, 1, got.TradingDays)
	assert.Equal(t, "2024-01-01", got.StartDate)
	assert.Equal(t, "2024-01-02", got.EndDate)
	assert.Equal(t, 0.0, got.MaxDrawdown)
	assert.Equal(t, 0.0, got.SharpeRatio, "single return has zero stdev")
}

func TestCalculateReturnAnalysis_DuplicateDateOrder(t *testing.T) {
	first := []contracts.NetValuePoint{
		{Date: "2024-01-01", Value: 1},
		{Date: "2024-01-01", Value: 2},
		{Date: "2024-01-02", Value: 1.5},
	}
	swapped := []contracts.NetValuePoint{first[1], first[0], first[2]}

	a := CalculateReturnAnalysis(first)
	b := CalculateReturnAnalysis(swapped)
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a, b)
	assert.Equal(t, 50.0, a.TotalReturn)
}

func TestCalculateReturnAnalysis_TooShort(t *testing.T) {
	assert.Nil(t, CalculateReturnAnalysis(nil))
	assert.Nil(t, CalculateReturnAnalysis([]contracts.NetValuePoint{{Date: "2024-01-01", Value: 1}}))
}

func TestCalculateReturnAnalysis_Drawdown(t *testing.T) {
	points := dailySeries("2024-03-01", 1.0, 1.2, 0.9, 1.1, 1.15)

	got := CalculateReturnAnalysis(points)
	require.NotNil(t, got)

	// peak 1.2 (03-02) → trough 0.9 (03-03) = 25%
	assert.Equal(t, 25.0, got.MaxDrawdown)
	assert.Equal(t, "2024-03-02", got.MaxDrawdownStart)
	assert.Equal(t, "2024-03-03", got.MaxDrawdownEnd)
	assert.Equal(t, 15.0, got.TotalReturn)
	assert.Equal(t, 4, got.TradingDays)
	assert.NotZero(t, got.CalmarRatio)
}

func TestCalculateReturnAnalysis_NoDrawdown(t *testing.T) {
	points := genSeries("2024-01-01", 30, func(i int) float64 { return 1 + 0.01*float64(i) })

	got := CalculateReturnAnalysis(points)
	require.NotNil(t, got)

	assert.Equal(t, 0.0, got.MaxDrawdown)
	assert.Equal(t, got.StartDate, got.MaxDrawdownStart)
	assert.Equal(t, got.StartDate, got.MaxDrawdownEnd)
	assert.Equal(t, 0.0, got.CalmarRatio)
	assert.Equal(t, 0.0, got.SortinoRatio, "no return below the risk-free rate")
	assert.Greater(t, got.AnnualizedReturn, got.TotalReturn)
}

func TestCalculateReturnAnalysis_SortInvariant(t *testing.T) {
	points := genSeries("2024-01-01", 90, zigzag)

	want := CalculateReturnAnalysis(points)
	got := CalculateReturnAnalysis(reversed(points))

	assert.Equal(t, want, got)
}

func TestCalculateReturnAnalysis_DoesNotMutate(t *testing.T) {
	points := reversed(genSeries("2024-01-01", 10, zigzag))
	before := append([]contracts.NetValuePoint(nil), points...)

	_ = CalculateReturnAnalysis(points)

	assert.Equal(t, before, points)
}

func TestCalculateReturnAnalysis_DrawdownBounds(t *testing.T) {
	series := [][]contracts.NetValuePoint{
		genSeries("2024-01-01", 120, zigzag),
		genSeries("2024-01-01", 50, func(i int) float64 { return 10 - 0.19*float64(i) }),
		dailySeries("2024-01-01", 5, 0.0001, 7, 0.5),
	}

	for _, points := range series {
		got := CalculateReturnAnalysis(points)
		require.NotNil(t, got)
		assert.GreaterOrEqual(t, got.MaxDrawdown, 0.0)
		assert.LessOrEqual(t, got.MaxDrawdown, 100.0)
		assert.LessOrEqual(t, got.MaxDrawdownStart, got.MaxDrawdownEnd)
	}
}

func TestCalculateReturnAnalysis_Idempotent(t *testing.T) {
	points := genSeries("2023-06-01", 200, zigzag)
	assert.Equal(t, CalculateReturnAnalysis(points), CalculateReturnAnalysis(points))
}
