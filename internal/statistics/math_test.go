package statistics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name   string
		in     float64
		places int32
		want   float64
	}{
		{"half away from zero", 1.005, 2, 1.01},
		{"negative half", -2.5, 0, -3},
		{"four places", 0.123456, 4, 0.1235},
		{"NaN collapses", math.NaN(), 2, 0},
		{"Inf collapses", math.Inf(1), 2, 0},
		{"-Inf collapses", math.Inf(-1), 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, round(tt.in, tt.places))
		})
	}
}

func TestDailyReturns(t *testing.T) {
	assert.Empty(t, DailyReturns(nil))
	assert.Empty(t, DailyReturns([]float64{1}))

	got := DailyReturns([]float64{1, 1.1, 0, 2})
	assert.Len(t, got, 3)
	assert.InDelta(t, 0.1, got[0], 1e-12)
	assert.InDelta(t, -1, got[1], 1e-12)
	assert.Equal(t, 0.0, got[2], "zero previous value yields 0")
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	assert.Equal(t, []float64{2, 3, 4}, got)

	assert.Empty(t, SMA([]float64{1, 2}, 3))
	assert.Empty(t, SMA([]float64{1, 2}, 0))
}

func TestEMA(t *testing.T) {
	// seeded at first value: constant input stays constant
	assert.InDelta(t, 5.0, EMA([]float64{5, 5, 5, 5}, 3), 1e-12)

	// k = 2/(3+1) = 0.5 → 1, 2*0.5+1*0.5=1.5, 3*0.5+1.5*0.5=2.25
	assert.InDelta(t, 2.25, EMA([]float64{1, 2, 3}, 3), 1e-12)

	assert.Equal(t, 0.0, EMA(nil, 12))
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 20)
	falling := make([]float64, 20)
	alternating := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i + 1)
		falling[i] = float64(20 - i)
		alternating[i] = float64(1 + i%2)
	}

	tests := []struct {
		name string
		vals []float64
		want float64
	}{
		{"too short is neutral", []float64{1, 2, 3}, 50},
		{"no loss is 100", rising, 100},
		{"no gain is 0", falling, 0},
		{"balanced is 50", alternating, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RSI(tt.vals, 14), 1e-9)
		})
	}
}

func TestPopStdDev(t *testing.T) {
	// population: divide by n
	assert.InDelta(t, 2.0, popStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Equal(t, 0.0, popStdDev(nil))
}
