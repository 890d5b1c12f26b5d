package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedPoints_DoesNotMutateInput(t *testing.T) {
	input := []NetValuePoint{
		{Date: "2024-01-03", Value: 1.3},
		{Date: "2024-01-01", Value: 1.1},
		{Date: "2024-01-02", Value: 1.2},
	}

	sorted := SortedPoints(input)

	assert.Equal(t, "2024-01-01", sorted[0].Date)
	assert.Equal(t, "2024-01-03", sorted[2].Date)
	assert.Equal(t, "2024-01-03", input[0].Date, "input must keep its order")
}

func TestSortedPoints_DuplicateDates(t *testing.T) {
	up, down := 0.5, -0.5
	a := NetValuePoint{Date: "2024-01-01", Value: 1}
	b := NetValuePoint{Date: "2024-01-01", Value: 2}
	c := NetValuePoint{Date: "2024-01-02", Value: 1.5}
	d := NetValuePoint{Date: "2024-01-02", Value: 1.5, Change: &up}
	e := NetValuePoint{Date: "2024-01-02", Value: 1.5, Change: &down}
	want := []NetValuePoint{a, b, c, e, d}

	orders := [][]NetValuePoint{
		{a, b, c, d, e},
		{b, a, e, d, c},
		{d, c, b, e, a},
		{e, d, c, b, a},
	}
	for _, in := range orders {
		assert.Equal(t, want, SortedPoints(in))
	}
}

func TestNetValuePoint_Time(t *testing.T) {
	ts, ok := NetValuePoint{Date: "2024-02-29"}.Time()
	assert.True(t, ok)
	assert.Equal(t, 29, ts.Day())

	_, ok = NetValuePoint{Date: "2024/02/29"}.Time()
	assert.False(t, ok)
}

func TestFundQuote_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		quote      FundQuote
		wantValue  float64
		wantChange float64
	}{
		{
			name:       "published nav wins",
			quote:      FundQuote{NAV: 1.5, NAVChange: 0.8, Estimate: 1.52, EstimateChange: 1.1},
			wantValue:  1.5,
			wantChange: 0.8,
		},
		{
			name:       "estimate fallback",
			quote:      FundQuote{Estimate: 1.52, EstimateChange: 1.1},
			wantValue:  1.52,
			wantChange: 1.1,
		},
		{
			name: "nothing available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.quote
			q.Resolve()
			assert.Equal(t, tt.wantValue, q.CurrentValue)
			assert.Equal(t, tt.wantChange, q.DayChange)
		})
	}
}
