package statistics

import (
	"time"

	"github.com/wonny/fundlens/internal/contracts"
)

// dailySeries builds consecutive calendar-day points starting at start
func dailySeries(start string, vals ...float64) []contracts.NetValuePoint {
	t0, err := time.Parse(contracts.DateLayout, start)
	if err != nil {
		panic(err)
	}
	points := make([]contracts.NetValuePoint, len(vals))
	for i, v := range vals {
		points[i] = contracts.NetValuePoint{
			Date:  t0.AddDate(0, 0, i).Format(contracts.DateLayout),
			Value: v,
		}
	}
	return points
}

// genSeries builds n consecutive points with value f(i)
func genSeries(start string, n int, f func(i int) float64) []contracts.NetValuePoint {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = f(i)
	}
	return dailySeries(start, vals...)
}

func reversed(points []contracts.NetValuePoint) []contracts.NetValuePoint {
	out := make([]contracts.NetValuePoint, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

// zigzag is a deterministic non-monotonic NAV path
func zigzag(i int) float64 {
	return 1 + 0.002*float64(i) + 0.03*float64((i*7)%5) - 0.02*float64((i*3)%4)
}
