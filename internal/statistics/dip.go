package statistics

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/fundlens/internal/contracts"
)

const (
	// MinDIPPoints is the minimum series length for a DCA simulation
	MinDIPPoints = 10
	daysPerYear  = 365
)

// DIP simulates a fixed-amount plan that buys on the first point of every new
// period (month or week). NAV ≤ 0 points are skipped and do not consume the
// period. Returns nil when the series is too short, the frequency or amount is
// invalid, or no contribution happened.
func (e *Engine) DIP(points []contracts.NetValuePoint, amount float64, frequency Frequency) *DIPSimulation {
	if len(points) < MinDIPPoints || !frequency.Valid() || amount <= 0 {
		return nil
	}

	sorted := contracts.SortedPoints(points)

	var (
		lastKey     string
		totalShares float64
		totalCost   float64
		firstDate   string
		records     []DIPRecord
	)

	for _, p := range sorted {
		key, ok := periodKey(p.Date, frequency)
		if !ok || key == lastKey {
			continue
		}
		if p.Value <= 0 {
			continue
		}
		lastKey = key

		shares := amount / p.Value
		totalShares += shares
		totalCost += amount
		if firstDate == "" {
			firstDate = p.Date
		}

		value := totalShares * p.Value
		rate := 0.0
		if totalCost > 0 {
			rate = (value - totalCost) / totalCost * 100
		}

		records = append(records, DIPRecord{
			Date:         p.Date,
			NAV:          p.Value,
			Amount:       amount,
			Shares:       round(shares, 4),
			TotalShares:  round(totalShares, 4),
			TotalCost:    round(totalCost, 2),
			CurrentValue: round(value, 2),
			ReturnRate:   round(rate, 2),
		})
	}

	if len(records) == 0 {
		return nil
	}

	final := sorted[len(sorted)-1]
	currentValue := totalShares * final.Value
	profit := currentValue - totalCost
	returnRate := 0.0
	if totalCost > 0 {
		returnRate = profit / totalCost * 100
	}

	avgCost := 0.0
	if totalShares > 0 {
		avgCost = totalCost / totalShares
	}

	return &DIPSimulation{
		Frequency:        frequency,
		Amount:           amount,
		Periods:          len(records),
		TotalInvested:    round(totalCost, 2),
		TotalShares:      round(totalShares, 4),
		AverageCost:      round(avgCost, 4),
		FinalNAV:         final.Value,
		CurrentValue:     round(currentValue, 2),
		TotalReturn:      round(profit, 2),
		ReturnRate:       round(returnRate, 2),
		AnnualizedReturn: round(dipAnnualized(firstDate, final.Date, returnRate), 2),
		StartDate:        firstDate,
		EndDate:          final.Date,
		Records:          records,
	}
}

// dipAnnualized uses wall-clock 365-day years from the first contribution to
// the final date. Falls back to the simple rate when years ≤ 0.
func dipAnnualized(from, to string, ratePct float64) float64 {
	start, err1 := time.Parse(contracts.DateLayout, from)
	end, err2 := time.Parse(contracts.DateLayout, to)
	if err1 != nil || err2 != nil {
		return ratePct
	}
	years := end.Sub(start).Hours() / 24 / daysPerYear
	if years <= 0 {
		return ratePct
	}
	growth := 1 + ratePct/100
	if growth <= 0 {
		return -100
	}
	return (math.Pow(growth, 1/years) - 1) * 100
}

// periodKey buckets a date: "YYYY-MM" monthly, "YYYY-W" weekly.
// Unparseable dates are skipped in weekly mode.
func periodKey(date string, frequency Frequency) (string, bool) {
	if frequency == FrequencyMonthly {
		if len(date) < 7 {
			return "", false
		}
		return date[:7], true
	}
	t, err := time.Parse(contracts.DateLayout, date)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d-%d", t.Year(), weekOfYear(t)), true
}

// weekOfYear counts weeks from Jan 1 with Sunday as the first weekday.
// week = ceil((dayIndex + weekday(Jan 1) + 1) / 7), dayIndex 0-based.
// Not ISO-8601: the first partial week of the year is week 1.
func weekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	dayIndex := t.YearDay() - 1
	offset := int(jan1.Weekday())
	return (dayIndex + offset + 1 + 6) / 7
}
