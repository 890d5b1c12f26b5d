package statistics

import (
	"sort"

	"github.com/wonny/fundlens/internal/contracts"
)

const (
	// MinBestDayPoints is the minimum series length for best-day analysis
	MinBestDayPoints = 60

	// 29~31 일은 모든 달에 존재하지 않으므로 제외
	maxDIPDay        = 28
	minDaySamples    = 3
	bestDayUnitPrice = 1000.0
)

// BestDIPDay evaluates buying a flat amount on every occurrence of each
// day-of-month 1..28 and valuing all of it at the latest NAV.
// Result is sorted by average return descending (ties keep day order).
func (e *Engine) BestDIPDay(points []contracts.NetValuePoint) []BestDIPDay {
	if len(points) < MinBestDayPoints {
		return []BestDIPDay{}
	}

	sorted := contracts.SortedPoints(points)
	latest := sorted[len(sorted)-1].Value

	byDay := make(map[int][]float64, maxDIPDay)
	for _, p := range sorted {
		if p.Value <= 0 {
			continue
		}
		t, ok := p.Time()
		if !ok || t.Day() > maxDIPDay {
			continue
		}
		byDay[t.Day()] = append(byDay[t.Day()], p.Value)
	}

	results := make([]BestDIPDay, 0, maxDIPDay)
	for day := 1; day <= maxDIPDay; day++ {
		navs := byDay[day]
		if len(navs) < minDaySamples {
			continue
		}

		var shares float64
		wins := 0
		for _, nav := range navs {
			shares += bestDayUnitPrice / nav
			if latest > nav {
				wins++
			}
		}
		invested := bestDayUnitPrice * float64(len(navs))
		avgReturn := (shares*latest - invested) / invested * 100
		winRate := float64(wins) / float64(len(navs)) * 100

		tier := dipDayTier(avgReturn, winRate)
		results = append(results, BestDIPDay{
			Day:            day,
			AvgReturn:      round(avgReturn, 2),
			WinRate:        round(winRate, 1),
			Samples:        len(navs),
			Tier:           tier,
			Recommendation: e.labels.DIPDayTiers[tier],
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].AvgReturn > results[j].AvgReturn
	})
	return results
}

func dipDayTier(avgReturn, winRate float64) DIPDayTier {
	switch {
	case avgReturn > 5 && winRate > 70:
		return TierPreferred
	case avgReturn > 0 && winRate > 50:
		return TierAcceptable
	default:
		return TierOrdinary
	}
}
