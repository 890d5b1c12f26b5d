package statistics

import (
	"math"
	"sort"

	"github.com/wonny/fundlens/internal/contracts"
)

const (
	riskHighThreshold   = 70
	riskMediumThreshold = 40
	mixedRiskWeight     = 0.6

	concentrationLimit = 0.6 // 단일 유형 비중 상한
	singleFundLimit    = 0.4 // 단일 펀드 비중 상한
	minCategories      = 3
)

// suggestedTemplates is the fixed 4-bucket target per risk level (percent)
var suggestedTemplates = map[RiskLevel][]TargetWeight{
	RiskHigh: {
		{Category: CategoryStock, Percentage: 40},
		{Category: CategoryMixed, Percentage: 30},
		{Category: CategoryBond, Percentage: 20},
		{Category: CategoryMoney, Percentage: 10},
	},
	RiskMedium: {
		{Category: CategoryStock, Percentage: 30},
		{Category: CategoryMixed, Percentage: 30},
		{Category: CategoryBond, Percentage: 30},
		{Category: CategoryMoney, Percentage: 10},
	},
	RiskLow: {
		{Category: CategoryStock, Percentage: 20},
		{Category: CategoryMixed, Percentage: 20},
		{Category: CategoryBond, Percentage: 45},
		{Category: CategoryMoney, Percentage: 15},
	},
}

// Allocation groups holdings by resolved category and derives a risk level,
// a diversification score, suggestions and a target template.
// Holdings with a non-positive amount are ignored; an empty portfolio yields
// low risk, score 0 and the "no holdings" suggestion.
func (e *Engine) Allocation(holdings []contracts.Holding) AllocationAdvice {
	var total float64
	for _, h := range holdings {
		if h.Amount > 0 {
			total += h.Amount
		}
	}

	if total <= 0 {
		return AllocationAdvice{
			TotalAmount:          0,
			Allocation:           []CategoryWeight{},
			RiskLevel:            RiskLow,
			RiskLabel:            e.labels.RiskLevels[RiskLow],
			DiversificationScore: 0,
			Suggestions:          []string{e.labels.Allocation.Empty},
			SuggestedAllocation:  e.template(RiskLow),
		}
	}

	groups := make(map[Category]*CategoryWeight)
	var order []Category
	var topFund contracts.Holding
	funds := 0
	for _, h := range holdings {
		if h.Amount <= 0 {
			continue
		}
		funds++
		c := e.taxonomy.Resolve(h.Type)
		g, ok := groups[c]
		if !ok {
			g = &CategoryWeight{Category: c, Label: e.labels.Category(c), Codes: []string{}}
			groups[c] = g
			order = append(order, c)
		}
		g.Amount += h.Amount
		g.Count++
		g.Codes = append(g.Codes, h.Code)
		if h.Amount > topFund.Amount {
			topFund = h
		}
	}

	allocation := make([]CategoryWeight, 0, len(order))
	maxShare := 0.0
	var top CategoryWeight
	for _, c := range order {
		g := *groups[c]
		share := g.Amount / total
		if share > maxShare {
			maxShare = share
			top = g
		}
		g.Amount = round(g.Amount, 2)
		g.Percentage = round(share*100, 2)
		allocation = append(allocation, g)
	}
	sort.SliceStable(allocation, func(i, j int) bool {
		return allocation[i].Amount > allocation[j].Amount
	})

	pct := func(c Category) float64 {
		if g, ok := groups[c]; ok {
			return g.Amount / total * 100
		}
		return 0
	}

	riskScore := pct(CategoryStock) + pct(CategoryMixed)*mixedRiskWeight
	risk := RiskLow
	switch {
	case riskScore > riskHighThreshold:
		risk = RiskHigh
	case riskScore > riskMediumThreshold:
		risk = RiskMedium
	}

	diversification := math.Min(100, float64(len(order))*15+(1-maxShare)*50)

	var suggestions []string
	if maxShare > concentrationLimit {
		suggestions = append(suggestions,
			e.labels.allocationf(e.labels.Allocation.Concentrated, top.Label, maxShare*100))
	}
	if fundShare := topFund.Amount / total; funds > 1 && fundShare > singleFundLimit {
		name := topFund.Name
		if name == "" {
			name = topFund.Code
		}
		suggestions = append(suggestions,
			e.labels.allocationf(e.labels.Allocation.SingleFund, name, fundShare*100))
	}
	if len(order) < minCategories {
		suggestions = append(suggestions, e.labels.Allocation.FewCategories)
	}
	switch risk {
	case RiskHigh:
		suggestions = append(suggestions, e.labels.Allocation.HighRisk)
	case RiskLow:
		if pct(CategoryStock)+pct(CategoryMixed)+pct(CategoryIndex) < 20 {
			suggestions = append(suggestions, e.labels.Allocation.LowRisk)
		}
	}
	if _, ok := groups[CategoryBond]; !ok {
		suggestions = append(suggestions, e.labels.Allocation.NoBond)
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, e.labels.Allocation.Balanced)
	}

	return AllocationAdvice{
		TotalAmount:          round(total, 2),
		Allocation:           allocation,
		RiskLevel:            risk,
		RiskLabel:            e.labels.RiskLevels[risk],
		DiversificationScore: round(diversification, 1),
		Suggestions:          suggestions,
		SuggestedAllocation:  e.template(risk),
	}
}

func (e *Engine) template(risk RiskLevel) []TargetWeight {
	src := suggestedTemplates[risk]
	out := make([]TargetWeight, len(src))
	for i, w := range src {
		w.Label = e.labels.Category(w.Category)
		out[i] = w
	}
	return out
}
