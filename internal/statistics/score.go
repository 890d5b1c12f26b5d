package statistics

// Score weights: return 35%, risk 25%, stability 25%, consistency 15%
const (
	weightReturn      = 0.35
	weightRisk        = 0.25
	weightStability   = 0.25
	weightConsistency = 0.15
)

// FundScore turns a ReturnAnalysis into sub-scores, a total and a grade.
// Every score is clamped to [0, 100] whatever the input.
func (e *Engine) FundScore(a ReturnAnalysis) FundScore {
	returnScore := clamp(40+a.AnnualizedReturn*1.5, 0, 100)

	volScore := clamp(100-a.Volatility*2.5, 0, 100)
	ddScore := clamp(100-a.MaxDrawdown*2, 0, 100)
	riskScore := clamp((volScore+ddScore)/2, 0, 100)

	stabilityScore := clamp(30+a.SharpeRatio*35, 0, 100)
	consistencyScore := clamp(50+a.SortinoRatio*15+a.CalmarRatio*20, 0, 100)

	total := returnScore*weightReturn +
		riskScore*weightRisk +
		stabilityScore*weightStability +
		consistencyScore*weightConsistency
	total = clamp(round(total, 1), 0, 100)

	level := gradeFor(total)

	return FundScore{
		TotalScore:       total,
		ReturnScore:      round(returnScore, 1),
		RiskScore:        round(riskScore, 1),
		StabilityScore:   round(stabilityScore, 1),
		ConsistencyScore: round(consistencyScore, 1),
		Level:            level,
		Recommendation:   e.labels.Recommendation(level),
	}
}

// gradeFor maps a total score to S/A/B/C/D at 85/70/55/40
func gradeFor(total float64) Grade {
	switch {
	case total >= 85:
		return GradeS
	case total >= 70:
		return GradeA
	case total >= 55:
		return GradeB
	case total >= 40:
		return GradeC
	default:
		return GradeD
	}
}
