package statistics

import "github.com/wonny/fundlens/internal/contracts"

// Engine is the statistics calculator bound to a label table and taxonomy.
// It holds no mutable state and is safe for concurrent use.
// ⭐ SSOT: 수익률/리스크/정투/상관/추세/배분 계산은 여기서만
type Engine struct {
	labels   Labels
	taxonomy Taxonomy
}

// NewEngine creates an engine; zero-valued arguments fall back to defaults
func NewEngine(labels Labels, taxonomy Taxonomy) *Engine {
	labels = DefaultLabels().Merge(labels)
	if len(taxonomy.Rules) == 0 {
		taxonomy = DefaultTaxonomy()
	}
	return &Engine{labels: labels, taxonomy: taxonomy}
}

// Labels returns the engine's label table
func (e *Engine) Labels() Labels {
	return e.labels
}

// Taxonomy returns the engine's category taxonomy
func (e *Engine) Taxonomy() Taxonomy {
	return e.taxonomy
}

var defaultEngine = NewEngine(DefaultLabels(), DefaultTaxonomy())

// CalculateReturnAnalysis computes return/risk metrics; nil when fewer than 2 points
func CalculateReturnAnalysis(points []contracts.NetValuePoint) *ReturnAnalysis {
	return defaultEngine.ReturnAnalysis(points)
}

// CalculateFundScore scores an analysis with the default labels
func CalculateFundScore(analysis ReturnAnalysis) FundScore {
	return defaultEngine.FundScore(analysis)
}

// SimulateDIP simulates dollar-cost averaging; nil when fewer than 10 points
func SimulateDIP(points []contracts.NetValuePoint, amount float64, frequency Frequency) *DIPSimulation {
	return defaultEngine.DIP(points, amount, frequency)
}

// AnalyzeBestDIPDay ranks day-of-month for DCA; empty when fewer than 60 points
func AnalyzeBestDIPDay(points []contracts.NetValuePoint) []BestDIPDay {
	return defaultEngine.BestDIPDay(points)
}

// CalculateCorrelation computes pairwise correlations; nil when fewer than 2 funds
func CalculateCorrelation(funds []contracts.FundSeries, opts CorrelationOptions) *CorrelationAnalysis {
	return defaultEngine.Correlation(funds, opts)
}

// PredictTrend classifies the short-term trend; nil when fewer than 30 points
func PredictTrend(points []contracts.NetValuePoint) *TrendPrediction {
	return defaultEngine.Trend(points)
}

// AnalyzeAllocation groups holdings by category with the default taxonomy
func AnalyzeAllocation(holdings []contracts.Holding) AllocationAdvice {
	return defaultEngine.Allocation(holdings)
}
