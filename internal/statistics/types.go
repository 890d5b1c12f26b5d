package statistics

// =============================================================================
// Return / Risk
// =============================================================================

// ReturnAnalysis is a return/risk snapshot of one NAV series
// Percent fields are already multiplied by 100.
type ReturnAnalysis struct {
	TotalReturn      float64 `json:"total_return"`       // % (2dp)
	AnnualizedReturn float64 `json:"annualized_return"`  // % (2dp)
	DailyReturn      float64 `json:"daily_return"`       // 평균 일간 수익률 % (4dp)
	Volatility       float64 `json:"volatility"`         // 연율화 변동성 % (2dp)
	MaxDrawdown      float64 `json:"max_drawdown"`       // % (2dp), 0 ~ 100
	MaxDrawdownStart string  `json:"max_drawdown_start"` // 고점 날짜
	MaxDrawdownEnd   string  `json:"max_drawdown_end"`   // 저점 날짜
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	TradingDays      int     `json:"trading_days"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
}

// =============================================================================
// Scoring
// =============================================================================

// Grade is the letter grade of a FundScore
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// FundScore is a composite 0~100 score derived from a ReturnAnalysis
type FundScore struct {
	TotalScore       float64 `json:"total_score"`
	ReturnScore      float64 `json:"return_score"`
	RiskScore        float64 `json:"risk_score"`
	StabilityScore   float64 `json:"stability_score"`
	ConsistencyScore float64 `json:"consistency_score"`
	Level            Grade   `json:"level"`
	Recommendation   string  `json:"recommendation"`
}

// =============================================================================
// Dollar-cost averaging
// =============================================================================

// Frequency is the contribution cadence of a DCA plan
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
)

// Valid reports whether f is a supported cadence
func (f Frequency) Valid() bool {
	return f == FrequencyMonthly || f == FrequencyWeekly
}

// DIPRecord is one simulated contribution
type DIPRecord struct {
	Date         string  `json:"date"`
	NAV          float64 `json:"nav"`
	Amount       float64 `json:"amount"`
	Shares       float64 `json:"shares"`        // 이번 회차 매수 좌수
	TotalShares  float64 `json:"total_shares"`  // 누적 좌수
	TotalCost    float64 `json:"total_cost"`    // 누적 투입금
	CurrentValue float64 `json:"current_value"` // 회차 시점 평가금액
	ReturnRate   float64 `json:"return_rate"`   // 회차 시점 누적 수익률 %
}

// DIPSimulation is the result of a simulated DCA run
type DIPSimulation struct {
	Frequency        Frequency   `json:"frequency"`
	Amount           float64     `json:"amount"`
	Periods          int         `json:"periods"`
	TotalInvested    float64     `json:"total_invested"`
	TotalShares      float64     `json:"total_shares"`
	AverageCost      float64     `json:"average_cost"`
	FinalNAV         float64     `json:"final_nav"`
	CurrentValue     float64     `json:"current_value"`
	TotalReturn      float64     `json:"total_return"` // 평가손익 (금액)
	ReturnRate       float64     `json:"return_rate"`  // %
	AnnualizedReturn float64     `json:"annualized_return"`
	StartDate        string      `json:"start_date"`
	EndDate          string      `json:"end_date"`
	Records          []DIPRecord `json:"records"`
}

// DIPDayTier ranks a day-of-month for DCA
type DIPDayTier string

const (
	TierPreferred  DIPDayTier = "preferred"
	TierAcceptable DIPDayTier = "acceptable"
	TierOrdinary   DIPDayTier = "ordinary"
)

// BestDIPDay summarises averaging-in on one calendar day of the month
type BestDIPDay struct {
	Day            int        `json:"day"`
	AvgReturn      float64    `json:"avg_return"` // %
	WinRate        float64    `json:"win_rate"`   // %
	Samples        int        `json:"samples"`
	Tier           DIPDayTier `json:"tier"`
	Recommendation string     `json:"recommendation"`
}

// =============================================================================
// Correlation
// =============================================================================

// Alignment selects how two return series are paired
type Alignment string

const (
	// AlignByDate pairs returns that fall on the same calendar date
	AlignByDate Alignment = "date"
	// AlignPositional pairs returns index-by-index over the common prefix
	AlignPositional Alignment = "positional"
)

// CorrelationOptions tunes CalculateCorrelation
type CorrelationOptions struct {
	Alignment Alignment `json:"alignment"`
}

// CorrelationPair is an upper-triangle pair (high correlation or too little overlap)
type CorrelationPair struct {
	FundA       string  `json:"fund_a"`
	FundB       string  `json:"fund_b"`
	NameA       string  `json:"name_a"`
	NameB       string  `json:"name_b"`
	Correlation float64 `json:"correlation"`
	Overlap     int     `json:"overlap"` // 정렬된 수익률 개수
	Suggestion  string  `json:"suggestion,omitempty"`
}

// CorrelationAnalysis is the pairwise correlation view of several funds
type CorrelationAnalysis struct {
	Funds                []string          `json:"funds"`
	Names                []string          `json:"names"`
	Matrix               [][]float64       `json:"matrix"`
	HighCorrelations     []CorrelationPair `json:"high_correlations"`
	InsufficientPairs    []CorrelationPair `json:"insufficient_pairs"`
	DiversificationScore float64           `json:"diversification_score"`
	Suggestion           string            `json:"suggestion"`
	Alignment            Alignment         `json:"alignment"`
}

// =============================================================================
// Trend
// =============================================================================

// SignalType is the side of a trading signal
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
)

// SignalRule identifies which rule fired
type SignalRule string

const (
	RuleMABullish     SignalRule = "ma_bullish"
	RuleMABearish     SignalRule = "ma_bearish"
	RuleRSIOverbought SignalRule = "rsi_overbought"
	RuleRSIOversold   SignalRule = "rsi_oversold"
	RuleMACDBullish   SignalRule = "macd_bullish"
	RuleMACDBearish   SignalRule = "macd_bearish"
)

// TrendSignal is one fired rule
type TrendSignal struct {
	Type      SignalType `json:"type"`
	Rule      SignalRule `json:"rule"`
	Indicator string     `json:"indicator"`
	Strength  int        `json:"strength"`
	Reason    string     `json:"reason"`
}

// TrendDirection is the final classification
type TrendDirection string

const (
	TrendUp       TrendDirection = "up"
	TrendDown     TrendDirection = "down"
	TrendSideways TrendDirection = "sideways"
)

// MovingAverages holds the trailing SMA series and their latest values
type MovingAverages struct {
	MA5       []float64 `json:"ma5"`
	MA10      []float64 `json:"ma10"`
	MA20      []float64 `json:"ma20"`
	Current5  float64   `json:"current5"`
	Current10 float64   `json:"current10"`
	Current20 float64   `json:"current20"`
}

// MACD is the simplified scalar MACD (signal = macd × 0.2)
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// TrendPrediction is the technical view of one NAV series
type TrendPrediction struct {
	Trend          TrendDirection `json:"trend"`
	Strength       int            `json:"strength"`
	Confidence     int            `json:"confidence"`
	BuyStrength    int            `json:"buy_strength"`
	SellStrength   int            `json:"sell_strength"`
	MovingAverages MovingAverages `json:"moving_averages"`
	RSI            float64        `json:"rsi"`
	MACD           MACD           `json:"macd"`
	Signals        []TrendSignal  `json:"signals"`
	Support        float64        `json:"support"`
	Resistance     float64        `json:"resistance"`
	Summary        string         `json:"summary"`
}

// =============================================================================
// Allocation
// =============================================================================

// Category is the normalized fund category
type Category string

const (
	CategoryStock Category = "stock"
	CategoryMixed Category = "mixed"
	CategoryBond  Category = "bond"
	CategoryIndex Category = "index"
	CategoryQDII  Category = "qdii"
	CategoryMoney Category = "money"
	CategoryOther Category = "other"
)

// RiskLevel is the heuristic portfolio risk tier
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// CategoryWeight is the share of one category in the portfolio
type CategoryWeight struct {
	Category   Category `json:"category"`
	Label      string   `json:"label"`
	Amount     float64  `json:"amount"`
	Percentage float64  `json:"percentage"` // %
	Count      int      `json:"count"`
	Codes      []string `json:"codes"`
}

// TargetWeight is one bucket of the suggested template
type TargetWeight struct {
	Category   Category `json:"category"`
	Label      string   `json:"label"`
	Percentage float64  `json:"percentage"`
}

// AllocationAdvice is the allocation advisor output
type AllocationAdvice struct {
	TotalAmount          float64          `json:"total_amount"`
	Allocation           []CategoryWeight `json:"allocation"`
	RiskLevel            RiskLevel        `json:"risk_level"`
	RiskLabel            string           `json:"risk_label"`
	DiversificationScore float64          `json:"diversification_score"`
	Suggestions          []string         `json:"suggestions"`
	SuggestedAllocation  []TargetWeight   `json:"suggested_allocation"`
}
