package statistics

import (
	"fmt"
	"strings"
)

// Labels holds every display string the engine emits.
// Business rules branch on enums only; text is looked up here.
// ⭐ SSOT: 화면 문구는 여기서만 (YAML 로 덮어쓰기 가능)
type Labels struct {
	Grades        map[Grade]string          `yaml:"grades" json:"grades"`
	DIPDayTiers   map[DIPDayTier]string     `yaml:"dip_day_tiers" json:"dip_day_tiers"`
	Categories    map[Category]string       `yaml:"categories" json:"categories"`
	RiskLevels    map[RiskLevel]string      `yaml:"risk_levels" json:"risk_levels"`
	Trends        map[TrendDirection]string `yaml:"trends" json:"trends"`
	SignalReasons map[SignalRule]string     `yaml:"signal_reasons" json:"signal_reasons"`
	Correlation   CorrelationLabels         `yaml:"correlation" json:"correlation"`
	Allocation    AllocationLabels          `yaml:"allocation" json:"allocation"`
}

// CorrelationLabels are the correlation suggestions
type CorrelationLabels struct {
	PairHigh     string `yaml:"pair_high" json:"pair_high"`
	PairModerate string `yaml:"pair_moderate" json:"pair_moderate"`
	Diversified  string `yaml:"diversified" json:"diversified"`
	Moderate     string `yaml:"moderate" json:"moderate"`
	Concentrated string `yaml:"concentrated" json:"concentrated"`
}

// AllocationLabels are the allocation suggestions.
// Concentrated takes (category label, percent); SingleFund takes (fund name, percent).
type AllocationLabels struct {
	Empty         string `yaml:"empty" json:"empty"`
	Concentrated  string `yaml:"concentrated" json:"concentrated"`
	SingleFund    string `yaml:"single_fund" json:"single_fund"`
	FewCategories string `yaml:"few_categories" json:"few_categories"`
	HighRisk      string `yaml:"high_risk" json:"high_risk"`
	LowRisk       string `yaml:"low_risk" json:"low_risk"`
	NoBond        string `yaml:"no_bond" json:"no_bond"`
	Balanced      string `yaml:"balanced" json:"balanced"`
}

// DefaultLabels returns the built-in Chinese display table
func DefaultLabels() Labels {
	return Labels{
		Grades: map[Grade]string{
			GradeS: "顶级基金，强烈推荐长期持有",
			GradeA: "优秀基金，值得重点关注",
			GradeB: "良好基金，可适当配置",
			GradeC: "一般基金，建议谨慎持有",
			GradeD: "较差基金，建议考虑替换",
		},
		DIPDayTiers: map[DIPDayTier]string{
			TierPreferred:  "推荐",
			TierAcceptable: "可选",
			TierOrdinary:   "一般",
		},
		Categories: map[Category]string{
			CategoryStock: "股票型",
			CategoryMixed: "混合型",
			CategoryBond:  "债券型",
			CategoryIndex: "指数型",
			CategoryQDII:  "QDII",
			CategoryMoney: "货币型",
			CategoryOther: "其他",
		},
		RiskLevels: map[RiskLevel]string{
			RiskHigh:   "高风险",
			RiskMedium: "中风险",
			RiskLow:    "低风险",
		},
		Trends: map[TrendDirection]string{
			TrendUp:       "短期趋势向上，可逢低关注",
			TrendDown:     "短期趋势向下，注意控制仓位",
			TrendSideways: "短期震荡整理，建议观望",
		},
		SignalReasons: map[SignalRule]string{
			RuleMABullish:     "均线多头排列",
			RuleMABearish:     "均线空头排列",
			RuleRSIOverbought: "RSI超买",
			RuleRSIOversold:   "RSI超卖",
			RuleMACDBullish:   "MACD金叉向上",
			RuleMACDBearish:   "MACD死叉向下",
		},
		Correlation: CorrelationLabels{
			PairHigh:     "高度相关，建议减持其中一只",
			PairModerate: "较为相关，建议适当调整",
			Diversified:  "组合分散度良好",
			Moderate:     "组合分散度一般，可适当增加低相关品种",
			Concentrated: "组合相关性较高，分散效果有限",
		},
		Allocation: AllocationLabels{
			Empty:         "暂无持仓，无法分析配置",
			Concentrated:  "%s占比%.1f%%，集中度过高，建议适当分散",
			SingleFund:    "%s占比%.1f%%，单只基金仓位过重",
			FewCategories: "基金类型较少，建议增加不同类型的基金",
			HighRisk:      "权益类占比较高，注意控制风险，可适当配置债券基金",
			LowRisk:       "整体配置偏保守，可根据风险承受能力适当增加权益类",
			NoBond:        "尚未配置债券类基金，建议配置一定比例以平滑波动",
			Balanced:      "当前配置较为均衡，继续保持",
		},
	}
}

// Merge overlays non-empty entries of other onto l
func (l Labels) Merge(other Labels) Labels {
	out := l.clone()
	for k, v := range other.Grades {
		out.Grades[k] = v
	}
	for k, v := range other.DIPDayTiers {
		out.DIPDayTiers[k] = v
	}
	for k, v := range other.Categories {
		out.Categories[k] = v
	}
	for k, v := range other.RiskLevels {
		out.RiskLevels[k] = v
	}
	for k, v := range other.Trends {
		out.Trends[k] = v
	}
	for k, v := range other.SignalReasons {
		out.SignalReasons[k] = v
	}
	mergeString(&out.Correlation.PairHigh, other.Correlation.PairHigh)
	mergeString(&out.Correlation.PairModerate, other.Correlation.PairModerate)
	mergeString(&out.Correlation.Diversified, other.Correlation.Diversified)
	mergeString(&out.Correlation.Moderate, other.Correlation.Moderate)
	mergeString(&out.Correlation.Concentrated, other.Correlation.Concentrated)
	mergeString(&out.Allocation.Empty, other.Allocation.Empty)
	mergeString(&out.Allocation.Concentrated, other.Allocation.Concentrated)
	mergeString(&out.Allocation.SingleFund, other.Allocation.SingleFund)
	mergeString(&out.Allocation.FewCategories, other.Allocation.FewCategories)
	mergeString(&out.Allocation.HighRisk, other.Allocation.HighRisk)
	mergeString(&out.Allocation.LowRisk, other.Allocation.LowRisk)
	mergeString(&out.Allocation.NoBond, other.Allocation.NoBond)
	mergeString(&out.Allocation.Balanced, other.Allocation.Balanced)
	return out
}

func (l Labels) clone() Labels {
	out := l
	out.Grades = cloneMap(l.Grades)
	out.DIPDayTiers = cloneMap(l.DIPDayTiers)
	out.Categories = cloneMap(l.Categories)
	out.RiskLevels = cloneMap(l.RiskLevels)
	out.Trends = cloneMap(l.Trends)
	out.SignalReasons = cloneMap(l.SignalReasons)
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// Category returns the display label of c, falling back to the enum value
func (l Labels) Category(c Category) string {
	if s, ok := l.Categories[c]; ok {
		return s
	}
	return string(c)
}

// Recommendation returns the display text of a grade
func (l Labels) Recommendation(g Grade) string {
	return l.Grades[g]
}

func (l Labels) allocationf(format string, args ...interface{}) string {
	if !strings.Contains(format, "%") {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// =============================================================================
// Category taxonomy
// =============================================================================

// Taxonomy maps raw upstream type strings to Category.
// Matching is exact first, then by substring in declaration order.
type Taxonomy struct {
	Rules []TaxonomyRule `yaml:"rules" json:"rules"`
}

// TaxonomyRule maps one raw keyword to a category
type TaxonomyRule struct {
	Match    string   `yaml:"match" json:"match"`
	Category Category `yaml:"category" json:"category"`
}

// DefaultTaxonomy covers the eastmoney FTYPE vocabulary
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{Rules: []TaxonomyRule{
		{Match: "股票型", Category: CategoryStock},
		{Match: "混合型", Category: CategoryMixed},
		{Match: "债券型", Category: CategoryBond},
		{Match: "指数型", Category: CategoryIndex},
		{Match: "QDII", Category: CategoryQDII},
		{Match: "货币型", Category: CategoryMoney},
		{Match: "股票", Category: CategoryStock},
		{Match: "混合", Category: CategoryMixed},
		{Match: "债券", Category: CategoryBond},
		{Match: "指数", Category: CategoryIndex},
		{Match: "货币", Category: CategoryMoney},
	}}
}

// Resolve maps a raw type to its Category; unknown types are CategoryOther.
// Enum values ("stock", "bond", ...) resolve to themselves.
func (t Taxonomy) Resolve(raw string) Category {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryOther
	}
	switch c := Category(strings.ToLower(raw)); c {
	case CategoryStock, CategoryMixed, CategoryBond, CategoryIndex, CategoryQDII, CategoryMoney, CategoryOther:
		return c
	}
	for _, r := range t.Rules {
		if r.Match == raw {
			return r.Category
		}
	}
	for _, r := range t.Rules {
		if r.Match != "" && strings.Contains(raw, r.Match) {
			return r.Category
		}
	}
	return CategoryOther
}
