package labelconfig

import (
	"fmt"
	"strings"

	"github.com/wonny/fundlens/internal/statistics"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	knownGrades = set(statistics.GradeS, statistics.GradeA, statistics.GradeB, statistics.GradeC, statistics.GradeD)
	knownTiers  = set(statistics.TierPreferred, statistics.TierAcceptable, statistics.TierOrdinary)
	knownRisks  = set(statistics.RiskHigh, statistics.RiskMedium, statistics.RiskLow)
	knownTrends = set(statistics.TrendUp, statistics.TrendDown, statistics.TrendSideways)
	knownRules  = set(
		statistics.RuleMABullish, statistics.RuleMABearish,
		statistics.RuleRSIOverbought, statistics.RuleRSIOversold,
		statistics.RuleMACDBullish, statistics.RuleMACDBearish,
	)
	knownCategories = set(
		statistics.CategoryStock, statistics.CategoryMixed, statistics.CategoryBond,
		statistics.CategoryIndex, statistics.CategoryQDII, statistics.CategoryMoney,
		statistics.CategoryOther,
	)
)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ID == "" {
		return ValidationError{"meta.id", "required"}
	}

	// === Labels ===
	if err := checkKeys("labels.grades", cfg.Labels.Grades, knownGrades); err != nil {
		return err
	}
	if err := checkKeys("labels.dip_day_tiers", cfg.Labels.DIPDayTiers, knownTiers); err != nil {
		return err
	}
	if err := checkKeys("labels.categories", cfg.Labels.Categories, knownCategories); err != nil {
		return err
	}
	if err := checkKeys("labels.risk_levels", cfg.Labels.RiskLevels, knownRisks); err != nil {
		return err
	}
	if err := checkKeys("labels.trends", cfg.Labels.Trends, knownTrends); err != nil {
		return err
	}
	if err := checkKeys("labels.signal_reasons", cfg.Labels.SignalReasons, knownRules); err != nil {
		return err
	}

	// (이름, 비율) 두 인자 포맷만 허용
	if err := validateFormat("labels.allocation.concentrated", cfg.Labels.Allocation.Concentrated); err != nil {
		return err
	}
	if err := validateFormat("labels.allocation.single_fund", cfg.Labels.Allocation.SingleFund); err != nil {
		return err
	}

	// === Taxonomy ===
	seen := make(map[string]bool, len(cfg.Taxonomy.Rules))
	for i, r := range cfg.Taxonomy.Rules {
		field := fmt.Sprintf("taxonomy.rules[%d]", i)
		if strings.TrimSpace(r.Match) == "" {
			return ValidationError{field + ".match", "required"}
		}
		if !knownCategories[r.Category] {
			return ValidationError{field + ".category", fmt.Sprintf("unknown category %q", r.Category)}
		}
		if seen[r.Match] {
			return ValidationError{field + ".match", fmt.Sprintf("duplicate match %q", r.Match)}
		}
		seen[r.Match] = true
	}

	return nil
}

func validateFormat(field, format string) error {
	if format == "" || !strings.Contains(format, "%") {
		return nil
	}
	if out := fmt.Sprintf(format, "x", 1.0); strings.Contains(out, "%!") {
		return ValidationError{field, "must take (name string, percent float) verbs"}
	}
	return nil
}

func checkKeys[K ~string](field string, m map[K]string, known map[K]bool) error {
	for k, v := range m {
		if !known[k] {
			return ValidationError{field, fmt.Sprintf("unknown key %q", k)}
		}
		if strings.TrimSpace(v) == "" {
			return ValidationError{fmt.Sprintf("%s.%s", field, k), "must not be empty"}
		}
	}
	return nil
}

func set[K comparable](keys ...K) map[K]bool {
	m := make(map[K]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}
