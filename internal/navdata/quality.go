package navdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fundlens/internal/contracts"
)

// QualityConfig holds quality gate thresholds
type QualityConfig struct {
	MaxStaleDays int     `yaml:"max_stale_days"` // 최신 기준가 허용 지연 (달력일)
	MinPoints    int     `yaml:"min_points"`     // 분석 가능 최소 포인트
	MaxGapDays   int     `yaml:"max_gap_days"`   // 연속 포인트 간 허용 간격 (연휴 포함)
	MinScore     float64 `yaml:"min_score"`      // Passed 판정 기준
}

// DefaultQualityConfig is tuned for daily-published mainland funds
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MaxStaleDays: 5,
		MinPoints:    30,
		MaxGapDays:   12,
		MinScore:     0.8,
	}
}

// FundQuality is the per-fund check result
type FundQuality struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Points    int      `json:"points"`
	Latest    string   `json:"latest,omitempty"`
	StaleDays int      `json:"stale_days"`
	Gaps      int      `json:"gaps"`
	Issues    []string `json:"issues,omitempty"`
}

// QualitySnapshot summarises stored NAV quality at a date
type QualitySnapshot struct {
	Date         string             `json:"date"`
	TotalFunds   int                `json:"total_funds"`
	ValidFunds   int                `json:"valid_funds"`
	Coverage     map[string]float64 `json:"coverage"`
	QualityScore float64            `json:"quality_score"`
	Passed       bool               `json:"passed"`
	Funds        []FundQuality      `json:"funds"`
}

// QualityGate validates stored NAV history
type QualityGate struct {
	repo   contracts.NavRepository
	config QualityConfig
}

// NewQualityGate creates a new QualityGate instance; zero thresholds take defaults
func NewQualityGate(repo contracts.NavRepository, cfg QualityConfig) *QualityGate {
	def := DefaultQualityConfig()
	if cfg.MaxStaleDays <= 0 {
		cfg.MaxStaleDays = def.MaxStaleDays
	}
	if cfg.MinPoints <= 0 {
		cfg.MinPoints = def.MinPoints
	}
	if cfg.MaxGapDays <= 0 {
		cfg.MaxGapDays = def.MaxGapDays
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = def.MinScore
	}
	return &QualityGate{repo: repo, config: cfg}
}

// Check validates every stored fund as of asOf
// ⭐ SSOT: 저장 기준가 품질 검증은 여기서만
func (g *QualityGate) Check(ctx context.Context, asOf time.Time) (*QualitySnapshot, error) {
	codes, err := g.repo.ListCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}

	asOf = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	snapshot := &QualitySnapshot{
		Date:       asOf.Format(contracts.DateLayout),
		TotalFunds: len(codes),
		Coverage:   make(map[string]float64),
		Funds:      make([]FundQuality, 0, len(codes)),
	}

	var fresh, history, continuity float64
	for _, code := range codes {
		series, err := g.repo.GetSeries(ctx, code, time.Time{}, asOf)
		if err != nil {
			return nil, fmt.Errorf("load series %s: %w", code, err)
		}

		fq := g.checkFund(series, asOf)
		snapshot.Funds = append(snapshot.Funds, fq)

		if fq.Points > 0 && fq.StaleDays <= g.config.MaxStaleDays {
			fresh++
		}
		if fq.Points >= g.config.MinPoints {
			history++
		}
		if fq.Points > 1 {
			continuity += 1 - float64(fq.Gaps)/float64(fq.Points-1)
		}
		if len(fq.Issues) == 0 {
			snapshot.ValidFunds++
		}
	}

	if n := float64(len(codes)); n > 0 {
		snapshot.Coverage["fresh"] = fresh / n
		snapshot.Coverage["history"] = history / n
		snapshot.Coverage["continuity"] = continuity / n
	}
	snapshot.QualityScore = calculateScore(snapshot.Coverage)
	snapshot.Passed = len(codes) > 0 && snapshot.QualityScore >= g.config.MinScore

	return snapshot, nil
}

func (g *QualityGate) checkFund(series *contracts.FundSeries, asOf time.Time) FundQuality {
	fq := FundQuality{Code: series.Code, Name: series.Name, Points: len(series.Points)}
	if fq.Points == 0 {
		fq.Issues = append(fq.Issues, "no_data")
		return fq
	}

	var prev time.Time
	for _, p := range series.Points {
		t, ok := p.Time()
		if !ok {
			continue
		}
		if !prev.IsZero() && int(t.Sub(prev).Hours()/24) > g.config.MaxGapDays {
			fq.Gaps++
		}
		prev = t
	}

	fq.Latest = series.Points[len(series.Points)-1].Date
	fq.StaleDays = int(asOf.Sub(prev).Hours() / 24)

	if fq.StaleDays > g.config.MaxStaleDays {
		fq.Issues = append(fq.Issues, "stale")
	}
	if fq.Points < g.config.MinPoints {
		fq.Issues = append(fq.Issues, "short_history")
	}
	if fq.Gaps > 0 {
		fq.Issues = append(fq.Issues, "gaps")
	}
	return fq
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		"fresh":      0.50, // 최신성 필수
		"history":    0.30, // 분석 가능 길이
		"continuity": 0.20, // 결측 구간
	}

	score := 0.0
	for key, weight := range weights {
		if cov, exists := coverage[key]; exists {
			score += cov * weight
		}
	}
	return score
}
