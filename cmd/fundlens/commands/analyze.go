package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/navdata"
	"github.com/wonny/fundlens/internal/statistics"
)

var (
	analyzeFile      string
	analyzeDays      int
	analyzeAmount    float64
	analyzeFrequency string
	analyzeJSON      bool
)

// analyzeCmd runs the statistics engine on one fund
var analyzeCmd = &cobra.Command{
	Use:   "analyze <code>",
	Short: "펀드 통계 분석 (수익/위험, 스코어, 추세, 적립식)",
	Long: `저장된 기준가(DB) 또는 JSON 파일로 한 펀드를 분석합니다.

--file 을 주면 DB 없이 동작합니다. 파일 형식:
  {"code":"161725","name":"...","points":[{"date":"2024-01-02","value":1.23}, ...]}
또는 points 배열만.

Example:
  go run ./cmd/fundlens analyze 161725
  go run ./cmd/fundlens analyze 161725 --file points.json --amount 1000 --frequency weekly
  go run ./cmd/fundlens analyze 161725 --days 0 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "기준가 JSON 파일 (오프라인 분석)")
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", analysis.DefaultDays, "분석 기간 (0 = 전체)")
	analyzeCmd.Flags().Float64Var(&analyzeAmount, "amount", 1000, "적립 금액 (0 = 시뮬레이션 생략)")
	analyzeCmd.Flags().StringVar(&analyzeFrequency, "frequency", string(statistics.FrequencyMonthly), "적립 주기 (monthly|weekly)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 출력")
}

// analyzeOutput is the combined CLI result
type analyzeOutput struct {
	*analysis.Report
	DIP         *statistics.DIPSimulation `json:"dip,omitempty"`
	BestDIPDays []statistics.BestDIPDay   `json:"best_dip_days,omitempty"`
}

// readSeriesFile accepts a FundSeries object or a bare points array
func readSeriesFile(path, code string) (contracts.FundSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return contracts.FundSeries{}, fmt.Errorf("read %s: %w", path, err)
	}

	series := contracts.FundSeries{Code: code}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &series.Points)
	} else {
		err = json.Unmarshal(trimmed, &series)
	}
	if err != nil {
		return contracts.FundSeries{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if series.Code == "" {
		series.Code = code
	}
	return series, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	code := args[0]
	freq := statistics.Frequency(analyzeFrequency)
	if !freq.Valid() {
		return fmt.Errorf("frequency must be monthly or weekly")
	}

	opts := appOptions{}
	if analyzeFile != "" {
		series, err := readSeriesFile(analyzeFile, code)
		if err != nil {
			return err
		}
		store := navdata.NewMemoryStore()
		store.LoadSeries(series)
		opts = appOptions{offline: true, store: store}
		// 파일 입력은 기간 필터 없이 전체 사용
		if !cmd.Flags().Changed("days") {
			analyzeDays = 0
		}
	}

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	report, err := a.analysis.Report(ctx, code, analyzeDays)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", code, err)
	}

	out := analyzeOutput{Report: report}
	if ranked, err := a.analysis.BestDIPDay(ctx, code, analyzeDays); err == nil {
		out.BestDIPDays = ranked
	}
	if analyzeAmount > 0 {
		sim, err := a.analysis.DIP(ctx, code, analyzeDays, analyzeAmount, freq)
		if err != nil {
			return fmt.Errorf("simulate DIP: %w", err)
		}
		out.DIP = sim
	}

	if analyzeJSON {
		return PrintJSON(out)
	}
	printAnalysis(out)
	return nil
}

func printAnalysis(out analyzeOutput) {
	r := out.Returns
	title := out.Code
	if out.Name != "" {
		title += " " + out.Name
	}
	PrintHeader(fmt.Sprintf("%s  (%s ~ %s, %d points)", title, r.StartDate, r.EndDate, out.Points))

	const w = 18
	PrintKeyValue("Total return", pct(r.TotalReturn), w)
	PrintKeyValue("Annualized", pct(r.AnnualizedReturn), w)
	PrintKeyValue("Volatility", pct(r.Volatility), w)
	PrintKeyValue("Max drawdown", fmt.Sprintf("%s (%s → %s)", pct(r.MaxDrawdown), r.MaxDrawdownStart, r.MaxDrawdownEnd), w)
	PrintKeyValue("Sharpe", num(r.SharpeRatio, 2), w)
	PrintKeyValue("Sortino", num(r.SortinoRatio, 2), w)
	PrintKeyValue("Calmar", num(r.CalmarRatio, 2), w)

	s := out.Score
	PrintSeparator()
	PrintKeyValue("Score", fmt.Sprintf("%s [%s] %s", num(s.TotalScore, 1), s.Level, s.Recommendation), w)
	PrintKeyValue("  return/risk", fmt.Sprintf("%s / %s", num(s.ReturnScore, 1), num(s.RiskScore, 1)), w)
	PrintKeyValue("  stability/cons.", fmt.Sprintf("%s / %s", num(s.StabilityScore, 1), num(s.ConsistencyScore, 1)), w)

	if t := out.Trend; t != nil {
		PrintSeparator()
		PrintKeyValue("Trend", fmt.Sprintf("%s (strength %d, confidence %d%%)", t.Trend, t.Strength, t.Confidence), w)
		PrintKeyValue("RSI", num(t.RSI, 2), w)
		PrintKeyValue("Support/Resist.", fmt.Sprintf("%s / %s", num(t.Support, 4), num(t.Resistance, 4)), w)
		PrintKeyValue("Summary", t.Summary, w)
	} else {
		PrintWarning("Trend skipped: not enough points")
	}

	if d := out.DIP; d != nil {
		PrintSeparator()
		PrintKeyValue("DIP", fmt.Sprintf("%s × %s, %d periods", num(d.Amount, 0), d.Frequency, d.Periods), w)
		PrintKeyValue("  invested", num(d.TotalInvested, 2), w)
		PrintKeyValue("  value", num(d.CurrentValue, 2), w)
		PrintKeyValue("  return", fmt.Sprintf("%s (%s ann.)", pct(d.ReturnRate), pct(d.AnnualizedReturn)), w)
		PrintKeyValue("  avg cost", num(d.AverageCost, 4), w)
	}

	if len(out.BestDIPDays) > 0 {
		PrintSeparator()
		n := len(out.BestDIPDays)
		if n > 5 {
			n = 5
		}
		widths := []int{4, 10, 9, 8, 11}
		PrintTableHeader([]string{"Day", "AvgRet", "WinRate", "Samples", "Tier"}, widths)
		for _, d := range out.BestDIPDays[:n] {
			PrintTableRow([]string{
				strconv.Itoa(d.Day), pct(d.AvgReturn), pct(d.WinRate), strconv.Itoa(d.Samples), string(d.Tier),
			}, widths)
		}
	}
	fmt.Println()
}
