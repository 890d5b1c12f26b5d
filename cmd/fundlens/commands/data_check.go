package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/navdata"
)

var (
	dataCheckDate string
	dataCheckJSON bool
)

// dataCheckCmd represents the data check command
var dataCheckCmd = &cobra.Command{
	Use:   "data-check",
	Short: "저장 기준가 품질 확인",
	Long: `DB에 저장된 펀드별 기준가 상태를 확인합니다.

확인 항목:
- 최신성 (최근 기준가 지연일)
- 이력 길이 (분석 가능 최소 포인트)
- 결측 구간 (연휴보다 긴 간격)

Example:
  go run ./cmd/fundlens data-check
  go run ./cmd/fundlens data-check --date 2024-12-31 --json`,
	RunE: runDataCheck,
}

func init() {
	rootCmd.AddCommand(dataCheckCmd)
	dataCheckCmd.Flags().StringVar(&dataCheckDate, "date", "", "기준일 YYYY-MM-DD (기본: 오늘)")
	dataCheckCmd.Flags().BoolVar(&dataCheckJSON, "json", false, "JSON 출력")
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	asOf := time.Now()
	if dataCheckDate != "" {
		t, err := time.Parse("2006-01-02", dataCheckDate)
		if err != nil {
			return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
		}
		asOf = t
	}

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := navdata.NewQualityGate(a.navRepo, navdata.QualityConfig{}).Check(context.Background(), asOf)
	if err != nil {
		return fmt.Errorf("quality check: %w", err)
	}

	if dataCheckJSON {
		return PrintJSON(snap)
	}

	PrintHeader(fmt.Sprintf("📊 NAV data quality (%s)", snap.Date))
	const w = 12
	PrintKeyValue("Funds", fmt.Sprintf("%d (valid %d)", snap.TotalFunds, snap.ValidFunds), w)
	PrintKeyValue("Fresh", pct(snap.Coverage["fresh"]*100), w)
	PrintKeyValue("History", pct(snap.Coverage["history"]*100), w)
	PrintKeyValue("Continuity", pct(snap.Coverage["continuity"]*100), w)
	PrintKeyValue("Score", num(snap.QualityScore, 4), w)
	PrintSeparator()

	widths := []int{8, 20, 7, 12, 6, 5, 20}
	PrintTableHeader([]string{"Code", "Name", "Points", "Latest", "Stale", "Gaps", "Issues"}, widths)
	for _, f := range snap.Funds {
		PrintTableRow([]string{
			f.Code, f.Name, strconv.Itoa(f.Points), f.Latest,
			strconv.Itoa(f.StaleDays), strconv.Itoa(f.Gaps), strings.Join(f.Issues, ","),
		}, widths)
	}
	fmt.Println()

	if snap.Passed {
		PrintSuccess("Quality gate passed")
	} else {
		PrintWarning("Quality gate failed: run `fetch collect` to refresh stale funds")
	}
	return nil
}
