package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/contracts"
	"github.com/wonny/fundlens/internal/external/eastmoney"
)

// fetchCmd groups upstream fetch commands
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "업스트림 펀드 데이터 조회/수집",
	Long: `업스트림(东方财富 / 天天基金)에서 데이터를 조회하거나 DB로 수집합니다.

Subcommands:
  history  - 기준가 이력 한 페이지 조회 (DB 불필요)
  quote    - 실시간 시세 조회 (DB 불필요)
  collect  - 기준가 이력 증분 수집 후 DB 저장
  compare  - 소스별(天天基金 / 东方财富 / 蚂蚁基金) 净值·추정가 비교 (DB 불필요)

Example:
  go run ./cmd/fundlens fetch history 161725 --size 30
  go run ./cmd/fundlens fetch quote 161725 005827
  go run ./cmd/fundlens fetch collect 161725
  go run ./cmd/fundlens fetch compare 000216`,
}

var (
	historyPage int
	historySize int
	historyHTML bool
	fetchJSON   bool
)

var (
	fetchHistoryCmd = &cobra.Command{
		Use:   "history <code>",
		Short: "기준가 이력 조회",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetchHistory,
	}

	fetchQuoteCmd = &cobra.Command{
		Use:   "quote <code> [code...]",
		Short: "실시간 시세 조회",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFetchQuote,
	}

	fetchCompareCmd = &cobra.Command{
		Use:   "compare <code>",
		Short: "데이터 소스별 净值/추정가 비교",
		Args:  cobra.ExactArgs(1),
		RunE:  runFetchCompare,
	}

	fetchCollectCmd = &cobra.Command{
		Use:   "collect [code...]",
		Short: "기준가 증분 수집 (코드 생략 시 저장된 전체 펀드)",
		RunE:  runFetchCollect,
	}
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.AddCommand(fetchHistoryCmd)
	fetchCmd.AddCommand(fetchQuoteCmd)
	fetchCmd.AddCommand(fetchCollectCmd)
	fetchCmd.AddCommand(fetchCompareCmd)

	fetchCmd.PersistentFlags().BoolVar(&fetchJSON, "json", false, "JSON 출력")
	fetchHistoryCmd.Flags().IntVar(&historyPage, "page", 1, "페이지 번호 (1부터, 최신순)")
	fetchHistoryCmd.Flags().IntVar(&historySize, "size", 20, "페이지 크기")
	fetchHistoryCmd.Flags().BoolVar(&historyHTML, "html", false, "HTML 표 소스 사용 (fallback 경로)")
}

func validateCodes(codes []string) error {
	for _, c := range codes {
		if !eastmoney.ValidCode(c) {
			return fmt.Errorf("%w: %q", eastmoney.ErrInvalidCode, c)
		}
	}
	return nil
}

func runFetchHistory(cmd *cobra.Command, args []string) error {
	code := args[0]
	if err := validateCodes(args); err != nil {
		return err
	}

	a, err := newApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var (
		points []contracts.NetValuePoint
		total  int
	)
	if historyHTML {
		points, total, err = a.eastmoney.FetchHistoryHTML(ctx, code, historyPage, historySize)
	} else {
		points, total, err = a.eastmoney.FetchHistory(ctx, code, historyPage, historySize)
	}
	if err != nil {
		return fmt.Errorf("fetch history %s: %w", code, err)
	}

	if fetchJSON {
		return PrintJSON(contracts.FundSeries{Code: code, Points: points})
	}

	unit := "records"
	if historyHTML {
		unit = "pages"
	}
	PrintHeader(fmt.Sprintf("NAV history %s (page %d, %d %s)", code, historyPage, total, unit))

	widths := []int{12, 10, 10}
	PrintTableHeader([]string{"Date", "NAV", "Change"}, widths)
	for i := len(points) - 1; i >= 0; i-- {
		p := points[i]
		change := "-"
		if p.Change != nil {
			change = pct(*p.Change)
		}
		PrintTableRow([]string{p.Date, num(p.Value, 4), change}, widths)
	}
	return nil
}

func runFetchQuote(cmd *cobra.Command, args []string) error {
	if err := validateCodes(args); err != nil {
		return err
	}

	a, err := newApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	quotes, err := a.eastmoney.FetchQuotes(ctx, args)
	if err != nil {
		return fmt.Errorf("fetch quotes: %w", err)
	}

	if fetchJSON {
		return PrintJSON(quotes)
	}

	codes := make([]string, 0, len(quotes))
	for c := range quotes {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	PrintHeader(fmt.Sprintf("Quotes (%d/%d)", len(quotes), len(args)))
	widths := []int{8, 24, 10, 12, 10, 8}
	PrintTableHeader([]string{"Code", "Name", "NAV", "NAV Date", "Current", "Day"}, widths)
	for _, c := range codes {
		q := quotes[c]
		PrintTableRow([]string{
			q.Code, q.Name, num(q.NAV, 4), q.NAVDate, num(q.CurrentValue, 4), pct(q.DayChange),
		}, widths)
	}
	for _, c := range args {
		if _, ok := quotes[c]; !ok {
			PrintError(fmt.Sprintf("%s: no data", c))
		}
	}
	return nil
}

func runFetchCompare(cmd *cobra.Command, args []string) error {
	code := args[0]
	if err := validateCodes(args); err != nil {
		return err
	}

	a, err := newApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cmp, err := a.eastmoney.CompareSources(ctx, code)
	if err != nil {
		return fmt.Errorf("compare sources %s: %w", code, err)
	}

	if fetchJSON {
		return PrintJSON(cmp)
	}

	PrintHeader(fmt.Sprintf("Source comparison %s %s", cmp.Code, cmp.Name))
	widths := []int{10, 10, 10, 9, 18}
	PrintTableHeader([]string{"Source", "NAV", "Estimate", "Change", "Time"}, widths)
	for _, row := range comparisonRows(cmp) {
		PrintTableRow(row, widths)
	}
	for _, r := range cmp.Sources {
		if r.Error != "" {
			PrintWarning(fmt.Sprintf("%s: %s", r.Source, r.Error))
		}
	}
	fmt.Println()
	PrintKeyValue("Estimate spread", num(cmp.EstimateSpread, 4), 16)
	return nil
}

// comparisonRows renders one row per source; failed sources show dashes
func comparisonRows(cmp *eastmoney.SourceComparison) [][]string {
	rows := make([][]string, 0, len(cmp.Sources))
	for _, r := range cmp.Sources {
		if !r.OK {
			rows = append(rows, []string{r.Source, "-", "-", "-", "-"})
			continue
		}
		nav, est := "-", "-"
		if r.NAV > 0 {
			nav = num(r.NAV, 4)
		}
		if r.Estimate > 0 {
			est = num(r.Estimate, 4)
		}
		rows = append(rows, []string{r.Source, nav, est, pct(r.Change), r.Time})
	}
	return rows
}

func runFetchCollect(cmd *cobra.Command, args []string) error {
	if err := validateCodes(args); err != nil {
		return err
	}

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	start := time.Now()

	results, err := a.collector().CollectAll(ctx, args)
	if err != nil && len(results) == 0 {
		return fmt.Errorf("collect: %w", err)
	}

	PrintHeader(fmt.Sprintf("NAV collection (%d funds)", len(results)))
	widths := []int{8, 8, 8, 12, 8}
	PrintTableHeader([]string{"Code", "Fetched", "Saved", "Latest", "Source"}, widths)
	for _, res := range results {
		if res.Error != nil {
			PrintError(fmt.Sprintf("%s: %v", res.Code, res.Error))
			continue
		}
		source := "json"
		if res.Fallback {
			source = "html"
		}
		PrintTableRow([]string{res.Code, fmt.Sprint(res.Fetched), fmt.Sprint(res.Saved), res.Latest, source}, widths)

		if res.Saved > 0 {
			if err := a.analysis.Invalidate(ctx, res.Code); err != nil {
				a.log.WithFund(res.Code).WithError(err).Warn("Failed to invalidate analysis cache")
			}
		}
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Completed in %.2fs", time.Since(start).Seconds()))
	return err
}
