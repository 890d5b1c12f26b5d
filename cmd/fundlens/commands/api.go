package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/api"
	"github.com/wonny/fundlens/internal/api/handlers"
	"github.com/wonny/fundlens/internal/external/eastmoney"
	"github.com/wonny/fundlens/internal/navdata"
	"github.com/wonny/fundlens/internal/realtime"
	"github.com/wonny/fundlens/internal/scheduler"
	"github.com/wonny/fundlens/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API + 실시간 시세 웹소켓 서버를 시작합니다.

Endpoints:
  GET    /health
  GET    /api/funds?codes=a,b              - 일괄 시세 (최대 50)
  GET    /api/funds/{code}/quote           - 실시간 시세
  GET    /api/funds/{code}/nav?days=       - 기준가 이력
  GET    /api/funds/{code}/analysis        - 수익/위험
  GET    /api/funds/{code}/score           - 종합 스코어
  GET    /api/funds/{code}/trend           - 추세 예측
  GET    /api/funds/{code}/best-dip-day    - 적립일 순위
  GET    /api/funds/{code}/dip             - 적립식 시뮬레이션
  GET    /api/funds/{code}/report          - 통합 리포트
  POST   /api/analysis/correlation         - 상관관계
  POST   /api/analysis/statistics          - 임의 기준가 분석
  GET    /api/portfolio/allocation         - 자산배분 분석
  GET    /api/portfolio/holdings
  PUT    /api/portfolio/holdings/{code}
  DELETE /api/portfolio/holdings/{code}
  GET    /api/data/quality                 - 저장 기준가 품질
  POST   /api/data/collect                 - 기준가 수집 트리거
  GET    /ws/quotes?codes=                 - 시세 스트림

Example:
  go run ./cmd/fundlens api
  go run ./cmd/fundlens api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort    string
	apiCollect bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
	apiCmd.Flags().BoolVar(&apiCollect, "collect", false, "nav_collection 작업도 이 프로세스에서 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FundLens API Server ===")

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quotes := a.quoteService()
	batchLimit := a.eastmoney.BatchLimit()
	stream := realtime.NewStream(quotes, a.cfg.Cache.QuoteTTL, batchLimit, eastmoney.ValidCode, a.metrics, log)

	router := api.NewRouter(api.Handlers{
		Health:    handlers.NewHealthHandler(quotes),
		Fund:      handlers.NewFundHandler(quotes, a.analysis, batchLimit, log),
		Analysis:  handlers.NewAnalysisHandler(a.analysis, batchLimit, log),
		Portfolio: handlers.NewPortfolioHandler(a.holdings, a.analysis, log),
		Data:      handlers.NewDataHandler(a.collector(), a.analysis, navdata.NewQualityGate(a.navRepo, navdata.QualityConfig{}), log),
		Stream:    stream,
	}, a.metrics, log)

	server := api.New(a.cfg, log, router)

	// 시세 캐시 정리는 캐시를 가진 이 프로세스에서 실행
	jobList := []scheduler.Job{jobs.NewQuoteCacheCleanupJob(quotes, a.cfg.Scheduler.CacheCleanupCron, log)}
	if apiCollect {
		jobList = append(jobList, a.navCollectionJob())
	}
	sched, err := newScheduler(a, jobList...)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if a.cfg.MetricsEnabled {
		go func() {
			if err := a.metrics.Serve(ctx, a.cfg.MetricsPort); err != nil {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	if a.cfg.MetricsEnabled {
		fmt.Printf("   Metrics on http://localhost:%s/metrics\n", a.cfg.MetricsPort)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
