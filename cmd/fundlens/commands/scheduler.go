package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/internal/scheduler"
	"github.com/wonny/fundlens/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)

Example:
  go run ./cmd/fundlens scheduler start
  go run ./cmd/fundlens scheduler list
  go run ./cmd/fundlens scheduler run nav_collection`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- nav_collection: 평일 21:30 (기준가 증분 수집, NAV_COLLECTION_CRON)

quote_cache_cleanup 은 시세 캐시를 가진 api 프로세스 안에서 실행됩니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FundLens Scheduler ===")

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if a.cfg.MetricsEnabled {
		go func() {
			if err := a.metrics.Serve(ctx, a.cfg.MetricsPort); err != nil {
				a.log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	fmt.Println("Registered jobs:")
	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	fmt.Printf("Running job: %s\n", jobName)

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	if err := sched.RunJobNow(context.Background(), jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed", jobName))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %-22s %s\n", name, stats[name].Schedule)
	}
}

func initScheduler() (*app, *scheduler.Scheduler, error) {
	a, err := newApp(appOptions{})
	if err != nil {
		return nil, nil, err
	}

	sched, err := newScheduler(a, a.navCollectionJob())
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, sched, nil
}

func newScheduler(a *app, jobList ...scheduler.Job) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log, scheduler.WithMetrics(a.metrics))
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("add job: %w", err)
		}
	}
	return sched, nil
}

func (a *app) navCollectionJob() scheduler.Job {
	cfg := a.cfg.Scheduler
	return jobs.NewNavCollectionJob(a.collector(), a.analysis, cfg.WatchedCodes, cfg.NavCollectionCron, a.log)
}
