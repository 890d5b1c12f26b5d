package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/pkg/config"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fundlens",
	Short: "FundLens - 공모펀드 기준가 분석 엔진",
	Long: `FundLens Unified CLI

天天基金(东方财富) 기준가를 수집하고 수익/위험, 스코어,
적립식 시뮬레이션, 추세, 상관관계, 자산배분을 계산합니다.

Usage:
  go run ./cmd/fundlens [command]

Examples:
  go run ./cmd/fundlens api
  go run ./cmd/fundlens fetch quote 161725 005827
  go run ./cmd/fundlens analyze 161725 --file points.json
  go run ./cmd/fundlens scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}

// applyGlobalFlags lets persistent flags win over the environment
func applyGlobalFlags(cfg *config.Config) {
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
}
