package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/migrations"
	"github.com/wonny/fundlens/pkg/database"
)

// statusCmd reports backend connectivity
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "DB / Redis / 스키마 상태 확인",
	Long: `설정된 백엔드 연결 상태를 확인합니다.

표시 정보:
- PostgreSQL 응답 시간과 커넥션 풀 통계
- 미적용 마이그레이션
- 저장된 펀드 수
- Redis 사용 여부

Example:
  go run ./cmd/fundlens status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== FundLens Status ===")

	a, err := newApp(appOptions{})
	if err != nil {
		PrintError(err.Error())
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const w = 16
	PrintHeader("PostgreSQL")
	PrintKeyValue("URL", maskPassword(a.cfg.Database.URL), w)
	health, err := a.db.HealthCheck(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("ping failed: %v", err))
		return err
	}
	PrintKeyValue("Response time", health.ResponseTime.String(), w)
	PrintKeyValue("Connections", fmt.Sprintf("%d total / %d idle / %d max",
		health.Stats.TotalConns, health.Stats.IdleConns, health.Stats.MaxConns), w)

	pending, err := pendingMigrations(ctx, a.db)
	if err != nil {
		PrintWarning(fmt.Sprintf("schema check failed: %v", err))
	} else if len(pending) > 0 {
		PrintKeyValue("Pending schema", strings.Join(pending, ", "), w)
	} else {
		PrintKeyValue("Schema", "up to date", w)
	}

	if codes, err := a.navRepo.ListCodes(ctx); err == nil {
		PrintKeyValue("Funds", fmt.Sprint(len(codes)), w)
	}

	PrintHeader("Redis")
	if a.redis.Enabled() {
		PrintKeyValue("Status", "connected", w)
	} else {
		PrintKeyValue("Status", "disabled (no shared cache / rate limit)", w)
	}

	fmt.Println()
	PrintSuccess("Status check completed")
	return nil
}

// pendingMigrations lists embedded files not yet recorded in schema_migrations
func pendingMigrations(ctx context.Context, db *database.DB) ([]string, error) {
	files, err := database.MigrationFiles(migrations.FS)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, name := range files {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, name,
		).Scan(&exists)
		if err != nil {
			// schema_migrations 자체가 없으면 전부 미적용
			return files, nil
		}
		if !exists {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

// maskPassword hides the password part of a connection URL
func maskPassword(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 {
		return url
	}
	creds := url[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return url
	}
	return url[:scheme+3] + creds[:colon] + ":****" + url[at:]
}
