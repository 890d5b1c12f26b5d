package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundlens/migrations"
	"github.com/wonny/fundlens/pkg/database"
)

var migrateDryRun bool

// migrateCmd applies the embedded schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 마이그레이션",
	Long: `내장된 migrations/*.sql 을 순서대로 적용합니다.
이미 적용된 버전은 schema_migrations 에 기록되어 건너뜁니다.

Example:
  go run ./cmd/fundlens migrate
  go run ./cmd/fundlens migrate --dry-run`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "적용 대상 파일만 출력")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateDryRun {
		files, err := database.MigrationFiles(migrations.FS)
		if err != nil {
			return err
		}
		fmt.Println("Migration files:")
		PrintList(files)
		return nil
	}

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	applied, err := a.db.Migrate(context.Background(), migrations.FS)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if len(applied) == 0 {
		PrintSuccess("Schema is up to date")
		return nil
	}
	PrintSuccess(fmt.Sprintf("Applied %d migration(s)", len(applied)))
	PrintList(applied)
	return nil
}
