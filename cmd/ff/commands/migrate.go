package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftsfr/wrds-crsp-compustat/internal/storage/pgstore"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "PostgreSQL 스키마 마이그레이션 (ff.*)",
	Long: `내장된 SQL 마이그레이션을 DATABASE_URL에 적용합니다.

Subcommands:
  up       - 최신 버전까지 적용
  down     - 전체 롤백 (모든 ff 테이블 삭제)
  version  - 현재 버전 조회

Example:
  go run ./cmd/ff migrate up
  go run ./cmd/ff migrate version`,
}

var (
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "마이그레이션 적용",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			if err := pgstore.Migrate(url); err != nil {
				return err
			}
			PrintSuccess("Schema is up to date")
			return nil
		},
	}

	migrateDownCmd = &cobra.Command{
		Use:   "down",
		Short: "마이그레이션 롤백",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			if err := pgstore.MigrateDown(url); err != nil {
				return err
			}
			PrintSuccess("Schema dropped")
			return nil
		},
	}

	migrateVersionCmd = &cobra.Command{
		Use:   "version",
		Short: "현재 스키마 버전",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			version, dirty, err := pgstore.MigrationVersion(url)
			if err != nil {
				return err
			}
			fmt.Printf("version %d (dirty: %v)\n", version, dirty)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func databaseURL() (string, error) {
	env, err := loadEnv()
	if err != nil {
		return "", err
	}
	if !env.cfg.Database.Enabled() {
		return "", fmt.Errorf("DATABASE_URL is not set")
	}
	return env.cfg.Database.URL, nil
}
