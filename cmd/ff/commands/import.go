package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftsfr/wrds-crsp-compustat/internal/brain"
	"github.com/ftsfr/wrds-crsp-compustat/internal/storage/filestore"
	"github.com/ftsfr/wrds-crsp-compustat/internal/storage/pgstore"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "파일 추출본을 PostgreSQL로 적재",
	Long: `DATA_DIR의 세 추출본(CRSP 월별, Compustat, CCM 링크)을 읽어
ff 스키마 입력 테이블을 하나의 트랜잭션으로 교체합니다.

이후 --store postgres로 실행할 수 있습니다.

Example:
  go run ./cmd/ff import
  go run ./cmd/ff import --data-dir ./_data --format csv --migrate`,
	RunE: runImport,
}

var importMigrate bool

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importMigrate, "migrate", false, "적재 전 마이그레이션 적용")
}

func runImport(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := openDB(ctx, env)
	if err != nil {
		return err
	}
	defer db.Close()

	if importMigrate {
		if err := pgstore.Migrate(env.cfg.Database.URL); err != nil {
			return err
		}
	}

	// 파일 store에서 읽기 (--store와 무관)
	files, err := filestore.New(env.cfg.Data.Dir, env.cfg.Data.OutputDir, filestore.Format(env.cfg.Data.Format), env.log)
	if err != nil {
		return fmt.Errorf("open file store: %w", err)
	}
	reader, err := brain.NewOrchestrator(files, files, env.method, env.log)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}
	inputs, err := reader.LoadInputs(ctx)
	if err != nil {
		return err
	}

	if err := pgstore.New(db, env.log).ImportInputs(ctx, inputs); err != nil {
		return fmt.Errorf("import inputs: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Imported %s security months, %s fundamentals, %s links",
		formatCount(len(inputs.Securities)), formatCount(len(inputs.Fundamentals)), formatCount(len(inputs.Links))))
	return nil
}
