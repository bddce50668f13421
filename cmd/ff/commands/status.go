package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
	"github.com/ftsfr/wrds-crsp-compustat/internal/storage/pgstore"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "마지막 실행 및 저장소 상태",
	Long: `선택된 store의 마지막 실행 스냅샷을 보여줍니다.
--store postgres일 때는 DB 연결 상태와 스키마 버전도 표시합니다.

Example:
  go run ./cmd/ff status
  go run ./cmd/ff status --store postgres`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStores(ctx, env)
	if err != nil {
		return err
	}
	defer st.Close()

	if st.db != nil {
		fmt.Println("🗄️  Database")
		PrintSeparator()
		health, err := st.db.HealthCheck(ctx)
		if err != nil {
			PrintError("Database unreachable: " + err.Error())
		} else {
			PrintKeyValue("Ping", health.ResponseTime.String(), 12)
			PrintKeyValue("Conns", fmt.Sprintf("%d/%d", health.Stats.TotalConns, health.Stats.MaxConns), 12)
		}
		if version, dirty, err := pgstore.MigrationVersion(env.cfg.Database.URL); err == nil {
			PrintKeyValue("Schema", fmt.Sprintf("v%d (dirty: %v)", version, dirty), 12)
		}
		fmt.Println()
	}

	fmt.Println("📈 Last run")
	PrintSeparator()
	snapshot, err := st.LatestSnapshot(ctx)
	if errors.Is(err, contracts.ErrNotFound) {
		PrintInfo("No run recorded yet (run `ff run`)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	PrintKeyValue("Run ID", snapshot.RunID, 12)
	PrintKeyValue("Stage", snapshot.Stage.String(), 12)
	PrintKeyValue("At", time.Unix(snapshot.Timestamp, 0).Format(time.DateTime), 12)
	PrintKeyValue("Methodology", snapshot.MethodologyHash, 12)

	if snapshot.MethodologyHash != "" {
		if o, err := newOrchestrator(env, st, nil, false); err == nil && o.MethodologyHash() != snapshot.MethodologyHash {
			PrintWarning("현재 methodology가 마지막 실행과 다릅니다 (재계산 필요)")
		}
	}
	return nil
}
