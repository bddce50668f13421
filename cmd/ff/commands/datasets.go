package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// datasetsCmd represents the datasets command
var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "long panel만 생성 (ret, retx)",
	Long: `CRSP 월별 추출본에서 {unique_id, ds, y} long panel 두 개를 만듭니다.

  CRSP_monthly_stock_ret   - y = ret
  CRSP_monthly_stock_retx  - y = retx

Universe 필터만 적용하며 팩터는 계산하지 않습니다.

Example:
  go run ./cmd/ff datasets
  go run ./cmd/ff datasets --format csv`,
	RunE: runDatasets,
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}

func runDatasets(cmd *cobra.Command, args []string) error {
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

	orchestrator, err := newOrchestrator(env, st, nil, false)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	ret, retx, err := orchestrator.Datasets(ctx)
	if err != nil {
		return fmt.Errorf("build datasets: %w", err)
	}

	PrintSuccess(fmt.Sprintf("%s: %s rows", contracts.DatasetPanelRet, formatCount(len(ret))))
	PrintSuccess(fmt.Sprintf("%s: %s rows", contracts.DatasetPanelRetx, formatCount(len(retx))))
	return nil
}
