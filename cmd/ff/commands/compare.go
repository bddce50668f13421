package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "저장된 팩터와 레퍼런스 팩터 비교 (S8)",
	Long: `마지막 run의 SMB/HML을 Ken French 레퍼런스와 월 단위로 조인하여
상관계수, RMSE, 평균 차이를 보고합니다.

레퍼런스는 'ff reference pull'로 먼저 받아 두어야 합니다.

Example:
  go run ./cmd/ff compare
  go run ./cmd/ff compare --from 1990-01 --json
  go run ./cmd/ff compare --strict`,
	RunE: runCompare,
}

var (
	compareFrom   string
	compareJSON   bool
	compareStrict bool
)

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareFrom, "from", "", "비교 시작 월 (YYYY-MM, 기본: REFERENCE_START)")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "JSON 출력")
	compareCmd.Flags().BoolVar(&compareStrict, "strict", false, "상관계수 미달 시 종료 코드 1")
}

func runCompare(cmd *cobra.Command, args []string) error {
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

	comparer, from := newComparer(env)
	if compareFrom != "" {
		if from, err = contracts.ParseMonth(compareFrom); err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}

	factors, err := st.Reader().ReadFactors(ctx)
	if err != nil {
		return fmt.Errorf("read factors (run 'ff run' first): %w", err)
	}
	reference, err := st.ReferenceSource().LoadReference(ctx)
	if err != nil {
		return fmt.Errorf("load reference (run 'ff reference pull' first): %w", err)
	}

	report := comparer.Compare(factors, reference, from)

	if compareJSON {
		data, err := report.ToJSON()
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(report.ToSummary())
	}

	if compareStrict && !report.Passed {
		return fmt.Errorf("reference correlation below %.2f", report.MinCorrelation)
	}
	return nil
}
