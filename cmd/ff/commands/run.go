package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ftsfr/wrds-crsp-compustat/internal/brain"
	"github.com/ftsfr/wrds-crsp-compustat/internal/contracts"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 파이프라인 실행 (S0-S7, 선택적으로 S8)",
	Long: `입력 추출본을 읽어 모든 출력을 다시 계산하고 저장합니다.

출력 (전체 교체):
  vwret, vwret_n        - 6개 버킷 월별 가중수익률/종목수
  FF_1993_factors       - SMB, HML
  FF_1993_nfirms        - 팩터별 종목수
  CRSP_monthly_stock_ret / _retx - long panel
  pipeline_snapshot     - 실행 스냅샷
  FF_1993.xlsx          - 감사용 워크북 (--workbook)

Example:
  go run ./cmd/ff run
  go run ./cmd/ff run --compare=false --skip-panels
  go run ./cmd/ff run --store postgres --run-id nightly-2024-01`,
	RunE: runPipeline,
}

var (
	runID          string
	runSkipPanels  bool
	runWithCompare bool
	runWorkbook    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runID, "run-id", "", "실행 ID (기본: UUID)")
	runCmd.Flags().BoolVar(&runSkipPanels, "skip-panels", false, "long panel 출력 생략")
	runCmd.Flags().BoolVar(&runWithCompare, "compare", true, "레퍼런스 팩터와 비교 (S8)")
	runCmd.Flags().BoolVar(&runWorkbook, "workbook", true, "감사용 xlsx 워크북 작성")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, env)
	if err != nil {
		return err
	}
	defer st.Close()

	orchestrator, err := newOrchestrator(env, st, nil, runWithCompare)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	PrintHeader("Fama-French 1993 Pipeline", [][2]string{
		{"Store", storeKind},
		{"Data", env.cfg.Data.Dir},
		{"Output", env.cfg.Data.OutputDir},
		{"Methodology", env.method.Meta.MethodologyID},
		{"Hash", orchestrator.MethodologyHash()[:12]},
	})

	result, err := orchestrator.Run(ctx, brain.RunConfig{
		RunID:      runID,
		SkipPanels: runSkipPanels,
	})
	if err != nil {
		PrintError(err.Error())
		if contracts.IsStructural(err) {
			PrintInfo("입력 추출본의 컬럼/날짜/숫자 형식을 확인하세요")
		}
		return err
	}

	printRunResult(result)

	if runWorkbook {
		path, err := st.files.WriteWorkbook(result.Results)
		if err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		PrintSuccess("Workbook: " + path)
	}

	if result.Comparison != nil {
		fmt.Println()
		fmt.Print(result.Comparison.ToSummary())
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Run %s completed in %.2fs", result.RunID, result.Duration.Seconds()))
	return nil
}

func printRunResult(result *brain.RunResult) {
	fmt.Println()
	fmt.Println("📊 Stages")
	widths := []int{18, 10, 10, 10}
	PrintTableHeader([]string{"Stage", "Input", "Output", "ms"}, widths)
	for _, stage := range contracts.AllStages() {
		r, ok := result.Snapshot.Results[stage.String()]
		if !ok {
			continue
		}
		PrintTableRow([]string{
			stage.String(),
			formatCount(r.InputCount),
			formatCount(r.OutputCount),
			fmt.Sprintf("%d", r.Duration),
		}, widths)
	}

	if q := result.QualitySnapshot; q != nil && !q.Passed {
		PrintWarning(fmt.Sprintf("입력 커버리지 기준 미달 (score %.2f)", q.QualityScore))
	}

	factors := result.Results.Factors
	if len(factors) == 0 {
		PrintWarning("팩터 월 없음")
		return
	}
	first, last := factors[0], factors[len(factors)-1]
	fmt.Println()
	PrintKeyValue("Months", fmt.Sprintf("%d (%s ~ %s)", len(factors), first.Month, last.Month), 10)
	PrintKeyValue("Last SMB", formatReturn(last.SMB), 10)
	PrintKeyValue("Last HML", formatReturn(last.HML), 10)
}
