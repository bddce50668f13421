package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ftsfr/wrds-crsp-compustat/internal/external/kenfrench"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/httputil"
)

// referenceCmd represents the reference command
var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Ken French 데이터 라이브러리",
	Long: `Ken French 데이터 라이브러리에서 레퍼런스 팩터를 받습니다.

Subcommands:
  pull  - F-F_Research_Data_Factors 월별 SMB/HML 저장
  list  - 라이브러리의 CSV 데이터셋 목록

Example:
  go run ./cmd/ff reference pull
  go run ./cmd/ff reference list --filter Portfolios`,
}

var (
	referencePullCmd = &cobra.Command{
		Use:   "pull",
		Short: "레퍼런스 팩터 다운로드 및 저장",
		RunE:  runReferencePull,
	}

	referenceListCmd = &cobra.Command{
		Use:   "list",
		Short: "데이터셋 목록",
		RunE:  runReferenceList,
	}

	referenceFilter string
)

func init() {
	rootCmd.AddCommand(referenceCmd)
	referenceCmd.AddCommand(referencePullCmd)
	referenceCmd.AddCommand(referenceListCmd)

	referenceListCmd.Flags().StringVar(&referenceFilter, "filter", "", "이름 부분 일치 필터")
}

func newKenFrenchClient(env *appEnv) *kenfrench.Client {
	httpClient := httputil.NewWithTimeout(env.log, env.cfg.KenFrench.Timeout).
		WithRateLimit(env.cfg.KenFrench.RateLimit, 1)
	return kenfrench.NewClient(httpClient, env.cfg.KenFrench.BaseURL, env.log)
}

func runReferencePull(cmd *cobra.Command, args []string) error {
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

	records, err := newKenFrenchClient(env).FetchReference(ctx)
	if err != nil {
		return fmt.Errorf("fetch reference: %w", err)
	}
	if err := st.ReferenceSink().WriteReference(ctx, records); err != nil {
		return fmt.Errorf("write reference: %w", err)
	}

	if len(records) > 0 {
		PrintSuccess(fmt.Sprintf("%s months (%s ~ %s) saved", formatCount(len(records)),
			records[0].Month, records[len(records)-1].Month))
	} else {
		PrintWarning("레퍼런스 행 없음")
	}
	return nil
}

func runReferenceList(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	datasets, err := newKenFrenchClient(env).ListDatasets(context.Background())
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}

	filtered := datasets[:0]
	for _, name := range datasets {
		if referenceFilter == "" || strings.Contains(strings.ToLower(name), strings.ToLower(referenceFilter)) {
			filtered = append(filtered, name)
		}
	}

	fmt.Printf("Datasets (%d):\n", len(filtered))
	PrintList(filtered)
	return nil
}
