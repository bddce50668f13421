package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags (override the matching env values)
	dataDir         string
	outputDir       string
	dataFormat      string
	storeKind       string
	methodologyPath string
	verbose         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ff",
	Short: "Fama-French 1993 SMB/HML factor replication",
	Long: `ff CLI

CRSP 월별 수익률 + Compustat 연간 재무 + CCM 링크로
Fama-French (1993) 6개 포트폴리오와 SMB/HML 팩터를 재현합니다.

S0 → S1 → S2 → S3 → S4 → S5 → S6 → S7 (→ S8 레퍼런스 비교)

Usage:
  go run ./cmd/ff [command]

Examples:
  go run ./cmd/ff run
  go run ./cmd/ff run --store postgres
  go run ./cmd/ff compare
  go run ./cmd/ff reference pull`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "input extract directory (default DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "output directory (default OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&dataFormat, "format", "", "file format: parquet|csv (default DATA_FORMAT)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", storeFile, "result store: file|postgres")
	rootCmd.PersistentFlags().StringVar(&methodologyPath, "methodology", "", "methodology YAML (default: canonical Fama-French)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
