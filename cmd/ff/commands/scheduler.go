package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ftsfr/wrds-crsp-compustat/internal/scheduler"
	"github.com/ftsfr/wrds-crsp-compustat/internal/scheduler/jobs"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/metrics"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 재계산 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/ff scheduler start
  go run ./cmd/ff scheduler list
  go run ./cmd/ff scheduler run factor_recompute`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- reference_refresh: 매월 1일 05:00 (Ken French 레퍼런스)
- factor_recompute: FACTOR_SCHEDULE (기본 매월 2일 06:00, 전체 재계산)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler registers the reference refresh and factor recompute jobs
func initScheduler(env *appEnv, st *stores, m *metrics.Metrics) (*scheduler.Scheduler, error) {
	orchestrator, err := newOrchestrator(env, st, m, true)
	if err != nil {
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	sched := scheduler.New(env.log)

	jobList := []scheduler.Job{
		jobs.NewReferenceJob(newKenFrenchClient(env), st.ReferenceSink(), env.log),
		jobs.NewFactorJob(orchestrator, env.cfg.FactorSchedule, env.log),
	}
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ff Scheduler ===")

	env, err := loadEnv()
	if err != nil {
		return err
	}
	st, err := openStores(cmd.Context(), env)
	if err != nil {
		return err
	}
	defer st.Close()

	sched, err := initScheduler(env, st, nil)
	if err != nil {
		return err
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobTable(sched.GetJobStats(), sched.GetAllJobs())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	st, err := openStores(cmd.Context(), env)
	if err != nil {
		return err
	}
	defer st.Close()

	sched, err := initScheduler(env, st, nil)
	if err != nil {
		return err
	}
	// cron을 시작해야 다음 실행 시각이 계산됨
	sched.Start()
	defer sched.Stop()

	printJobTable(sched.GetJobStats(), sched.GetAllJobs())
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	env, err := loadEnv()
	if err != nil {
		return err
	}
	st, err := openStores(cmd.Context(), env)
	if err != nil {
		return err
	}
	defer st.Close()

	sched, err := initScheduler(env, st, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJob(jobName)
	if err != nil {
		return err
	}

	if !result.Success {
		PrintError(fmt.Sprintf("Job failed after %d attempt(s): %s", result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess(fmt.Sprintf("Job completed in %.2fs", result.Duration.Seconds()))
	return nil
}

func printJobTable(stats map[string]scheduler.JobStats, names []string) {
	fmt.Println("\nRegistered jobs:")
	widths := []int{20, 16, 20}
	PrintTableHeader([]string{"Job", "Schedule", "Next run"}, widths)
	for _, name := range names {
		s := stats[name]
		next := "-"
		if s.NextRun != nil {
			next = s.NextRun.Format(time.DateTime)
		}
		PrintTableRow([]string{name, s.Schedule, next}, widths)
	}
}
