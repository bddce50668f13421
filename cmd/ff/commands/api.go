package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ftsfr/wrds-crsp-compustat/internal/api"
	"github.com/ftsfr/wrds-crsp-compustat/internal/api/handlers"
	"github.com/ftsfr/wrds-crsp-compustat/pkg/metrics"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `저장된 결과를 읽는 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                         - Health check (DB ping)
  GET  /metrics                        - Prometheus (METRICS_ENABLED)
  GET  /api/factors                    - SMB/HML (?from=&to=)
  GET  /api/portfolios                 - 6개 버킷 수익률 (?bucket=)
  GET  /api/firm-counts                - 팩터별 종목수
  GET  /api/pipeline/jobs              - 작업 통계
  POST /api/pipeline/jobs/{name}/run   - 작업 즉시 실행

Example:
  go run ./cmd/ff api
  go run ./cmd/ff api --port 8080 --with-scheduler
  go run ./cmd/ff api --store postgres`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "cron 스케줄 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ff API Server ===")

	// 1. Load config
	env, err := loadEnv()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		env.cfg.Port = apiPort
	}

	env.log.WithFields(map[string]interface{}{
		"port":  env.cfg.Port,
		"env":   env.cfg.Env,
		"store": storeKind,
	}).Info("Initializing API server")

	// 2. Stores
	ctx := context.Background()
	st, err := openStores(ctx, env)
	if err != nil {
		return err
	}
	defer st.Close()

	// 3. Metrics
	var m *metrics.Metrics
	if env.cfg.MetricsEnabled {
		m = metrics.New()
	}

	// 4. Scheduler (jobs are always registered for manual runs)
	sched, err := initScheduler(env, st, m)
	if err != nil {
		return err
	}
	if apiWithScheduler {
		sched.Start()
		defer sched.Stop()
	}

	// 5. Router
	deps := api.Dependencies{
		Factors:  handlers.NewFactorsHandler(st.Reader(), env.log),
		Pipeline: handlers.NewPipelineHandler(sched, env.log),
	}
	if m != nil {
		deps.Metrics = m.Handler()
	}
	if st.db != nil {
		deps.Health = st.db.Ping
	}
	router := api.NewRouter(deps, env.log)

	// 6. Create server
	server := api.New(env.cfg, env.log, router)

	// 7. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			env.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	env.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost%s\n", server.Addr())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	env.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	env.log.Info("Server stopped")
	return nil
}
