package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/campaign-scorer/internal/api"
	"github.com/wonny/campaign-scorer/internal/api/handlers"
	"github.com/wonny/campaign-scorer/internal/artifacts"
	"github.com/wonny/campaign-scorer/internal/history"
	"github.com/wonny/campaign-scorer/internal/inference"
	"github.com/wonny/campaign-scorer/internal/metrics"
	"github.com/wonny/campaign-scorer/internal/scheduler"
	"github.com/wonny/campaign-scorer/internal/scheduler/jobs"
	"github.com/wonny/campaign-scorer/pkg/config"
	"github.com/wonny/campaign-scorer/pkg/database"
	"github.com/wonny/campaign-scorer/pkg/logger"
	"github.com/wonny/campaign-scorer/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

아티팩트 로드에 실패해도 서버는 degraded 상태로 기동되고
예측 요청은 503 으로 거부됩니다.

Endpoints:
  GET  /                  - 서비스 정보
  GET  /health            - Health check
  GET  /model/info        - 모델 정보 (피처 수, 임계값)
  POST /predict           - 단건 예측 {"client": {...}}
  POST /predict/batch     - 배치 예측 {"clients": [...]}
  GET  /ws/predict        - WebSocket 스트리밍 예측
  GET  /api/predictions   - 최근 예측 이력
  GET  /api/predictions/summary - YES/NO 건수 + 최근 10건
  GET  /metrics           - Prometheus 메트릭

Example:
  go run ./cmd/scorer api
  go run ./cmd/scorer api --port 8080
  go run ./cmd/scorer api --stub-model 0.3`,
	RunE: runAPIServer,
}

var (
	apiPort   string
	apiStub   float64
	apiNoCron bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
	apiCmd.Flags().Float64Var(&apiStub, "stub-model", 0, "모델 파일 대신 고정 확률을 반환하는 stub 사용")
	apiCmd.Flags().BoolVar(&apiNoCron, "no-scheduler", false, "이력 정리 스케줄러 비활성화")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 1. Metrics
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// 2. Artifacts (실패 시 degraded)
	bundle, loadErr := artifacts.Load(ctx, artifactPaths(cfg), loadOptions(cmd, apiStub)...)

	// 3. Prediction history
	var checks []handlers.DependencyCheck
	store, db := openHistory(ctx, cfg, log)
	if db != nil {
		defer db.Close()
		checks = append(checks, handlers.DependencyCheck{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				_, err := db.HealthCheck(ctx)
				return err
			},
		})
	}

	// 4. Redis cache + rate limit
	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-process rate limiting without cache")
		rdb = nil
	}
	defer rdb.Close()

	opts := inference.Options{
		Workers:  cfg.Artifacts.Workers,
		CacheTTL: cfg.Redis.CacheTTL,
		History:  store,
		Metrics:  m,
		Logger:   log,
	}
	var limiter api.Limiter = api.NewLocalLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if rdb.Enabled() {
		opts.Cache = redis.NewCache(rdb, "scorer")
		limiter = api.NewRedisLimiter(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Check: rdb.Ping})
	}

	// 5. Service
	svc := inference.New(bundle, loadErr, opts)

	routerOpts := api.RouterOptions{
		Version:     Version,
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		Metrics:     m,
		Checks:      checks,
	}

	// 6. Scheduler
	if !apiNoCron {
		sched := scheduler.New(log)
		if err := sched.AddJob(jobs.NewHistoryPruneJob(svc, cfg.History.Retention, cfg.History.PruneSchedule, log)); err != nil {
			return fmt.Errorf("schedule history prune: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		routerOpts.Jobs = sched
	}

	// 7. Router + server
	router := api.NewRouter(svc, routerOpts, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s (model loaded: %v)\n", cfg.Port, svc.Ready())
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// openHistory connects the Postgres store, falling back to memory (db is then nil).
// History is never required to serve predictions.
func openHistory(ctx context.Context, cfg *config.Config, log *logger.Logger) (history.Store, *database.DB) {
	memory := func() (history.Store, *database.DB) {
		return history.NewMemory(0), nil
	}

	db, err := database.New(ctx, cfg)
	if errors.Is(err, database.ErrDisabled) {
		log.Info("DATABASE_URL not set, keeping prediction history in memory")
		return memory()
	}
	if err != nil {
		log.WithError(err).Warn("Database unavailable, keeping prediction history in memory")
		return memory()
	}

	version, err := database.Migrate(cfg.Database.URL, history.Migrations, history.MigrationsDir, database.MigrateUp)
	if err != nil {
		db.Close()
		log.WithError(err).Warn("History migrations failed, keeping prediction history in memory")
		return memory()
	}

	log.WithFields(map[string]interface{}{
		"schema_version": version,
		"max_conns":      db.Stats().MaxConns,
	}).Info("Prediction history stored in PostgreSQL")
	return history.NewPostgres(db.Pool), db
}
