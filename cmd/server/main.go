package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/repledger/internal/adapter/httpserver"
	"github.com/pscheid92/repledger/internal/adapter/postgres"
	"github.com/pscheid92/repledger/internal/adapter/redis"
	"github.com/pscheid92/repledger/internal/adapter/telegram"
	"github.com/pscheid92/repledger/internal/app"
	"github.com/pscheid92/repledger/internal/domain"
	"github.com/pscheid92/repledger/internal/metrics"
	"github.com/pscheid92/repledger/internal/platform/config"
	"github.com/pscheid92/repledger/internal/platform/logging"
	"github.com/pscheid92/repledger/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout = 10 * time.Second
	// scanLeaseSlack keeps the lease shorter than the interval so a crashed holder
	// does not cost the next scan.
	scanLeaseSlack = time.Minute
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	return cfg
}

func setupDB(cfg *config.Config, tracer *postgres.QueryTracer) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL, m)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupSink(cfg *config.Config, clock clockwork.Clock, reg prometheus.Registerer) domain.AnomalySink {
	if !cfg.AlertsEnabled() {
		slog.Info("Telegram alerts disabled, anomaly findings go to the log")
		return app.LogSink{}
	}

	bot, err := telegram.NewBot(cfg.TelegramBotToken)
	if err != nil {
		slog.Error("Failed to set up Telegram alerts", "error", err)
		os.Exit(1)
	}
	return telegram.NewAlertNotifier(bot, cfg.TelegramAlertChatIDs, clock, metrics.NewAlertMetrics(reg))
}

func scanLeaseTTL(interval time.Duration) time.Duration {
	if interval > 2*scanLeaseSlack {
		return interval - scanLeaseSlack
	}
	return interval / 2
}

// runGracefulShutdown stops the HTTP server, then background work, on SIGINT/SIGTERM.
func runGracefulShutdown(srv *httpserver.Server, cancelBackground context.CancelFunc, background *sync.WaitGroup) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// The detector releases its scan lease on the way out.
		cancelBackground()
		background.Wait()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat, cfg.InstanceID)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version)

	reg := metrics.NewRegistry()

	pool := setupDB(cfg, postgres.NewQueryTracer(metrics.NewDBMetrics(reg), clock))
	defer pool.Close()

	redisMetrics := metrics.NewRedisMetrics(reg)
	redisClient := setupRedis(cfg, redisMetrics)
	defer func() { _ = redisClient.Close() }()

	users := postgres.NewUserRepo(pool)
	tags := postgres.NewTagRepo(pool)
	evaluations := postgres.NewEvaluationRepo(pool)
	favorites := postgres.NewFavoriteRepo(pool)
	settingsRepo := postgres.NewSettingsRepo(pool)

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	var background sync.WaitGroup

	settingsCache := app.NewSettingsCache(settingsRepo, clock)
	if err := settingsCache.Refresh(backgroundCtx); err != nil {
		slog.Warn("Failed to load settings, using defaults", "error", err)
	}
	stopRefresh := settingsCache.StartRefreshTimer(backgroundCtx, cfg.SettingsRefreshInterval)
	defer stopRefresh()

	leaderboard := app.NewLeaderboardCache(evaluations, settingsCache, clock, metrics.NewLeaderboardMetrics(reg))
	stopEviction := leaderboard.StartEvictionTimer(cfg.CacheEvictionInterval)
	defer stopEviction()

	bus := redis.NewInvalidationBus(redisClient, cfg.InstanceID, leaderboard, settingsCache, redisMetrics)
	background.Go(func() { bus.Start(backgroundCtx) })

	ledger := app.NewLedger(users, evaluations, favorites, leaderboard, bus, clock, metrics.NewLedgerMetrics(reg))
	scores := app.NewScoreCalculator(evaluations, favorites, app.DefaultDecayPolicy(), clock)
	catalog := app.NewCatalog(tags)
	settings := app.NewSettingsService(settingsRepo, settingsCache, bus)

	policy := app.DefaultDetectorPolicy()
	policy.Interval = cfg.AnomalyScanInterval
	lease := redis.NewScanLease(redisClient, cfg.InstanceID, scanLeaseTTL(policy.Interval))
	detector := app.NewDetector(evaluations, setupSink(cfg, clock, reg), lease, policy, clock, metrics.NewDetectorMetrics(reg))
	background.Go(func() { detector.Run(backgroundCtx) })

	srv := httpserver.NewServer(cfg,
		httpserver.Services{
			Ledger:      ledger,
			Scores:      scores,
			Leaderboard: leaderboard,
			Catalog:     catalog,
			Settings:    settings,
		},
		[]httpserver.HealthCheck{
			{Name: "postgres", Check: postgres.Ping(pool)},
			{Name: "redis", Check: redis.Ping(redisClient)},
		},
		metrics.Handler(reg),
		metrics.NewHTTPMetrics(reg),
		clock,
	)

	done := runGracefulShutdown(srv, cancelBackground, &background)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
