package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/carelink/booking-availability/internal/booking"
	"github.com/carelink/booking-availability/internal/config"
	"github.com/carelink/booking-availability/internal/db"
	"github.com/carelink/booking-availability/internal/logging"
	redisclient "github.com/carelink/booking-availability/internal/redis"
)

// The worker re-warms provider day-schedule caches on the same cadence the
// dashboards used to poll the booking API on, so availability reads stay at
// most one interval stale without every read hitting Postgres.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("schedule-refresh-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.RefreshInterval),
		zap.Int("horizon_days", cfg.RefreshHorizonDays))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
	}()
	logger.Info("connected to Redis")

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisAssignmentLocker(rdb, cfg.AssignLockTTL)
	cache := redisclient.NewScheduleCache(rdb, cfg.ScheduleCacheTTL)
	privacy := booking.PrivacyPolicy{Location: cfg.PrivacyLocation()}
	svc := booking.NewService(repo, locker, cache, privacy, logger)

	// Run once at startup
	runOnce(rootCtx, svc, cfg, logger)

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping schedule refresh worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, cfg config.Config, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	from := time.Now().In(cfg.PrivacyLocation()).Format("2006-01-02")

	refreshed, err := svc.RefreshSchedules(runCtx, from, cfg.RefreshHorizonDays)
	if err != nil {
		logger.Error("refresh run error", zap.Error(err))
		return
	}

	logger.Info("refresh run complete",
		zap.Int("schedules", refreshed),
		zap.Duration("elapsed", time.Since(start)))
}
