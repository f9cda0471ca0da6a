package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"brokerage_backend/internal/email"
	"brokerage_backend/internal/events"
	"brokerage_backend/internal/marketing"
	marketingrepo "brokerage_backend/internal/marketing/repository"
	"brokerage_backend/internal/scheduler"
	"brokerage_backend/internal/whatsapp"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/db"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/phone"
	"brokerage_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if !cfg.IsSchedulerEnabled() {
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	if cfg.IsSMTPEnabled() {
		email.NewReporter(email.NewSMTPSender(cfg), cfg.GetOperatorReportEmail(), log).RegisterHandlers(eventBus)
	}

	sender, err := whatsapp.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize whatsapp client", "error", err)
		panic("failed to initialize whatsapp client: " + err.Error())
	}

	queue, err := scheduler.NewClient(cfg, cfg.GetOutreachMinDelay()+cfg.GetOutreachDelayJitter())
	if err != nil {
		log.Error("failed to initialize batch queue client", "error", err)
		panic("failed to initialize batch queue client: " + err.Error())
	}
	defer func() { _ = queue.Close() }()

	normalizer := phone.NewNormalizer(cfg.GetPhoneDefaultRegion())
	marketingModule, err := marketing.NewModule(pool, cfg, sender, queue, normalizer, eventBus, validator.New(normalizer), log)
	if err != nil {
		log.Error("failed to initialize marketing module", "error", err)
		panic("failed to initialize marketing module: " + err.Error())
	}

	recovery := scheduler.NewBatchRecovery(
		marketingrepo.New(pool),
		queue,
		log,
		getDurationEnv("BATCH_RECOVERY_INTERVAL", time.Minute),
		getDurationEnv("BATCH_ABANDON_AFTER", 6*time.Hour),
	)
	go recovery.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, marketingModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
