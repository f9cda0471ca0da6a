package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"brokerage_backend/internal/email"
	"brokerage_backend/internal/events"
	apphttp "brokerage_backend/internal/http"
	"brokerage_backend/internal/http/router"
	"brokerage_backend/internal/marketing"
	"brokerage_backend/internal/marketing/dispatch"
	"brokerage_backend/internal/marketing/service"
	"brokerage_backend/internal/matching"
	"brokerage_backend/internal/scheduler"
	"brokerage_backend/internal/whatsapp"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/db"
	"brokerage_backend/platform/lock"
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
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.Migrate(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	normalizer := phone.NewNormalizer(cfg.GetPhoneDefaultRegion())
	val := validator.New(normalizer)

	locker, closeLocker := initLocker(cfg, log)
	defer closeLocker()

	sender, err := initSender(cfg, log)
	if err != nil {
		log.Error("failed to initialize whatsapp client", "error", err)
		panic("failed to initialize whatsapp client: " + err.Error())
	}

	enqueuer, closeEnqueuer := initBatchQueue(cfg, log)
	if closeEnqueuer != nil {
		defer closeEnqueuer()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	if cfg.IsSMTPEnabled() {
		reporter := email.NewReporter(email.NewSMTPSender(cfg), cfg.GetOperatorReportEmail(), log)
		reporter.RegisterHandlers(eventBus)
		log.Info("batch report mails enabled", "to", cfg.GetOperatorReportEmail())
	}

	matchingModule := matching.NewModule(pool, locker, cfg.GetMatchLockTTL(), eventBus, val, log)
	marketingModule, err := marketing.NewModule(pool, cfg, sender, enqueuer, normalizer, eventBus, val, log)
	if err != nil {
		log.Error("failed to initialize marketing module", "error", err)
		panic("failed to initialize marketing module: " + err.Error())
	}
	defer marketingModule.Service().Close()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			matchingModule,
			marketingModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initLocker returns a Redis backed locker when REDIS_URL is set so match
// generation is serialized across API replicas.
func initLocker(cfg config.SchedulerConfig, log *logger.Logger) (lock.Locker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; match generation locks are process local")
		return lock.NewLocalLocker(), func() {}
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL, falling back to local locks", "error", err)
		return lock.NewLocalLocker(), func() {}
	}
	rdb := redis.NewClient(opt)
	return lock.NewRedisLocker(rdb, "brokerage:lock:"), func() { _ = rdb.Close() }
}

func initSender(cfg *config.Config, log *logger.Logger) (dispatch.Sender, error) {
	client, err := whatsapp.NewClient(cfg, log)
	if errors.Is(err, whatsapp.ErrNotConfigured) && cfg.Env == "development" {
		log.Warn("WHATSAPP_URL not configured; messages are logged instead of sent")
		return whatsapp.NewDryRunSender(log), nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// initBatchQueue returns nil when Redis is absent; batches then run inside
// this process.
func initBatchQueue(cfg *config.Config, log *logger.Logger) (service.Enqueuer, func()) {
	if !cfg.IsSchedulerEnabled() {
		log.Warn("REDIS_URL not configured; outreach batches run in-process")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg, cfg.GetOutreachMinDelay()+cfg.GetOutreachDelayJitter())
	if err != nil {
		log.Error("failed to initialize batch queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
