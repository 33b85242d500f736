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

	"leadbot_backend/internal/alerts"
	"leadbot_backend/internal/conversation"
	"leadbot_backend/internal/events"
	apphttp "leadbot_backend/internal/http"
	"leadbot_backend/internal/http/router"
	"leadbot_backend/internal/leads/repository"
	"leadbot_backend/internal/leads/service"
	"leadbot_backend/internal/reports"
	"leadbot_backend/internal/webhook"
	"leadbot_backend/platform/ai/gemini"
	"leadbot_backend/platform/config"
	"leadbot_backend/platform/db"
	"leadbot_backend/platform/logger"
	"leadbot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	geminiClient, err := gemini.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize gemini client", "error", err)
		panic("failed to initialize gemini client: " + err.Error())
	}

	// In-memory conversation buffer; TTL 0 keeps conversations for the
	// process lifetime.
	buffer := conversation.New(cfg.GetConversationTTL())
	go buffer.Run(ctx)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsRepo := repository.New(pool)
	orchestrator := service.NewOrchestrator(leadsRepo, buffer, geminiClient, eventBus, cfg, log)

	alertSender := alerts.NewSender(cfg)
	alertQueue, closeQueue := initAlertQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	var enqueuer alerts.Enqueuer
	if alertQueue != nil {
		enqueuer = alertQueue
	}
	dispatcher := alerts.NewDispatcher(enqueuer, alertSender, cfg, log)
	dispatcher.RegisterHandlers(eventBus)

	// Shared validator instance for dependency injection
	val := validator.New()

	webhookModule := webhook.NewModule(orchestrator, cfg, val, log)
	reportsModule := reports.NewModule(pool)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			webhookModule,
			reportsModule,
		},
	}

	engine := router.New(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if alertQueue != nil {
		worker, err := alerts.NewWorker(cfg, alertSender, log)
		if err != nil {
			log.Error("failed to initialize alert worker", "error", err)
			panic("failed to initialize alert worker: " + err.Error())
		}
		g.Go(func() error {
			worker.Run(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

// initAlertQueue builds the asynq client when Redis is configured. Without
// Redis, hot-lead alerts are delivered inline by the dispatcher.
func initAlertQueue(cfg config.SchedulerConfig, log *logger.Logger) (*alerts.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; hot-lead alerts delivered inline")
		return nil, nil
	}

	client, err := alerts.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize alert queue client", "error", err)
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
