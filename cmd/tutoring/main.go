package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/app"
	"github.com/Freeeeeet/tutoring_toolbox/internal/audit"
	"github.com/Freeeeeet/tutoring_toolbox/internal/auth"
	"github.com/Freeeeeet/tutoring_toolbox/internal/config"
	botcontroller "github.com/Freeeeeet/tutoring_toolbox/internal/controller/bot"
	"github.com/Freeeeeet/tutoring_toolbox/internal/controller/httpapi"
	"github.com/Freeeeeet/tutoring_toolbox/internal/notify"
	"github.com/Freeeeeet/tutoring_toolbox/internal/obs"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository/memory"
	"github.com/Freeeeeet/tutoring_toolbox/internal/service"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Sugar().Infow("Starting tutoring service",
		"environment", cfg.Environment,
		"storage", cfg.Storage,
		"dotenv", cfg.LoadedDotEnv,
		"version", version)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}
	logger.Info("Service stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs.Init()

	loc, err := cfg.QuotaLocation()
	if err != nil {
		return err
	}

	var (
		store repository.Store
		ready httpapi.ReadyProbe
	)
	switch cfg.Storage {
	case config.StorageMemory:
		mem := memory.NewStore()
		mem.SeedDemo()
		store = mem
		logger.Warn("Using in-memory storage, data is lost on restart")
	default:
		pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return err
		}
		logger.Info("✅ Connected to database")

		migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
		if err != nil {
			return err
		}
		defer migrator.Close()

		if err := migrator.Run(ctx); err != nil {
			return err
		}

		store = repository.NewPgStore(pool)
		ready = httpapi.ReadyProbe{DB: migrator.DB()}
	}

	// Уведомления: всегда в лог, в Telegram если есть токен
	notifiers := notify.Fanout{notify.NewLogNotifier(logger)}
	var telegram *tgbot.Bot
	if cfg.TelegramToken != "" {
		telegram, err = tgbot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, notify.NewTelegramNotifier(telegram, store.Users(), logger))
	}

	auditLog := audit.New(logger)
	requests := service.NewRequestService(store, notifiers, auditLog, logger)
	sessions := service.NewSessionService(store, service.NewQuotaLedger(loc), notifiers, auditLog, logger,
		service.SessionOptions{RequireApprovedRequest: cfg.RequireApprovedRequest})
	directory := service.NewDirectoryService(store)

	authn, err := auth.NewAuthenticator(cfg.AuthSecret)
	if err != nil {
		return err
	}

	api := httpapi.New(httpapi.Deps{
		Requests:       requests,
		Sessions:       sessions,
		Directory:      directory,
		Auth:           authn,
		Ready:          ready,
		Logger:         logger,
		Version:        version,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	scheduler := app.NewScheduler(sessions, cfg.SnapshotInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if telegram != nil {
		ctl := botcontroller.NewController(telegram, requests, sessions, directory, loc, logger)
		if err := ctl.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		go ctl.Start(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
