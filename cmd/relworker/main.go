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

	"github.com/HammerMeetNail/friendgraph/internal/config"
	"github.com/HammerMeetNail/friendgraph/internal/database"
	"github.com/HammerMeetNail/friendgraph/internal/handlers"
	"github.com/HammerMeetNail/friendgraph/internal/logging"
	"github.com/HammerMeetNail/friendgraph/internal/middleware"
	"github.com/HammerMeetNail/friendgraph/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Worker error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.App.LogLevel)
	if cfg.App.Debug {
		level = logging.LevelDebug
	}
	logger.SetLevel(level)
	logging.SetDefaultLevel(level)
	logger.Debug("Debug logging enabled", map[string]interface{}{"env": cfg.App.Environment})

	logger.Info("Starting relationship worker...")

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	if err := migrate(cfg, logger); err != nil {
		return err
	}

	logger.Info("Connecting to Redis", map[string]interface{}{"addr": cfg.Redis.Addr()})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()

	sub := services.NewSubsystem(services.SubsystemConfig{
		DB:       services.NewPoolAdapter(db.Pool),
		Redis:    redisDB.Client,
		Settings: cfg.Relationships,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sub.Effects.SetAsyncContext(ctx)

	serverErr := make(chan error, 1)
	var server *http.Server
	if cfg.App.HealthAddr != "" {
		server = newProbeServer(cfg, db, redisDB, sub.Sweeper, logger)
		go func() {
			logger.Info("Probe server listening", map[string]interface{}{"addr": server.Addr})
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
				stop()
			}
		}()
	}

	logger.Info("Retention sweeper running", map[string]interface{}{
		"interval":  cfg.Relationships.SweepInterval.String(),
		"retention": cfg.Relationships.RequestRetention.String(),
	})
	sub.Sweeper.Run(ctx, cfg.Relationships.SweepInterval)
	logger.Info("Worker is shutting down...")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Could not gracefully shutdown the probe server", map[string]interface{}{"error": err.Error()})
		}
	}

	select {
	case err := <-serverErr:
		return fmt.Errorf("probe server: %w", err)
	default:
	}
	logger.Info("Worker stopped")
	return nil
}

func migrate(cfg *config.Config, logger *logging.Logger) error {
	logger.Info("Running database migrations...", map[string]interface{}{"path": cfg.Database.MigrationsPath})
	migrator, err := database.NewMigrator(cfg.Database.DSN(), cfg.Database.MigrationsPath)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer func() { _ = migrator.Close() }()

	if _, err := migrator.Apply(logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func newProbeServer(cfg *config.Config, db *database.PostgresDB, redisDB *database.RedisDB, sweeps handlers.SweepReporter, logger *logging.Logger) *http.Server {
	health := handlers.NewHealthHandler(sweeps, 2*cfg.Relationships.SweepInterval).
		AddCheck("postgres", db).
		AddCheck("redis", redisDB)

	mux := http.NewServeMux()
	health.Routes(mux)

	requestLogger := middleware.NewRequestLogger(logger, "/health", "/ready", "/live")
	return &http.Server{
		Addr:         cfg.App.HealthAddr,
		Handler:      requestLogger.Apply(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
