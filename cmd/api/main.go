package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, stopBackground context.CancelFunc, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop background loops before their stores are closed
	stopBackground()

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// buildStores opens the configured storage driver
func buildStores(cfg *config.Config, log *zap.Logger, deps *server.Dependencies) error {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		deps.Stores = repository.NewMemoryStore().Stores()
		log.Info("Using in-memory storage")
		return nil

	case config.StoragePostgres:
		dbService, err := database.New(cfg.Database)
		if err != nil {
			return err
		}
		deps.Database = dbService
		deps.Closers = append(deps.Closers, dbService.Close)

		log.Info("Database health check", zap.Any("health", dbService.Health()))

		if err := database.RunMigrations(dbService.DB(), cfg.Storage.MigrationsDir, log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("Database migrations completed successfully")

		if cfg.Server.IsDevelopment() {
			if err := database.GetMigrationStatus(dbService.DB(), cfg.Storage.MigrationsDir); err != nil {
				log.Warn("Failed to read migration status", zap.Error(err))
			}
		}

		deps.Stores = repository.NewPostgresStores(dbService.DB())
		return nil

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// buildRedis connects to Redis when sessions or rate limiting need it
func buildRedis(ctx context.Context, cfg *config.Config, log *zap.Logger, deps *server.Dependencies) error {
	if cfg.Session.Store != "redis" {
		memoryStore := session.NewMemoryStore()
		go pruneSessions(ctx, memoryStore, time.Hour, log)
		deps.SessionStore = memoryStore
	}

	if cfg.Session.Store != "redis" && !cfg.RateLimit.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	deps.Redis = client
	deps.Closers = append(deps.Closers, client.Close)
	if cfg.Session.Store == "redis" {
		deps.SessionStore = session.NewRedisStore(client, "session")
	}
	log.Info("Connected to Redis", zap.String("session_store", cfg.Session.Store))
	return nil
}

// pruneSessions drops expired in-memory sessions until ctx is cancelled
func pruneSessions(ctx context.Context, store *session.MemoryStore, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Prune(); n > 0 {
				log.Debug("Pruned expired sessions", zap.Int("count", n))
			}
		}
	}
}

func buildNotifier(cfg *config.Config, log *zap.Logger) service.OrderNotifier {
	if cfg.Mail.PostmarkServerToken == "" {
		return notify.NewLogNotifier(log)
	}
	return notify.NewPostmarkNotifier(cfg.Mail.PostmarkServerToken, cfg.Mail.From)
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("tax_rate", cfg.Pricing.TaxRate.String()),
	)

	// Cancelled on shutdown to stop background loops
	background, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	deps := server.Dependencies{Notifier: buildNotifier(cfg, log)}
	if err := buildStores(cfg, log, &deps); err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	if err := buildRedis(background, cfg, log, &deps); err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	// Create server
	srv := server.NewServer(cfg, log, deps)

	if cfg.Storage.SeedCatalog {
		seeded, err := catalog.Seed(context.Background(), srv.Catalog())
		if err != nil {
			log.Fatal("Failed to seed catalog", zap.Error(err))
		}
		log.Info("Catalog seed", zap.Bool("loaded", seeded))
	}

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, stopBackground, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
