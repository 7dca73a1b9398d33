package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/turtacn/tokenforge/internal/config"
	"github.com/turtacn/tokenforge/internal/domain/models"
	"github.com/turtacn/tokenforge/internal/domain/repository"
	"github.com/turtacn/tokenforge/internal/domain/service"
	"github.com/turtacn/tokenforge/internal/infrastructure/crypto"
	"github.com/turtacn/tokenforge/internal/infrastructure/directory"
	"github.com/turtacn/tokenforge/internal/infrastructure/events"
	"github.com/turtacn/tokenforge/internal/infrastructure/monitoring"
	"github.com/turtacn/tokenforge/internal/infrastructure/persistence/redis"
	"github.com/turtacn/tokenforge/internal/interfaces/http/handlers"
	"github.com/turtacn/tokenforge/internal/interfaces/http/middleware"
	"github.com/turtacn/tokenforge/internal/interfaces/http/router"
	"github.com/turtacn/tokenforge/pkg/logger"
)

const cleanupInterval = time.Hour

func main() {
	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	ctx := context.Background()

	redisConn := redis.NewConnection(cfg.Redis, appLogger)
	if err := redisConn.Connect(ctx); err != nil {
		appLogger.Error(ctx, "Failed to connect to Redis", err)
		os.Exit(1)
	}
	defer redisConn.Close()

	metrics := monitoring.NewMetrics()

	keyProvider := crypto.NewKeyProvider(cfg.Vault, cfg.Token, appLogger)
	key := keyProvider.Resolve(ctx)
	metrics.SetDegradedKeyMode(key.IsEphemeral())

	// re-resolve the signing key when the config file changes on disk
	loader.Watch(func(_ fsnotify.Event) {
		refreshed := keyProvider.Refresh(ctx)
		metrics.SetDegradedKeyMode(refreshed.IsEphemeral())
		appLogger.Info(ctx, "Signing key re-resolved after config change",
			logger.String("source", string(refreshed.Source)))
	})

	codec := crypto.NewTokenCodec(keyProvider, cfg.Token.Issuer, cfg.Token.Audience, appLogger)
	cache := redis.NewCacheManager(redisConn.Client(), appLogger)
	store := redis.NewRecordStore(cache, appLogger)
	identityDir := directory.NewStaticDirectory(cfg.Token.DefaultScopes, cfg.Token.DefaultRoles, nil)

	var publisher service.RevocationPublisher
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka, appLogger)
	} else {
		publisher = events.NewNoopPublisher()
	}
	defer publisher.Close()

	tokenService := service.NewTokenService(
		codec, store, identityDir, publisher, metrics, appLogger,
		cfg.Token.AccessTTL(), cfg.Token.RefreshTTL(),
	)

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go runCleanup(cleanupCtx, store, appLogger)

	tokenHandler := handlers.NewTokenHandler(tokenService, store)
	healthHandler := handlers.NewHealthHandler(store)
	authMiddleware := middleware.RequireToken(tokenService, appLogger)

	r := router.NewRouter(cfg, appLogger, healthHandler, tokenHandler, authMiddleware)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.Stop(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "Server forced to shutdown", err)
		}
	}()

	if err := r.Start(); err != nil {
		appLogger.Error(ctx, "HTTP server failed", err)
		os.Exit(1)
	}

	appLogger.Info(ctx, "Server stopped")
}

// runCleanup periodically evicts records whose expiry already passed but
// whose keys are still waiting on store TTLs.
func runCleanup(ctx context.Context, store repository.RecordStore, log logger.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.Cleanup(ctx, models.StatsScope{})
			if err != nil {
				log.Warn(ctx, "Periodic cleanup failed", logger.Err(err))
				continue
			}
			if removed > 0 {
				log.Info(ctx, "Periodic cleanup removed expired records",
					logger.Int64("removed", removed))
			}
		}
	}
}
