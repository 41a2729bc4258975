package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/internal/config"
	"github.com/jwebster45206/narrative-engine/internal/game"
	"github.com/jwebster45206/narrative-engine/internal/handlers"
	"github.com/jwebster45206/narrative-engine/internal/logger"
	"github.com/jwebster45206/narrative-engine/internal/middleware"
	"github.com/jwebster45206/narrative-engine/internal/services"
	"github.com/jwebster45206/narrative-engine/internal/services/events"
	"github.com/jwebster45206/narrative-engine/internal/services/journal"
	"github.com/jwebster45206/narrative-engine/internal/storage"
	pkgstorage "github.com/jwebster45206/narrative-engine/pkg/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Narrative Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
		"redis_enabled", cfg.RedisEnabled(),
		"sqlite_path", cfg.SQLitePath)

	var (
		store    pkgstorage.Storage
		client   *redis.Client
		checkers = map[string]services.HealthChecker{}
	)
	if cfg.RedisEnabled() {
		client = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		redisService := services.NewRedisServiceFromClient(client, log)

		waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		err := redisService.WaitForConnection(waitCtx, 30, 2*time.Second)
		waitCancel()
		if err != nil {
			logger.WithError(log, err).Error("Failed to connect to Redis")
			os.Exit(1)
		}

		store = storage.NewRedisStorageFromClient(client, cfg.DataDir, log)
		checkers["redis"] = redisService
		log.Info("Storage connection established successfully", "backend", "redis")
	} else if cfg.SQLitePath != "" {
		sqlite, err := storage.OpenSQLiteStorage(cfg.SQLitePath, cfg.DataDir, log)
		if err != nil {
			logger.WithError(log, err).Error("Failed to open SQLite storage", "path", cfg.SQLitePath)
			os.Exit(1)
		}
		purgeCtx, purgeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := sqlite.PurgeBefore(purgeCtx, time.Now().Add(-cfg.Retention)); err != nil {
			log.Warn("Failed to purge stale games", "error", err)
		}
		purgeCancel()
		store = sqlite
		log.Info("Storage connection established successfully", "backend", "sqlite", "path", cfg.SQLitePath)
	} else {
		store = storage.NewMemoryStorage(storage.NewFiles(cfg.DataDir, log))
		log.Warn("Neither REDIS_URL nor SQLITE_PATH set, games are kept in memory only")
	}
	checkers["storage"] = store

	assetsCtx, assetsCancel := context.WithTimeout(context.Background(), 30*time.Second)
	assets, err := game.LoadAssets(assetsCtx, store)
	assetsCancel()
	if err != nil {
		logger.WithError(log, err).Error("Failed to load game data", "data_dir", cfg.DataDir)
		os.Exit(1)
	}
	log.Info("Game data loaded",
		"dialogues", len(assets.Dialogues),
		"quests", len(assets.Quests),
		"npcs", len(assets.NPCs))

	var journals func(uuid.UUID) *journal.Journal
	if client != nil {
		journals = func(id uuid.UUID) *journal.Journal { return journal.New(client, id, log) }
	}

	manager, err := game.NewManager(game.ManagerConfig{
		Store:        store,
		Assets:       assets,
		Start:        game.Start{Biome: cfg.StartBiome, Weather: cfg.StartWeather},
		DefaultPC:    cfg.PCID,
		TickInterval: cfg.TickInterval,
		Seed:         cfg.RNGSeed,
		Logger:       log,
		Attach:       attachRedis(client, journals, lockOwner()),
	})
	if err != nil {
		logger.WithError(log, err).Error("Failed to create game manager")
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(checkers, manager, log))
	handlers.NewGameHandler(manager, journals, log).Register(mux)

	handler := middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recover(log))
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(log, err).Error("Server failed to start")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(log, err).Error("Server forced to shutdown")
	}

	// Loops save on the way out, so stop them before closing storage.
	manager.Close()
	if err := store.Close(); err != nil {
		logger.WithError(log, err).Error("Error closing storage connection")
	}

	log.Info("Server exited")
}

// attachRedis wires the Redis-backed journal, event stream and game lock
// into every game. It is a no-op without Redis.
func attachRedis(client *redis.Client, journals func(uuid.UUID) *journal.Journal, owner string) func(uuid.UUID, *game.Config) {
	if client == nil {
		return nil
	}
	lock := game.NewRedisLock(client, owner, game.LockTTL)
	return func(id uuid.UUID, cfg *game.Config) {
		b := events.NewBroadcaster(client, id, cfg.Logger)
		cfg.Journals = append(cfg.Journals, journals(id))
		cfg.Sounds = append(cfg.Sounds, b)
		cfg.DialogueObserver = b
		cfg.EventObserver = b
		cfg.MoveObserver = b
		cfg.Locker = lock
	}
}

func lockOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "engine"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
