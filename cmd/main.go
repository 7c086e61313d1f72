package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"RestQueryAPI/internal/collection"
	"RestQueryAPI/internal/config"
	"RestQueryAPI/internal/db"
	"RestQueryAPI/internal/handler"
	"RestQueryAPI/internal/item"
	"RestQueryAPI/internal/logger"
	"RestQueryAPI/internal/migrations"
	"RestQueryAPI/internal/model"
	"RestQueryAPI/internal/router"
)

func main() {
	debugFlag := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init("."); err != nil {
		fmt.Fprintf(os.Stderr, "log init failed: %v\n", err)
		os.Exit(1)
	}
	logger.SetDebug(*debugFlag)
	if err := cfg.Validate(); err != nil {
		logger.Error("config_invalid", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("db_init_failed", map[string]any{"driver": cfg.DBDriver, "error": err.Error()})
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("db_connected", map[string]any{"driver": cfg.DBDriver})

	// Initialize registry
	if err := model.InitRegistry(cfg.ModelsDir); err != nil {
		logger.Error("registry_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("models_initialized", map[string]any{"count": len(model.Registry)})

	counts := countCache(ctx, cfg.CountCache)
	items := &item.Controller{Store: store}
	if counts != nil {
		items.Counts = counts
	}
	h := &handler.Handlers{
		Registry: model.Registry,
		Collections: &collection.Controller{
			Store:        store,
			DefaultLimit: cfg.Paging.DefaultLimit,
			MaxLimit:     cfg.Paging.MaxLimit,
			Counts:       counts,
		},
		Items: items,
	}
	router.InitRoutes(cfg.CORS, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server_shutdown_failed", map[string]any{"error": err.Error()})
		}
	}()

	// Start HTTP server
	logger.Info("server_start", map[string]any{"port": cfg.Port})
	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server_error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("server_stopped", nil)
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	if cfg.DBDriver == "sqlite" {
		if cfg.MigrationsDir != "" {
			logger.Warn("migrations_skipped", map[string]any{"reason": "postgres only"})
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, err
		}
		return db.InitSQLite(ctx, cfg.SQLitePath)
	}

	if cfg.MigrationsDir != "" {
		if err := migrations.Run(cfg.MigrationsDir, cfg.PostgresDSN); err != nil {
			return nil, err
		}
	}
	return db.InitPostgres(ctx, cfg.PostgresDSN)
}

// countCache is opt-in: TTL 0 (the default) recomputes totals on every
// request. It prefers Redis; without it totals are cached in process.
func countCache(ctx context.Context, cfg config.CountCacheConfig) collection.CountCache {
	if cfg.TTLSec == 0 {
		return nil
	}
	ttl := time.Duration(cfg.TTLSec) * time.Second
	if cfg.RedisAddr == "" {
		return collection.NewMemoryCountCache(ttl)
	}
	rdb, err := db.InitRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis_unavailable", map[string]any{"addr": cfg.RedisAddr, "error": err.Error()})
		return collection.NewMemoryCountCache(ttl)
	}
	logger.Info("redis_connected", map[string]any{"addr": cfg.RedisAddr})
	return &collection.RedisCountCache{Client: rdb, TTL: ttl}
}
