package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YarinDev/recipe-app-api/internal/app/migrate"
	"github.com/YarinDev/recipe-app-api/internal/domain"
	httpx "github.com/YarinDev/recipe-app-api/internal/http"
	"github.com/YarinDev/recipe-app-api/internal/repository/postgres"
	"github.com/YarinDev/recipe-app-api/internal/service/attribute"
	"github.com/YarinDev/recipe-app-api/internal/service/auth"
	"github.com/YarinDev/recipe-app-api/internal/service/recipe"
	"github.com/YarinDev/recipe-app-api/internal/storage"
	"github.com/YarinDev/recipe-app-api/internal/ws"
	"github.com/YarinDev/recipe-app-api/pkg/config"
	"github.com/YarinDev/recipe-app-api/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	if cfg.IsProduction() && cfg.JWTSecret == "changeme" {
		log.Error("JWT_SECRET must be set in production")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to configure database pool", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.WaitForDB(ctx, cfg.DBWaitTimeout); err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.New(storage.Backend{
		Kind:      cfg.StorageBackend,
		MediaRoot: cfg.MediaRoot,
		MediaURL:  cfg.MediaURL,
		S3: storage.S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		},
	})
	if err != nil {
		log.Error("failed to configure image storage", "error", err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()

	authSvc := auth.New(repo, log, cfg)
	recipeSvc := recipe.New(repo, store, hub, log, cfg)
	tagSvc, err := attribute.New(domain.KindTag, repo, log)
	if err != nil {
		log.Error("failed to configure tags", "error", err)
		os.Exit(1)
	}
	ingredientSvc, err := attribute.New(domain.KindIngredient, repo, log)
	if err != nil {
		log.Error("failed to configure ingredients", "error", err)
		os.Exit(1)
	}

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter.Close()
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(httpx.Options{
		Logger:        log,
		Auth:          authSvc,
		Recipes:       recipeSvc,
		Tags:          tagSvc,
		Ingredients:   ingredientSvc,
		Hub:           hub,
		Store:         store,
		Limiter:       limiter,
		DBHealth:      pool.Ping,
		MediaURL:      cfg.MediaURL,
		ImageMaxBytes: cfg.ImageMaxBytes,
		CORSOrigins:   cfg.CORSAllowedOrigins,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "storage", cfg.StorageBackend)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
