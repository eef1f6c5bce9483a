package main

import (
	"TaskChatAPI/internal/adapter"
	"TaskChatAPI/internal/bootstrap"
	"TaskChatAPI/internal/config"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg := config.LoadAppConfig()

	level := slog.LevelInfo
	if cfg.AppEnv == "development" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	db, err := config.InitDB(cfg)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("Error closing database connection", "error", err)
			}
		}
	}()

	var redisAdapter *adapter.RedisAdapter
	if cfg.RedisEnabled {
		redisAdapter, err = adapter.NewRedisAdapter(cfg)
		if err != nil {
			slog.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		defer redisAdapter.Close()
	} else {
		slog.Info("Redis disabled, running single-instance without revocation or rate limiting")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := config.NewValidator()
	chiMux := config.NewChi(cfg)

	app := bootstrap.Init(cfg, db, redisAdapter, validate, chiMux)
	defer app.RateLimiter.Stop()

	if app.Relay != nil {
		if err := app.Relay.Start(ctx); err != nil {
			slog.Error("Failed to start Redis relay", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AppPort),
		Handler: chiMux,
	}

	go func() {
		slog.Info("Starting TaskChatAPI", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
