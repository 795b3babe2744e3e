// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/danielhkuo/yourviews/cliparse"
	"github.com/danielhkuo/yourviews/db"
	"github.com/danielhkuo/yourviews/jobs"
	"github.com/danielhkuo/yourviews/media"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/querycache"
	"github.com/danielhkuo/yourviews/router"
	"github.com/danielhkuo/yourviews/session"
	"github.com/danielhkuo/yourviews/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect and migrate
	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, cfg.DatabaseType); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	// Backend services
	data := store.New(conn)
	authSvc := store.NewAuthService(conn, store.AuthConfig{
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		ResetTokenTTL:  cfg.ResetTokenTTL,
	})

	registry := session.NewRegistry(authSvc, data, session.RegistryConfig{
		Secret:  cfg.JWTSecret,
		IdleTTL: cfg.SessionIdleTTL,
		Secure:  strings.HasPrefix(cfg.SiteURL, "https://"),
	})

	cache := querycache.New(querycache.Options{
		StaleTime:  cfg.CacheStaleTime,
		GCTime:     cfg.CacheGCTime,
		Retries:    cfg.CacheRetries,
		RetryDelay: cfg.CacheRetryDelay,
	})
	defer cache.Close()

	uploader, err := media.New(ctx, media.Config{
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		PublicURL: cfg.S3.PublicURL,
	})
	if err != nil {
		slog.Error("media storage setup failed", "error", err)
		os.Exit(1)
	}

	// Background maintenance
	runner, err := jobs.New(jobs.Maintenance(cache, cfg.CacheGCTime, registry, cfg.SessionIdleTTL)...)
	if err != nil {
		slog.Error("job scheduling failed", "error", err)
		os.Exit(1)
	}
	runner.Start()
	defer runner.Stop()

	// Create server
	server := http.Server{
		Handler: router.NewRouter(router.Deps{
			Config:   cfg,
			Fetcher:  queries.New(data, authSvc),
			Cache:    cache,
			Sessions: registry,
			Uploader: uploader,
		}),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "site_url", cfg.SiteURL)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
