package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/weatherjohn/internal/config"
	"github.com/dropDatabas3/weatherjohn/internal/http/server"
	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
)

// seteadas por ldflags: -X main.version=... -X main.commit=...
var (
	version = "dev"
	commit  = ""
)

func main() {
	// .env opcional (dev)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env: %v", err)
	}

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "ruta al config.yaml (opcional; env CONFIG_PATH)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "weatherjohn",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	if err := cfg.Validate(); err != nil {
		lg.Fatal("invalid configuration", logger.Err(err))
	}

	app, err := server.Build(cfg, server.BuildInfo{Version: version, Commit: commit})
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			lg.Warn("cleanup error", logger.Err(err))
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := app.Ping(pingCtx); err != nil {
		lg.Warn("cache ping failed, serving degraded", logger.Err(err))
	}
	cancel()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler,
		ReadTimeout:       config.Dur(cfg.Server.ReadTimeout, 10*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      config.Dur(cfg.Server.WriteTimeout, 30*time.Second),
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		lg.Info("listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("env", cfg.App.Env),
			logger.KeyID(cfg.WeatherKit.KeyID),
			logger.Bool("metrics", cfg.Metrics.Enabled),
			logger.Bool("rate_limit", cfg.Rate.Enabled),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", logger.Err(err))
		}
	case <-ctx.Done():
		lg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("graceful shutdown failed", logger.Err(err))
		}
	}
}
