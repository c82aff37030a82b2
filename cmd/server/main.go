package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/valentine-be/internal/auth"
	"github.com/hongminglow/valentine-be/internal/config"
	"github.com/hongminglow/valentine-be/internal/flow"
	"github.com/hongminglow/valentine-be/internal/logging"
	"github.com/hongminglow/valentine-be/internal/server"
	"github.com/hongminglow/valentine-be/internal/storage"
	"github.com/hongminglow/valentine-be/internal/storage/backend"
)

func main() {
	envLoaded := godotenv.Load() == nil

	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	if !envLoaded {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	mode := cfg.AuthMode()
	var store storage.UserStore
	if mode == auth.ModeEnforced {
		store, err = backend.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("init database", "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}
	logger.Info("auth mode selected", "mode", mode.String())

	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		logger.Error("init hasher", "error", err)
		os.Exit(1)
	}
	authn, err := auth.NewAuthenticator(mode, store, hasher, logger)
	if err != nil {
		logger.Error("init authenticator", "error", err)
		os.Exit(1)
	}
	engine, err := flow.NewEngine(flow.DefaultConfig())
	if err != nil {
		logger.Error("init flow engine", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, authn, engine, logger)

	go func() {
		logger.Info("valentine backend listening", "addr", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
	}
}
