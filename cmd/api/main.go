package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moskvinegor321/Project-analyzer/internal/app"
	"github.com/moskvinegor321/Project-analyzer/internal/config"
	"github.com/moskvinegor321/Project-analyzer/internal/logger"
)

func main() {
	// Handle SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer application.Close()

	errc := make(chan error, 1)
	go func() { errc <- application.Server.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			log.Error("server error", "err", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	log.Info("project analyzer stopped")
}
