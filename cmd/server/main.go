package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tixup/internal/config"
	"tixup/internal/logger"
	"tixup/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize server", zap.Error(err))
	}
	defer srv.Close()

	if err := srv.ListenAndServe(ctx); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
