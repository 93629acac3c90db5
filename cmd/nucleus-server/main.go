package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nucleus-counter/internal/config"
	"nucleus-counter/internal/imaging"
	"nucleus-counter/internal/logger"
	"nucleus-counter/internal/opencv/memory"
	"nucleus-counter/internal/pipeline"
	"nucleus-counter/internal/transport"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewJSONLogger(logger.ParseLevel(logger.LevelFromEnv()))
	tracker := memory.NewTracker(appLogger)

	pipe := pipeline.New(appLogger, tracker)
	loader := imaging.NewLoader(appLogger, tracker)
	handler := transport.NewHandler(pipe, loader, cfg, appLogger)

	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      handler,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		appLogger.Info("Server", "starting HTTP server", map[string]interface{}{
			"address": cfg.ServerAddress(),
			"timeout": cfg.RequestTimeout.String(),
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server", err, nil)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server", "shutting down", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server", err, nil)
	}

	tracker.LogSummary()
	appLogger.Info("Server", "server exited", nil)
}
