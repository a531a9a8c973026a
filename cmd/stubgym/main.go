/**
 * @description
 * Entry point for the stub gym-payments backend. It serves the payment API's
 * wire contract from memory so the payflow client (and the CLI) can be run
 * locally without the real backend or a payment gateway.
 */
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/config"
	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/stubapi"
)

func main() {
	// Load .env for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("cannot load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store := stubapi.NewStore(cfg.StubPollsToComplete)
	handlers := stubapi.NewHandlers(store, logger)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: stubapi.Router(handlers),
	}

	go func() {
		logger.Info("stub gym backend listening",
			"port", cfg.ServerPort,
			"polls_to_complete", cfg.StubPollsToComplete,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("stub gym backend stopped")
}
