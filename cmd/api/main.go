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

	"github.com/ArowuTest/padel-arena-backend/api/routes"
	"github.com/ArowuTest/padel-arena-backend/internal/app"
	"github.com/ArowuTest/padel-arena-backend/internal/config"
	"github.com/ArowuTest/padel-arena-backend/internal/handlers"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			logger.Error("Error closing store", "error", err)
		}
	}()

	svc, err := app.NewServices(ctx, cfg, stores, logger)
	if err != nil {
		logger.Error("Failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	if err := svc.SeedAdmin(ctx, cfg, logger); err != nil {
		logger.Error("Failed to seed admin account", "error", err)
		os.Exit(1)
	}

	handlerDeps := routes.HandlerDependencies{
		Tokens:          svc.Tokens,
		Logger:          logger,
		AuthHandler:     handlers.NewAuthHandler(svc.Auth),
		DrawHandler:     handlers.NewDrawHandler(svc.Draw),
		FidelityHandler: handlers.NewFidelityHandler(svc.Fidelity),
		StreamHandler: handlers.NewStreamHandler(svc.Draw, handlers.StreamOptions{
			AllowedOrigins: cfg.Server.AllowedHosts,
			Logger:         logger,
		}),
		PrizeAdminHandler: handlers.NewPrizeAdminHandler(svc.Prizes),
	}
	router := routes.SetupRouter(cfg, handlerDeps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	logger.Info("Server starting", "port", cfg.Server.Port, "store", cfg.Draw.StoreMode)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exiting")
}
