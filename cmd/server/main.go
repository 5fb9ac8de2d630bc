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

	"lynkledger/internal/app"
	"lynkledger/internal/config"
	"lynkledger/internal/db"
	"lynkledger/internal/handlers"
	"lynkledger/internal/logger"
	"lynkledger/internal/websocket"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	logr := logger.WithComponent("server")
	if err := cfg.Validate(); err != nil {
		logr.Fatal().Err(err).Msg("invalid configuration")
	}

	database, err := db.Connect(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		logr.Fatal().Err(err).Msg("failed to connect database")
	}
	defer database.Close()
	if _, err := db.Migrate(context.Background(), database); err != nil {
		logr.Fatal().Err(err).Msg("failed to apply migrations")
	}

	publisher, closePublisher := app.NewPublisher(cfg)
	defer func() {
		if err := closePublisher(); err != nil {
			logr.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()
	hub := websocket.NewHub()
	wired := app.New(cfg, database, publisher, hub)

	handler := handlers.New(cfg, wired.Services(), hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info().Str("addr", server.Addr).Str("env", cfg.AppEnv).Msg("ledger API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal().Err(err).Msg("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logr.Error().Err(err).Msg("shutdown error")
		return
	}
	logr.Info().Msg("server stopped")
}
