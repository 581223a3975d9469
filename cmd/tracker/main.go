package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kpx/product-tracker/internal/config"
	"github.com/kpx/product-tracker/internal/database"
	"github.com/kpx/product-tracker/internal/tracker"
	"github.com/kpx/product-tracker/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting product tracker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Name,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnLife: cfg.Database.MaxConnLife,
		MaxConnIdle: cfg.Database.MaxConnIdle,
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	t := tracker.New(cfg, db, logger)

	if err := t.Run(ctx); err != nil {
		logger.Error("Tracker run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Product tracker finished")
}
