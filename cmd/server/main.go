package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/papergraph/internal/config"
	"github.com/OFFIS-RIT/papergraph/internal/pipeline"
	"github.com/OFFIS-RIT/papergraph/internal/server"
	mid "github.com/OFFIS-RIT/papergraph/internal/server/middleware"
	"github.com/OFFIS-RIT/papergraph/internal/storage"
	"github.com/OFFIS-RIT/papergraph/internal/util"
	"github.com/OFFIS-RIT/papergraph/pkg/logger"
	"github.com/OFFIS-RIT/papergraph/pkg/logger/console"
)

func main() {
	util.LoadEnv()
	cfg := config.Load()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
		JSON:  cfg.LogFormat == "json",
	})
	logger.Init(consoleLogger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, closeStore, err := pipeline.Setup(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to set up pipeline", "err", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := closeStore(closeCtx); err != nil {
			logger.Error("Failed to close Neo4j driver", "err", err)
		}
	}()

	uploads, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to set up upload storage", "err", err)
	}

	app := &mid.App{
		Pipeline: p,
		Storage:  uploads,
		APIKey:   cfg.Server.APIKey,
	}
	if err := server.Run(ctx, app, cfg.Server.Port); err != nil {
		logger.Fatal("Server stopped", "err", err)
	}
}
