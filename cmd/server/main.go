package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alaris-labs/papergraph/internal/config"
	"github.com/alaris-labs/papergraph/internal/server"
	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/logger/console"
)

func main() {
	util.LoadEnv()
	cfg := config.Load()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		JSON:   cfg.LogJSON,
		Prefix: "server",
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg); err != nil {
		logger.Fatal("Server failed", "err", err)
	}
}
