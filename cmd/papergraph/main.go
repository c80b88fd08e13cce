package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/logger"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("Command failed", "err", err)
		stop()
		os.Exit(1)
	}
}
