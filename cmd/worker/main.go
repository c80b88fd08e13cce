package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alaris-labs/papergraph/internal/config"
	"github.com/alaris-labs/papergraph/internal/queue"
	"github.com/alaris-labs/papergraph/internal/timing"
	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/extract"
	"github.com/alaris-labs/papergraph/pkg/leaselock"
	"github.com/alaris-labs/papergraph/pkg/loader/pdf"
	s3loader "github.com/alaris-labs/papergraph/pkg/loader/s3"
	"github.com/alaris-labs/papergraph/pkg/logger"
	"github.com/alaris-labs/papergraph/pkg/logger/console"
	"github.com/alaris-labs/papergraph/pkg/pipeline"
	pgstore "github.com/alaris-labs/papergraph/pkg/store/pgx"
)

func main() {
	util.LoadEnv()
	cfg := config.Load()

	// logger
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		JSON:   cfg.LogJSON,
		Prefix: "worker",
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.RequireDatabase(); err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	// GraphAIClient
	aiClient, err := cfg.AI.NewAIClient()
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}

	// Init s3 loader
	s3Loader, err := s3loader.NewFileLoader(ctx, cfg.S3.LoaderParams())
	if err != nil {
		logger.Fatal("Could not create S3 loader", "err", err)
	}

	// Init pgx pool
	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pool.Close()

	extractor := extract.NewLLMExtractor(aiClient, cfg.ExtractParams())
	processor := &queue.Processor{
		Loader: pdf.NewTextLoader(s3Loader),
		Pipeline: pipeline.New(pipeline.Params{
			Concepts: extractor,
			Authors:  extractor,
			Store:    pgstore.NewGraphDBStorageWithConnection(pool),
		}),
		Timer:  timing.NewRecorder(pool),
		Locker: leaselock.New(pool),
	}

	// Init rabbitmq
	conn, err := queue.Dial(cfg.RabbitMQ.URL())
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{queue.IngestQueue}); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	// Only one message is delivered at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	deliveries, err := ch.Consume(
		queue.IngestQueue,
		queue.IngestQueue+"_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.IngestQueue, "err", err)
	}

	worker := &queue.Worker{
		Queue:      queue.IngestQueue,
		Channel:    ch,
		Handle:     processor.ProcessIngestMessage,
		MaxRetries: queue.DefaultMaxRetries,
		Metrics:    aiClient,
	}

	logger.Info("Listening for messages", "queue", queue.IngestQueue)
	worker.Run(ctx, deliveries)
	logger.Info("Shutdown signal received, exiting...")
}
