package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/alaris-labs/papergraph/pkg/ai"
	"github.com/alaris-labs/papergraph/pkg/logger"
)

// MetricsSource exposes the usage counters of a model client.
type MetricsSource interface {
	GetMetrics() ai.ModelMetrics
	ResetMetrics()
}

// Worker consumes one queue and hands each message to Handle.
type Worker struct {
	Queue      string
	Channel    Channel
	Handle     func(ctx context.Context, body []byte) error
	MaxRetries int
	// Metrics, when set, is logged and reset after every message.
	Metrics MetricsSource
}

// Run processes deliveries one at a time until ctx is done or the channel
// closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp091.Delivery) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", w.Queue)
			return
		case msg, ok := <-deliveries:
			if !ok {
				logger.Info("[Queue] Message channel closed", "queue", w.Queue)
				return
			}
			w.HandleDelivery(ctx, msg)
		}
	}
}

// HandleDelivery processes one message and acks it, or routes it to the
// retry or dead-letter queue on failure.
func (w *Worker) HandleDelivery(ctx context.Context, msg amqp091.Delivery) {
	start := time.Now()
	logger.Info("[Queue] Received message", "queue", w.Queue, "correlation_id", msg.CorrelationId)

	maxRetries := w.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	if err := w.Handle(ctx, msg.Body); err != nil {
		logger.Error("[Queue] Error processing message", "queue", w.Queue, "err", err)
		HandleFailure(ctx, w.Channel, msg, w.Queue, maxRetries, err)
	} else {
		if err := msg.Ack(false); err != nil {
			logger.Error("[Queue] Failed to ack message", "err", err)
		}
		logger.Info("[Queue] Message processed successfully", "queue", w.Queue)
	}

	if w.Metrics != nil {
		m := w.Metrics.GetMetrics()
		logger.Info(
			"[Queue] AI metrics",
			"requests", m.Requests,
			"input_tokens", m.InputTokens,
			"output_tokens", m.OutputTokens,
			"total_tokens", m.TotalTokens,
			"duration", formatDuration(time.Duration(m.DurationMs)*time.Millisecond),
		)
		w.Metrics.ResetMetrics()
	}
	logger.Info("[Queue] Processing time", "duration", formatDuration(time.Since(start)))
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
