package queue

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"github.com/alaris-labs/papergraph/internal/util"
	"github.com/alaris-labs/papergraph/pkg/logger"
)

// DefaultMaxRetries is how often a message is retried before it is
// dead-lettered.
const DefaultMaxRetries = 10

const retriesHeader = "x-retries"

// Retries reads the retry counter of msg. Headers may carry any integer
// width depending on the publisher.
func Retries(msg amqp091.Delivery) int {
	switch v := msg.Headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	}
	return 0
}

// HandleFailure moves a failed message to the retry queue, or to the
// dead-letter queue once maxRetries is reached or the error is permanent.
// The original delivery is acked after the copy is published and requeued
// when publishing fails.
func HandleFailure(ctx context.Context, ch Channel, msg amqp091.Delivery, queueName string, maxRetries int, cause error) {
	retries := Retries(msg)

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}

	target := RetryQueueName(queueName)
	if retries >= maxRetries || util.IsPermanent(cause) {
		target = DeadLetterQueueName(queueName)
		if cause != nil {
			headers["x-error"] = cause.Error()
		}
		logger.Warn("[Queue] Sending message to DLQ", "dlq", target, "retries", retries, "err", cause)
	} else {
		headers[retriesHeader] = int32(retries + 1)
		logger.Info("[Queue] Retrying message", "queue", target, "retry", retries+1)
	}

	err := ch.PublishWithContext(ctx, "", target, false, false, amqp091.Publishing{
		ContentType:   msg.ContentType,
		CorrelationId: msg.CorrelationId,
		Body:          msg.Body,
		Headers:       headers,
		DeliveryMode:  amqp091.Persistent,
	})
	if err != nil {
		logger.Error("[Queue] Failed to republish message", "queue", target, "err", err)
		if err := msg.Nack(false, true); err != nil {
			logger.Error("[Queue] Failed to nack message", "err", err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
}
