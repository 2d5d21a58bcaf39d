package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-reconciler/internal/config"
)

// requestHandler defines the interface for handling reconcile request messages.
type requestHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// Consumer reads reconcile requests from Kafka and hands them to the handler.
type Consumer struct {
	Client         *wbfkafka.Consumer
	requestHandler requestHandler
	topic          string
	strategy       retry.Strategy
}

// New creates a new Consumer for the requests topic.
// - cfg: Kafka configuration struct
// - s: retry strategy
// - rh: handler for reconcile request messages
func New(cfg *config.Kafka, s retry.Strategy, rh requestHandler) *Consumer {
	return &Consumer{
		Client:         wbfkafka.NewConsumer(cfg.Brokers, cfg.RequestsTopic, cfg.GroupID),
		requestHandler: rh,
		topic:          cfg.RequestsTopic,
		strategy:       s,
	}
}

// Consume continuously fetches messages from Kafka, processes them using the handler,
// and commits offsets after successful processing. It stops gracefully on context cancellation.
func (c *Consumer) Consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().
		Str("topic", c.topic).
		Msg("starting consumer")

	for {
		// Exit if context is canceled (graceful shutdown).
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping consumer")
			return
		}

		// Fetch a message from Kafka with retries.
		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.Client.Fetch(ctx)
			return fetchErr
		}, c.strategy)

		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			// Log error and retry after a short backoff.
			zlog.Logger.Err(err).Msg("failed to fetch message")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		// Process message using the requestHandler.
		if err := c.requestHandler.Handle(ctx, msg); err != nil {
			zlog.Logger.Err(err).
				Str("message", string(msg.Value)).
				Msg("failed to process reconcile request")
			continue
		}

		// Commit the message with retries.
		err = retry.Do(func() error {
			return c.Client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Msg("failed to commit message after retries")
		}

		zlog.Logger.Info().
			Int64("offset", msg.Offset).
			Msg("reconcile request handled")
	}
}
