package infrastructure

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/mq"
)

// MessageHandler processes one message. The context carries the producer's
// trace. Returning an error still commits the offset; poison messages are
// logged, not retried forever.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// KafkaConsumer runs a fetch/handle/commit loop over one reader.
type KafkaConsumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	tracer  trace.Tracer
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func NewKafkaConsumer(reader *kafka.Reader, handler MessageHandler, tracer trace.Tracer) *KafkaConsumer {
	return &KafkaConsumer{reader: reader, handler: handler, tracer: tracer}
}

// Start launches the loop and returns immediately.
func (c *KafkaConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	topic := c.reader.Config().Topic

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Ctx(ctx).Info().Str("topic", topic).Msg("kafka consumer started")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					logger.Ctx(ctx).Info().Str("topic", topic).Msg("kafka consumer shutting down")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("could not fetch message, retrying")
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}

			c.handle(ctx, msg)
			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				logger.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("failed to commit message")
			}
		}
	}()
}

func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message) {
	ctx = mq.ExtractTraceContext(ctx, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "kafka.consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
			attribute.String("messaging.kafka.message.key", string(msg.Key)),
		),
	)
	defer span.End()

	if err := c.handler(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Ctx(ctx).Error().Err(err).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Msg("message handler failed")
	}
}

// Stop cancels the loop, waits for it and closes the reader.
func (c *KafkaConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return c.reader.Close()
}
