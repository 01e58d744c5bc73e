package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// RedisEventBus implements the Bus interface using a single Redis Stream.
// Each registered event type reads through its own consumer group, so every
// type sees every message and skips the ones it does not handle.
type RedisEventBus struct {
	client redis.UniversalClient
	stream string
	block  time.Duration
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis creates a new Redis-backed event bus writing to stream.
func NewWithRedis(client redis.UniversalClient, stream string, logger *slog.Logger) (*RedisEventBus, error) {
	if stream == "" {
		return nil, fmt.Errorf("redis event bus: stream is required")
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		stream: stream,
		block:  5 * time.Second,
		logger: logger.With("bus", "redis", "stream", stream),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Emit publishes an event to the Redis stream.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	envBytes, err := encodeEnvelope(event)
	if err != nil {
		b.logger.Error("failed to encode event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: %w", err)
	}

	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(envBytes)},
	}).Err(); err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}

	b.logger.Debug("event emitted", "type", event.Type())
	return nil
}

// Register starts a consumer group for eventType and calls handler for each
// matching event until Close.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	group := groupNameFor(eventType)
	consumer := fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	err := b.client.XGroupCreateMkStream(b.ctx, b.stream, group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		b.logger.Error("failed to create consumer group", "error", err, "group", group)
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for b.ctx.Err() == nil {
			b.consume(eventType, group, consumer, handler)
		}
	}()
	b.logger.Info("handler registered", "event_type", eventType, "group", group)
}

func (b *RedisEventBus) consume(eventType, group, consumer string, handler eventbus.HandlerFunc) {
	res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{b.stream, ">"},
		Count:    10,
		Block:    b.block,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && b.ctx.Err() == nil {
			b.logger.Error("error reading from stream", "error", err, "group", group)
			time.Sleep(time.Second)
		}
		return
	}

	for _, stream := range res {
		for _, msg := range stream.Messages {
			b.handle(eventType, msg, handler)
			if err := b.client.XAck(b.ctx, b.stream, group, msg.ID).Err(); err != nil {
				b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
			}
		}
	}
}

func (b *RedisEventBus) handle(eventType string, msg redis.XMessage, handler eventbus.HandlerFunc) {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		return
	}
	evt, err := decodeEnvelope([]byte(raw))
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "msg_id", msg.ID)
		b.pushToDLQ(msg.Values)
		return
	}
	if evt.Type() != eventType {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic recovered", "panic", r, "event_type", eventType)
			b.pushToDLQ(msg.Values)
		}
	}()
	if err := handler(b.ctx, evt); err != nil {
		b.logger.Error("handler error", "error", err, "event_type", eventType)
		b.pushToDLQ(msg.Values)
	}
}

// pushToDLQ pushes the raw event to a DLQ stream for inspection or reprocessing.
func (b *RedisEventBus) pushToDLQ(values map[string]any) {
	dlqStream := b.stream + "-DLQ"
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{
		Stream: dlqStream,
		Values: values,
	}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlqStream)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlqStream)
}

// Close stops all consumers.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}

func groupNameFor(eventType string) string {
	return "group:" + strings.ToLower(eventType)
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
