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
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEventBus implements a Kafka-backed event bus. Events are written to
// one topic keyed by account number, so records of one account keep their
// order within a partition.
type KafkaEventBus struct {
	brokers []string
	topic   string
	groupID string
	writer  messageWriter
	logger  *slog.Logger

	mechanism sasl.Mechanism

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	readers []*kafka.Reader
	mu      sync.Mutex
}

// KafkaOption customizes the Kafka connection.
type KafkaOption func(*KafkaEventBus)

// WithSASLPlain authenticates the writer and every reader with SASL/PLAIN.
// An empty username leaves authentication off.
func WithSASLPlain(username, password string) KafkaOption {
	return func(b *KafkaEventBus) {
		if username == "" {
			return
		}
		b.mechanism = plain.Mechanism{Username: username, Password: password}
	}
}

// NewWithKafka creates a new Kafka-backed event bus.
func NewWithKafka(brokers []string, topic string, logger *slog.Logger, opts ...KafkaOption) (*KafkaEventBus, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("kafka event bus: topic is required")
	}
	bus := newKafkaEventBus(brokers, topic, nil, logger)
	for _, opt := range opts {
		opt(bus)
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}
	if bus.mechanism != nil {
		writer.Transport = &kafka.Transport{SASL: bus.mechanism}
	}
	bus.writer = writer
	return bus, nil
}

func newKafkaEventBus(brokers []string, topic string, writer messageWriter, logger *slog.Logger) *KafkaEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &KafkaEventBus{
		brokers: brokers,
		topic:   topic,
		groupID: "ledger",
		writer:  writer,
		logger:  logger.With("bus", "kafka", "topic", topic),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Emit publishes an event to Kafka.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	envBytes, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(partitionKey(event)),
		Value: envBytes,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type())},
		},
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

// Register starts a consumer group reader for eventType.
func (b *KafkaEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.groupID + "." + strings.ToLower(eventType),
		Topic:       b.topic,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		Dialer:      b.dialer(),
	})
	b.mu.Lock()
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			msg, err := reader.FetchMessage(b.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || b.ctx.Err() != nil {
					return
				}
				b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
				time.Sleep(500 * time.Millisecond)
				continue
			}
			b.process(eventType, msg.Value, handler)
			if err := reader.CommitMessages(b.ctx, msg); err != nil {
				b.logger.Error("kafka commit error", "error", err, "offset", msg.Offset)
			}
		}
	}()
}

// dialer returns nil when no authentication is configured, which makes the
// reader fall back to kafka-go's default dialer.
func (b *KafkaEventBus) dialer() *kafka.Dialer {
	if b.mechanism == nil {
		return nil
	}
	return &kafka.Dialer{
		Timeout:       10 * time.Second,
		DualStack:     true,
		SASLMechanism: b.mechanism,
	}
}

func (b *KafkaEventBus) process(eventType string, raw []byte, handler eventbus.HandlerFunc) {
	evt, err := decodeEnvelope(raw)
	if err != nil {
		b.logger.Error("failed to decode event", "error", err)
		return
	}
	if evt.Type() != eventType {
		return
	}
	if err := handler(b.ctx, evt); err != nil {
		b.logger.Error("handler error", "error", err, "event_type", eventType)
	}
}

// Close stops consumers and flushes the writer.
func (b *KafkaEventBus) Close() error {
	b.cancel()
	b.mu.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.mu.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

func partitionKey(event events.Event) string {
	switch e := event.(type) {
	case events.TransactionRecorded:
		return e.AccountNumber
	case events.AccountOpened:
		return e.AccountNumber
	case events.AccountClosed:
		return e.AccountNumber
	}
	return event.Type()
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
