package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/ledger/infra/eventbus"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/segmentio/kafka-go"
)

// RunSmokeTest publishes a ledger record event through the Kafka event bus
// and waits for the bus consumer to receive it, verifying a local cluster.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9092"
	}
	topic := strings.TrimSpace(os.Getenv("TOPIC"))
	if topic == "" {
		topic = "ledger.events.smoketest"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Create the topic if it doesn't exist
	dialer := &kafka.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", strings.Split(brokers, ",")[0])
	if err != nil {
		logger.Error("dial failed", "error", err)
		return err
	}
	err = conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	_ = conn.Close()
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		logger.Error("create topic failed", "topic", topic, "error", err)
		return err
	}

	bus, err := eventbus.NewWithKafka(strings.Split(brokers, ","), topic, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	want := events.TransactionRecorded{
		TransactionID:   "smoke-" + time.Now().Format("20060102150405.000000000"),
		AccountNumber:   "1000000001",
		TransactionType: "USE",
		Result:          "SUCCESS",
		Amount:          1000,
		BalanceSnapshot: 9000,
		TransactedAt:    time.Now().UTC(),
	}

	received := make(chan string, 16)
	bus.Register(events.EventTypeTransactionRecorded.String(), func(_ context.Context, e events.Event) error {
		if rec, ok := e.(*events.TransactionRecorded); ok {
			received <- rec.TransactionID
		}
		return nil
	})

	// The consumer group starts at the newest offset, so keep publishing
	// until it has joined and picked one up.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		if err := bus.Emit(ctx, want); err != nil {
			logger.Error("emit failed", "error", err)
			return err
		}
		logger.Info("produced", "topic", topic, "transaction_id", want.TransactionID)

		select {
		case id := <-received:
			logger.Info("consumed", "transaction_id", id)
			if id == want.TransactionID {
				logger.Info("kafka smoke test passed")
				return nil
			}
		case <-ticker.C:
		case <-ctx.Done():
			return errors.New("timed out waiting for the published event")
		}
	}
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
