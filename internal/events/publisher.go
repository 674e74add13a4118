// Package events publishes batch lifecycle notifications so downstream
// consumers can react to finished uploads without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ecomledger/internal/domain"

	"github.com/segmentio/kafka-go"
)

// Publisher emits a notification after a batch has been staged.
type Publisher interface {
	PublishBatchIngested(ctx context.Context, event domain.BatchIngestedEvent) error
	Close() error
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes events to a Kafka topic. Pure-Go client
// (segmentio/kafka-go).
type KafkaPublisher struct {
	writer kafkaMessageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

// NewKafkaPublisherWith is only for tests to inject a fake writer.
func NewKafkaPublisherWith(w kafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishBatchIngested(ctx context.Context, event domain.BatchIngestedEvent) error {
	payload, err := json.Marshal(&event)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return p.writer.WriteMessages(
		ctx,
		kafka.Message{Key: []byte(event.BatchID), Value: payload},
	)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishBatchIngested(_ context.Context, event domain.BatchIngestedEvent) error {
	log.Printf("[EVENTS] Kafka disabled, dropping batch ingested event for %s", event.BatchID)
	return nil
}

func (NopPublisher) Close() error { return nil }
