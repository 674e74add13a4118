package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ecomledger/internal/domain"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	messages []kafka.Message
	writeErr error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishBatchIngested(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewKafkaPublisherWith(writer)

	event := domain.BatchIngestedEvent{
		BatchID:    "ORD_20240315_120000_0042",
		RecordType: domain.RecordTypeOrders,
		RowCount:   17,
		FileName:   "orders.csv",
		FileSize:   2048,
		IngestedAt: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}

	if err := publisher.PublishBatchIngested(context.Background(), event); err != nil {
		t.Fatalf("PublishBatchIngested failed: %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.messages))
	}
	message := writer.messages[0]
	if string(message.Key) != event.BatchID {
		t.Errorf("expected batch id key, got %q", message.Key)
	}

	var decoded domain.BatchIngestedEvent
	if err := json.Unmarshal(message.Value, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.BatchID != event.BatchID || decoded.RowCount != 17 {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestPublishBatchIngestedPropagatesWriteError(t *testing.T) {
	writer := &fakeWriter{writeErr: errors.New("broker unavailable")}
	publisher := NewKafkaPublisherWith(writer)

	err := publisher.PublishBatchIngested(context.Background(), domain.BatchIngestedEvent{BatchID: "PAY_1"})
	if err == nil {
		t.Fatal("expected write error surfaced")
	}
}

func TestCloseClosesWriter(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewKafkaPublisherWith(writer)

	if err := publisher.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !writer.closed {
		t.Error("expected underlying writer closed")
	}
}
