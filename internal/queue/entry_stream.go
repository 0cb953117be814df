package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// EntryStream publishes EntryRecordedEvent to Kafka, keyed by booking so a
// booking's entries stay ordered within a partition.  A stream built
// without brokers accepts and drops every event.
type EntryStream struct {
	producer sarama.SyncProducer
	topic    string
}

// NewEntryStream connects a synchronous producer.  With no brokers it
// returns a disabled stream and no error.
func NewEntryStream(brokers []string, topic string) (*EntryStream, error) {
	if len(brokers) == 0 {
		return &EntryStream{topic: topic}, nil
	}
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 5 * time.Second
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewEntryStreamWithProducer(p, topic), nil
}

// NewEntryStreamWithProducer wraps an existing producer.
func NewEntryStreamWithProducer(p sarama.SyncProducer, topic string) *EntryStream {
	return &EntryStream{producer: p, topic: topic}
}

// Enabled reports whether events actually leave the process.
func (s *EntryStream) Enabled() bool { return s != nil && s.producer != nil }

// PublishEntry sends ev.  The call blocks until the broker acknowledges.
func (s *EntryStream) PublishEntry(_ context.Context, ev EntryRecordedEvent) error {
	if !s.Enabled() {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal entry event: %w", err)
	}
	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     s.topic,
		Key:       sarama.StringEncoder(ev.BookingID),
		Value:     sarama.ByteEncoder(body),
		Timestamp: time.Now().UTC(),
	})
	return err
}

// Close releases the producer.
func (s *EntryStream) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.producer.Close()
}
