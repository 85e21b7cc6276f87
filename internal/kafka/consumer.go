package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Consumer reads check-in events from one topic as part of a consumer
// group. Messages that do not decode are logged and skipped so a single
// bad payload cannot wedge the group.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       1 << 20,
			MaxWait:        time.Second,
			CommitInterval: time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume delivers decoded check-in events to the handler until the
// context is canceled, the reader fails, or the handler returns an
// error.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, CheckInEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, err := decodeCheckInEvent(msg.Value)
		if err != nil {
			log.Printf("kafka: skipping message at offset %d: %v", msg.Offset, err)
			continue
		}
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func decodeCheckInEvent(data []byte) (CheckInEvent, error) {
	var event CheckInEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return CheckInEvent{}, fmt.Errorf("decode check-in event: %w", err)
	}
	return event, nil
}
