package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the bridge uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaBridge forwards bus events to a Kafka topic, keyed by the event key
// so events about one aggregate stay ordered.
type KafkaBridge struct {
	w MessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaBridge(w MessageWriter) *KafkaBridge {
	return &KafkaBridge{w: w}
}

// Handle is an event.Handler.
func (k *KafkaBridge) Handle(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("event/kafka: marshal %s: %w", e.Name, err)
	}
	msg := kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Name)},
			{Key: "event_id", Value: []byte(e.ID)},
		},
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("event/kafka: write %s: %w", e.Name, err)
	}
	return nil
}

func (k *KafkaBridge) Close() error { return k.w.Close() }
