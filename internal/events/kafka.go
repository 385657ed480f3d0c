// Package events streams committed changes to Kafka for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"twitterclone/internal/middleware"
	"twitterclone/internal/models"
	"twitterclone/internal/observability"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "twitterclone.events"

// Event is the message value written for each change.
type Event struct {
	models.Change
	OccurredAt time.Time `json:"occurredAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per change, keyed by post id, falling
// back to the affected user.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w, now: time.Now}
}

// Publish never fails the caller; delivery problems are logged and counted.
func (p *KafkaPublisher) Publish(ctx context.Context, change models.Change) {
	value, err := json.Marshal(Event{Change: change, OccurredAt: p.now().UTC()})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "encode change event", "kind", change.Kind, "error", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(keyFor(change)),
		Value: value,
		Time:  p.now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		observability.ChangesPublished.WithLabelValues(string(change.Kind), "kafka_error").Inc()
		middleware.Logger.WarnContext(ctx, "kafka publish failed", "kind", change.Kind, "error", err)
		return
	}
	observability.ChangesPublished.WithLabelValues(string(change.Kind), "kafka").Inc()
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func keyFor(change models.Change) string {
	switch {
	case change.PostID != "":
		return change.PostID
	case change.AuthorID != "":
		return change.AuthorID
	default:
		return change.ActorID
	}
}

// Nop drops every change. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, models.Change) {}

func (Nop) Close() error { return nil }
