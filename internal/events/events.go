// Package events publishes domain events about accounts, routes and favorites.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Event types.
const (
	AccountRegistered = "account.registered"
	RouteCreated      = "route.created"
	RouteDeleted      = "route.deleted"
	FavoriteAdded     = "favorite.added"
	FavoriteRemoved   = "favorite.removed"
)

// Event is one state change, published after its transaction committed.
type Event struct {
	Type          string    `json:"type"`
	AccountID     string    `json:"account_id,omitempty"`
	RouteID       uint      `json:"route_id,omitempty"`
	FavoriteCount *int64    `json:"favorite_count,omitempty"`
	At            time.Time `json:"at"`
}

// Subject is the id the event is about: the route when there is one, else the account.
func (e Event) Subject() string {
	if e.RouteID != 0 {
		return strconv.FormatUint(uint64(e.RouteID), 10)
	}
	return e.AccountID
}

// Publisher delivers events. Implementations must not block the caller on broker outages.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// KafkaPublisher writes events to a Kafka topic.
type KafkaPublisher struct {
	w *kafka.Writer
}

// NewKafkaPublisher creates an asynchronous writer for topic. Delivery failures are logged.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logrus.WithError(err).WithField("messages", len(messages)).Warn("events: kafka delivery failed")
			}
		},
	}
	return &KafkaPublisher{w: w}
}

// Publish queues e for delivery.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := newMessage(e)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// newMessage keys messages as "<type>.<subject>", e.g. "route.created.42".
func newMessage(e Event) (kafka.Message, error) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("events: marshal %s: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.Type + "." + e.Subject()),
		Value: value,
		Time:  e.At,
	}, nil
}
