package events

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Publish is a function that publishes a typed event.
type Publish[T any] func(event *T) error

// NewPublishFunc creates a typed publish function for a specific topic.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		return publisher.Publish(topic, message.NewMessage(uuid.NewString(), payload))
	}
}

// NoopPublish returns a publish function that drops every event.
func NoopPublish[T any]() Publish[T] {
	return func(_ *T) error { return nil }
}

// Publisher owns the underlying message publisher lifecycle.
type Publisher struct {
	publisher message.Publisher
}

// NewPublisher wraps a watermill publisher.
func NewPublisher(publisher message.Publisher) *Publisher {
	return &Publisher{publisher: publisher}
}

// RecordWritten returns the publish function for record write events.
func (p *Publisher) RecordWritten() Publish[RecordWritten] {
	return NewPublishFunc[RecordWritten](p.publisher, TopicRecordWritten)
}

// Shutdown closes the underlying publisher.
func (p *Publisher) Shutdown() error {
	return p.publisher.Close()
}
