package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/record-service-go/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(_ context.Context, _ *events.RecordWritten) error { return nil }

func TestConsumer_Start(t *testing.T) {
	t.Run("starts successfully", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := events.NewConsumer(sub, events.TopicRecordWritten, okHandler, zap.NewNop())

		err := consumer.Start(context.Background())

		require.NoError(t, err)
		assert.Equal(t, events.TopicRecordWritten, consumer.Topic())
		assert.NoError(t, consumer.Shutdown())
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := events.NewConsumer(sub, events.TopicRecordWritten, okHandler, zap.NewNop())

		err := consumer.Start(context.Background())

		require.Error(t, err)
		assert.NoError(t, consumer.Shutdown(), "shutdown after failed start must not block")
	})

	t.Run("shutdown without start returns immediately", func(t *testing.T) {
		consumer := events.NewConsumer(newMockSubscriber(), events.TopicRecordWritten, okHandler, zap.NewNop())

		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("acks on successful handling", func(t *testing.T) {
		sub := newMockSubscriber()
		received := make(chan *events.RecordWritten, 1)

		consumer := events.NewConsumer(sub, events.TopicRecordWritten,
			func(_ context.Context, event *events.RecordWritten) error {
				received <- event

				return nil
			},
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		defer func() { _ = consumer.Shutdown() }()

		payload, _ := json.Marshal(&events.RecordWritten{ID: 1, Name: "alice"})
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.msgChan <- msg

		select {
		case <-msg.Acked():
			event := <-received
			assert.Equal(t, "alice", event.Name)
		case <-msg.Nacked():
			t.Fatal("message should be acked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}
	})

	t.Run("nacks on handler error", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := events.NewConsumer(sub, events.TopicRecordWritten,
			func(_ context.Context, _ *events.RecordWritten) error {
				return errors.New("handler error")
			},
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		defer func() { _ = consumer.Shutdown() }()

		payload, _ := json.Marshal(&events.RecordWritten{Name: "alice"})
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.msgChan <- msg

		select {
		case <-msg.Nacked():
		case <-msg.Acked():
			t.Fatal("message should be nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for nack")
		}
	})

	t.Run("drops undecodable payloads", func(t *testing.T) {
		sub := newMockSubscriber()
		core, logs := observer.New(zapcore.ErrorLevel)
		called := false

		consumer := events.NewConsumer(sub, events.TopicRecordWritten,
			func(_ context.Context, _ *events.RecordWritten) error {
				called = true

				return nil
			},
			zap.New(core),
		)

		require.NoError(t, consumer.Start(context.Background()))

		msg := message.NewMessage(uuid.NewString(), []byte("not json"))

		sub.msgChan <- msg

		select {
		case <-msg.Acked():
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		require.NoError(t, consumer.Shutdown())
		assert.False(t, called)
		assert.Equal(t, 1, logs.FilterMessage("dropping undecodable event").Len())
	})

	t.Run("stops when subscription channel closes", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := events.NewConsumer(sub, events.TopicRecordWritten, okHandler, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))
		require.NoError(t, sub.Close())

		done := make(chan struct{})

		go func() {
			_ = consumer.Shutdown()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("shutdown blocked")
		}
	})
}

func TestAuditLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := events.AuditLog(zap.New(core))

	require.NoError(t, handler(context.Background(), &events.RecordWritten{ID: 1, Name: "alice", Created: true}))
	require.NoError(t, handler(context.Background(), &events.RecordWritten{ID: 1, Name: "alice"}))

	assert.Equal(t, 1, logs.FilterMessage("record created").Len())
	assert.Equal(t, 1, logs.FilterMessage("record updated").Len())
	assert.Equal(t, "alice", logs.All()[0].ContextMap()["name"])
}
