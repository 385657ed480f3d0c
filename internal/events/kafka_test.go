package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"twitterclone/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writerStub struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *writerStub) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *writerStub) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherWritesKeyedEvent(t *testing.T) {
	w := &writerStub{}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := &KafkaPublisher{writer: w, now: func() time.Time { return at }}

	p.Publish(context.Background(), models.Change{Kind: models.ChangePostLiked, PostID: "p1", AuthorID: "u1", ActorID: "u2"})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "p1", string(w.msgs[0].Key))

	var ev Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, models.ChangePostLiked, ev.Kind)
	assert.Equal(t, "u2", ev.ActorID)
	assert.True(t, at.Equal(ev.OccurredAt))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKeyFallsBackToUser(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "u1", keyFor(models.Change{Kind: models.ChangeFollowToggled, AuthorID: "u1", ActorID: "u2"}))
	assert.Equal(t, "u2", keyFor(models.Change{Kind: models.ChangeProfileUpdated, ActorID: "u2"}))
}

func TestKafkaPublisherSwallowsWriteErrors(t *testing.T) {
	w := &writerStub{err: errors.New("broker down")}
	p := &KafkaPublisher{writer: w, now: time.Now}
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), models.Change{Kind: models.ChangePostCreated, PostID: "p1"})
	})
	assert.Empty(t, w.msgs)
}

func TestNewKafkaPublisherDefaultsTopic(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "")
	kw, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultTopic, kw.Topic)
	require.NoError(t, p.Close())
}
