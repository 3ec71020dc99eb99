package rabbitmq

import (
	"context"
	"os"
	"testing"
	"time"

	"onlyfails/internal/models"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() models.Event {
	return models.Event{
		ID:         uuid.New().String(),
		Type:       models.EventProductVoted,
		ActorID:    "user-1",
		ProductID:  "product-1",
		Attributes: map[string]string{"voteType": "up"},
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncodeDecode(t *testing.T) {
	event := sampleEvent()

	msg, err := Encode(event)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, event.Type, msg.Type)
	assert.Equal(t, event.ID, msg.MessageId)

	decoded, err := Decode(amqp.Delivery{Body: msg.Body, MessageId: msg.MessageId})
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode(amqp.Delivery{Body: []byte("{not json"), MessageId: "m-1"})
	assert.ErrorContains(t, err, "m-1")
}

// TestPublishConsume talks to a real broker and only runs when RABBITMQ_URL is set.
func TestPublishConsume(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}

	client, err := NewClient(Config{URL: url})
	require.NoError(t, err)
	defer client.Close()

	event := sampleEvent()
	require.NoError(t, client.Publish(context.Background(), event))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan models.Event, 1)
	go func() {
		_ = client.ConsumeEvents(ctx, func(e models.Event) error {
			if e.ID == event.ID {
				received <- e
			}
			return nil
		})
	}()

	select {
	case got := <-received:
		assert.Equal(t, event.Type, got.Type)
	case <-ctx.Done():
		t.Fatal("event was not consumed")
	}
}
