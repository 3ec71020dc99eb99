package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"onlyfails/internal/logger"
	"onlyfails/internal/models"

	amqp "github.com/streadway/amqp"
)

// EventQueue is the durable queue every domain event is published to.
const EventQueue = "failed_product_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp.Channel is not safe for concurrent publishes.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ, opens a channel and declares EventQueue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declareQueue(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Log.Infow("RabbitMQ client connected", "queue", EventQueue)

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		EventQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare %s: %w", EventQueue, err)
	}
	return q, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Encode marshals an event into a persistent AMQP message.
func Encode(event models.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         event.Type,
		MessageId:    event.ID,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
	}, nil
}

// Decode parses a delivered message back into an event.
func Decode(msg amqp.Delivery) (models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event %s: %w", msg.MessageId, err)
	}
	return event, nil
}

// Publish sends event to EventQueue through the default exchange.
func (c *Client) Publish(ctx context.Context, event models.Event) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := Encode(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.channel.Publish("", EventQueue, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}
	return nil
}

// ConsumeEvents delivers every message of EventQueue to handler until ctx is
// cancelled or the channel closes. A handler error nacks the message without
// requeueing it, so a poison message cannot loop forever.
func (c *Client) ConsumeEvents(ctx context.Context, handler func(models.Event) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declareQueue(c.channel)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			handleDelivery(msg, handler)
		}
	}
}

func handleDelivery(msg amqp.Delivery, handler func(models.Event) error) {
	event, err := Decode(msg)
	if err == nil {
		err = handler(event)
	}
	if err != nil {
		logger.Log.Errorw("failed to process event", "delivery_tag", msg.DeliveryTag, "err", err)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			logger.Log.Errorw("failed to nack event", "delivery_tag", msg.DeliveryTag, "err", nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		logger.Log.Errorw("failed to ack event", "delivery_tag", msg.DeliveryTag, "err", ackErr)
	}
}

// LogEvent is the handler used by the events command: it writes each event to
// the structured log.
func LogEvent(event models.Event) error {
	logger.Log.Infow("event",
		"id", event.ID,
		"type", event.Type,
		"actor_id", event.ActorID,
		"product_id", event.ProductID,
		"attributes", event.Attributes,
		"occurred_at", event.OccurredAt.Format(time.RFC3339),
	)
	return nil
}
