package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"backend/internal/events"
)

const routingKey = "order.status.changed"

// Publisher forwards lifecycle events to the push-notification collaborator
// over a RabbitMQ topic exchange. It implements events.Sink.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// message is the broker envelope; ID allows consumer-side de-duplication.
type message struct {
	ID      string                `json:"id"`
	Pattern string                `json:"pattern"`
	Data    events.LifecycleEvent `json:"data"`
}

func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %v", err)
	}

	err = channel.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %v", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

func (p *Publisher) Publish(_ context.Context, event events.LifecycleEvent) error {
	body, err := json.Marshal(message{
		ID:      uuid.NewString(),
		Pattern: routingKey,
		Data:    event,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %v", err)
	}

	log.Printf("[NOTIFY] [INFO] publishing %s for order %s", routingKey, event.OrderID)

	err = p.channel.Publish(
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %v", err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
