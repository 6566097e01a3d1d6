package realtime

import (
	"context"
	"fmt"

	"github.com/apex/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the fanout exchange new issues are published on.
const DefaultExchange = "civicsync.issues"

// AMQPSubscriber reads events from a fanout exchange through an exclusive
// queue that lives as long as the connection.
type AMQPSubscriber struct {
	URL      string
	Exchange string
}

func (s *AMQPSubscriber) Name() string { return "amqp" }

// Dial connects, binds a private queue and forwards message bodies.
func (s *AMQPSubscriber) Dial(ctx context.Context) (<-chan []byte, error) {
	exchange := s.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, EventNewIssue, exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to consume: %w", err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					log.WithField("queue", q.Name).Warn("amqp deliveries closed")
					return
				}
				select {
				case out <- d.Body:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
