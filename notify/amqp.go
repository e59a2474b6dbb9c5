// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPNotifier publishes messages to a durable RabbitMQ queue named after
// the topic. A sender service consumes the queue and fans out to the
// topic's subscribers.
type AMQPNotifier struct {
	conn *amqp.Connection

	mu       sync.Mutex
	ch       *amqp.Channel
	declared map[string]bool
}

// DialAMQP connects to the broker at url
func DialAMQP(url string) (*AMQPNotifier, error) {
	if url == "" {
		return nil, fmt.Errorf("amqp notifier: AMQP_URL is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	return &AMQPNotifier{conn: conn, ch: ch, declared: map[string]bool{}}, nil
}

func (n *AMQPNotifier) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.declared[msg.Topic] {
		if _, err := n.ch.QueueDeclare(msg.Topic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", msg.Topic, err)
		}
		n.declared[msg.Topic] = true
	}

	err = n.ch.PublishWithContext(ctx, "", msg.Topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.SentAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", msg.Topic, err)
	}
	return nil
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ch != nil {
		n.ch.Close()
	}
	return n.conn.Close()
}
