// Package service provides the RabbitMQ publisher for auth events.
// Failures are logged and returned so that callers can ignore them without
// interrupting the request flow.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/course-backoffice/internal/auth"
	q "github.com/iliyamo/course-backoffice/internal/queue"
)

const dialTimeout = 2 * time.Second

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// QueuePublisher publishes auth events to the durable auth.events queue. It
// keeps one connection open and redials after a failure.
type QueuePublisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
	// dial opens a channel with the queue declared; replaced in tests.
	dial func() (*amqp.Connection, channel, error)
}

var _ auth.EventPublisher = (*QueuePublisher)(nil)

func NewQueuePublisher(url string) *QueuePublisher {
	p := &QueuePublisher{url: url}
	p.dial = p.dialBroker
	return p
}

// Publish sends ev as a persistent JSON message.
func (p *QueuePublisher) Publish(ctx context.Context, ev auth.Event) error {
	body, err := json.Marshal(q.NewAuthEvent(ev))
	if err != nil {
		log.Error().Err(err).Msg("rabbitmq: marshal event failed")
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		conn, ch, err := p.dial()
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq: connect failed")
			return err
		}
		p.conn, p.ch = conn, ch
	}
	if err := p.ch.PublishWithContext(ctx, "", q.AuthQueueName, false, false, pub); err != nil {
		log.Warn().Err(err).Str("event", string(ev.Type)).Msg("rabbitmq: publish failed")
		p.reset()
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *QueuePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func (p *QueuePublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *QueuePublisher) dialBroker() (*amqp.Connection, channel, error) {
	if p.url == "" {
		return nil, nil, errors.New("rabbitmq url not configured")
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	// Idempotent; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(q.AuthQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
