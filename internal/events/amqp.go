package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultExchange = "cinema.events"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type connector func() (publisher, error)

// AMQPEmitter publishes persistent JSON events to a topic exchange, routed by event name.
// It keeps one channel open and dials again once when a publish fails.
type AMQPEmitter struct {
	mu       sync.Mutex
	exchange string
	connect  connector
	current  publisher
	logger   *slog.Logger
}

func NewAMQPEmitter(url, exchange string, logger *slog.Logger) *AMQPEmitter {
	if exchange == "" {
		exchange = DefaultExchange
	}

	return &AMQPEmitter{
		exchange: exchange,
		connect:  dialer(url, exchange),
		logger:   logger,
	}
}

type amqpPublisher struct {
	conn *amqp.Connection
	*amqp.Channel
}

func (p *amqpPublisher) Close() error {
	_ = p.Channel.Close()
	return p.conn.Close()
}

func dialer(url, exchange string) connector {
	return func() (publisher, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, fmt.Errorf("dialing rabbitmq: %w", err)
		}

		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("opening rabbitmq channel: %w", err)
		}

		err = ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
		}

		return &amqpPublisher{conn: conn, Channel: ch}, nil
	}
}

func (e *AMQPEmitter) Emit(ctx context.Context, name string, payload any) error {
	env, err := NewEnvelope(name, payload)
	if err != nil {
		return err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID.String(),
		Timestamp:    env.OccurredAt,
		Type:         name,
		Body:         body,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for attempt := 0; ; attempt++ {
		ch, err := e.channel()
		if err == nil {
			err = ch.PublishWithContext(ctx, e.exchange, name, false, false, msg)
			if err == nil {
				return nil
			}

			e.reset()
		}

		if attempt > 0 || ctx.Err() != nil {
			return fmt.Errorf("publishing %s to rabbitmq: %w", name, err)
		}

		e.logger.Warn("rabbitmq publish failed, reconnecting", "event", name, "error", err)
	}
}

// channel returns the open channel, dialing when there is none. Callers hold e.mu.
func (e *AMQPEmitter) channel() (publisher, error) {
	if e.current != nil && !e.current.IsClosed() {
		return e.current, nil
	}

	e.reset()

	ch, err := e.connect()
	if err != nil {
		return nil, err
	}

	e.current = ch
	return ch, nil
}

func (e *AMQPEmitter) reset() {
	if e.current != nil {
		_ = e.current.Close()
		e.current = nil
	}
}

func (e *AMQPEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reset()
	return nil
}
