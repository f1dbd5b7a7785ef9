package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"community-service/internal/logger"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type publisher struct {
	amqpURL      string
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	mu           sync.Mutex
}

// NewPublisher connects to RabbitMQ and declares the provided exchange. A channel that
// closes later is reopened on the next Publish.
func NewPublisher(ctx context.Context, amqpURL, exchangeName string) (Publisher, error) {
	p := &publisher{amqpURL: amqpURL, exchangeName: exchangeName}
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *publisher) connect(ctx context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := dial(ctx, p.amqpURL)
		if err != nil {
			return err
		}
		p.conn = conn
	}
	ch, err := openChannel(p.conn, p.exchangeName)
	if err != nil {
		return err
	}
	p.channel = ch
	return nil
}

func (p *publisher) Publish(ctx context.Context, routingKey string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if p.channel == nil || p.channel.IsClosed() {
		if err := p.connect(ctx); err != nil {
			return err
		}
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	return err
}

func (p *publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops events but logs that RabbitMQ is unavailable.
func NewNoopPublisher() Publisher { return &noopPublisher{} }

func (n *noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	logger.Debug("rabbitmq not configured, dropping event", "routing_key", routingKey)
	return nil
}

func (n *noopPublisher) Close() error { return nil }
