package rabbitmq

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"community-service/internal/logger"
)

const dialTimeout = 30 * time.Second

// dial connects to the broker, retrying with exponential backoff until dialTimeout elapses.
func dial(ctx context.Context, amqpURL string) (*amqp.Connection, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = dialTimeout

	var conn *amqp.Connection
	err := backoff.RetryNotify(func() error {
		c, err := amqp.Dial(amqpURL)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		logger.Warn("rabbitmq dial failed, retrying", "error", err, "wait", wait.String())
	})
	return conn, err
}

// openChannel opens a channel and declares a durable topic exchange on it.
func openChannel(conn *amqp.Connection, exchange string) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		return nil, err
	}
	return ch, nil
}
