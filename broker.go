package amqplog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrConnect indicates the broker could not be reached or the
	// destination queue could not be declared.
	ErrConnect = errors.New("broker connect")
	// ErrPublish indicates the broker rejected or failed a publish.
	ErrPublish = errors.New("broker publish")
	// ErrDropped indicates an entry was discarded without a publish
	// attempt, e.g. because the async buffer was full.
	ErrDropped = errors.New("entry dropped")
)

// Publisher delivers serialized log entries to a destination queue.
//
// Implementations must guarantee the queue exists as a durable queue before
// the message is published, and must be safe for concurrent use.
type Publisher interface {
	// Publish sends body to the named queue with persistent delivery.
	Publish(ctx context.Context, queue Queue, body []byte) error
	// Close releases the underlying connection.
	Close() error
}

// brokerChannel is the slice of [amqp.Channel] the broker uses. Narrowing it
// to an interface keeps the declare/publish sequence testable without a
// running broker.
type brokerChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Broker is a [Publisher] backed by a RabbitMQ connection. All publishes
// share one channel; amqp channels are not safe for concurrent use, so
// access is serialized with a mutex.
//
// Create instances with [Dial].
type Broker struct {
	mu   sync.Mutex
	conn io.Closer
	ch   brokerChannel
}

// Dial connects to the broker described by cfg and opens a channel.
// Connection failures are classified as [ErrConnect].
func Dial(cfg *Config) (*Broker, error) {
	conn, err := amqp.Dial(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnect, cfg.Host, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		//nolint:errcheck // The channel error is the one worth reporting.
		conn.Close()
		return nil, fmt.Errorf("%w: open channel: %w", ErrConnect, err)
	}

	return &Broker{conn: conn, ch: ch}, nil
}

// Publish declares queue as durable, then publishes body to it on the
// default exchange with persistent delivery. The declaration is idempotent
// and repeated on every call so a previously unseen queue always exists
// before its first message.
func (b *Broker) Publish(ctx context.Context, queue Queue, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.ch.QueueDeclare(string(queue), true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%w: declare queue %q: %w", ErrConnect, queue, err)
	}

	err = b.ch.PublishWithContext(ctx, "", string(queue), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%w: queue %q: %w", ErrPublish, queue, err)
	}

	return nil
}

// Close closes the channel and connection. Safe to call more than once;
// errors from an already-closed connection are not reported again.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	if err := b.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("closing channel: %w", err))
	}

	if err := b.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("closing connection: %w", err))
	}

	return errors.Join(errs...)
}
