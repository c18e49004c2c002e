package amqplog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Option configures a [Handler] or [AsyncHandler].
type Option func(*options)

type options struct {
	onError   func(error)
	queueSize int
}

const defaultQueueSize = 256

func newOptions(opts []Option) options {
	o := options{
		onError: func(err error) {
			fmt.Fprintln(os.Stderr, "amqplog:", err)
		},
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithErrorHandler sets the callback invoked when a record cannot be
// published. It is called exactly once per failed record and must not log
// through a handler from this package. The default writes one line to
// stderr.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.onError = fn
		}
	}
}

// WithQueueSize sets the in-memory buffer size used by [NewAsync].
// Values less than 1 are clamped to 1. Synchronous handlers ignore it.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}

		o.queueSize = n
	}
}

// Handler is a synchronous [slog.Handler] that publishes each record to a
// RabbitMQ queue. Handle blocks the calling goroutine for the duration of
// the publish round trip, so per-goroutine emission order is preserved on
// the wire. Publish failures are reported through the error callback and
// never surface to the logging caller.
//
// Create instances with [New] or [NewWithPublisher].
type Handler struct {
	pub     Publisher
	service string
	queue   Queue
	level   slog.Level
	onError func(error)
	inGroup bool
}

// New validates cfg, dials the broker, and returns a connected [Handler].
func New(cfg *Config, opts ...Option) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	broker, err := Dial(cfg)
	if err != nil {
		return nil, err
	}

	return NewWithPublisher(broker, cfg, opts...), nil
}

// NewWithPublisher returns a [Handler] that delivers records through pub.
// It is the constructor to use with a custom transport, and with recording
// publishers in tests.
func NewWithPublisher(pub Publisher, cfg *Config, opts ...Option) *Handler {
	o := newOptions(opts)

	return &Handler{
		pub:     pub,
		service: cfg.Service,
		queue:   cfg.Queue,
		level:   cfg.Level.SlogLevel(),
		onError: o.onError,
	}
}

// Enabled reports whether records at level meet the configured threshold.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle publishes the record on the calling goroutine. It always returns
// nil: failures are reported through the error callback and the record is
// dropped.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	body, queue, err := h.capture(record)
	if err != nil {
		h.onError(err)
		return nil
	}

	if err := h.pub.Publish(ctx, queue, body); err != nil {
		h.onError(err)
	}

	return nil
}

// capture resolves the effective destination queue and serializes the
// record into its wire form. It touches the record only before returning,
// so callers may defer the publish without racing later mutation.
func (h *Handler) capture(record slog.Record) ([]byte, Queue, error) {
	queue := h.queue
	if !h.inGroup {
		record.Attrs(func(a slog.Attr) bool {
			if a.Key != QueueKey {
				return true
			}

			q, ok := queueValue(a.Value)
			if !ok {
				return true
			}

			queue = q

			return false
		})
	}

	entry := newEntry(h.service, record.Level, record.Message, record.Time)

	body, err := json.Marshal(entry)
	if err != nil {
		return nil, "", fmt.Errorf("%w: marshal entry: %w", ErrDropped, err)
	}

	return body, queue, nil
}

// WithAttrs returns a handler that treats a [QueueKey] attribute as its new
// default destination. Other attributes do not change the wire payload,
// which carries a fixed set of fields.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	if !h.inGroup {
		for _, a := range attrs {
			if a.Key != QueueKey {
				continue
			}

			if q, ok := queueValue(a.Value); ok {
				h2.queue = q
			}
		}
	}

	return &h2
}

// WithGroup returns a handler whose grouped attributes are inert: a
// [QueueKey] attribute inside a group is payload metadata for some other
// consumer, not a routing instruction.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	h2 := *h
	h2.inGroup = true

	return &h2
}

// Close releases the underlying publisher. Handlers derived via WithAttrs
// or WithGroup share the publisher; closing any of them closes all.
func (h *Handler) Close() error {
	return h.pub.Close()
}
