package amqplog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// AsyncHandler is an [slog.Handler] that publishes records from a single
// background worker so logging calls never block on network I/O.
//
// Handle captures the record synchronously (destination queue resolved,
// entry serialized) and enqueues the result onto a bounded buffer. One
// dedicated worker drains the buffer, which both preserves enqueue order on
// the wire and keeps the amqp channel free of concurrent use. When the
// buffer is full the record is dropped and reported through the error
// callback; delivery is best effort.
//
// Create instances with [NewAsync] or [NewAsyncWithPublisher].
type AsyncHandler struct {
	base  *Handler
	state *asyncState
}

type asyncJob struct {
	queue Queue
	body  []byte
}

// asyncState is shared between an AsyncHandler and every handler derived
// from it via WithAttrs or WithGroup, so derived handlers feed the same
// worker.
type asyncState struct {
	mu     sync.Mutex
	jobs   chan asyncJob
	done   chan struct{}
	closed bool

	closeOnce sync.Once
	closeErr  error
}

// NewAsync validates cfg, dials the broker, and returns a connected
// [AsyncHandler] with its worker running.
func NewAsync(cfg *Config, opts ...Option) (*AsyncHandler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	broker, err := Dial(cfg)
	if err != nil {
		return nil, err
	}

	return NewAsyncWithPublisher(broker, cfg, opts...), nil
}

// NewAsyncWithPublisher returns an [AsyncHandler] that delivers records
// through pub, with the buffer size from [WithQueueSize].
func NewAsyncWithPublisher(pub Publisher, cfg *Config, opts ...Option) *AsyncHandler {
	o := newOptions(opts)

	h := &AsyncHandler{
		base: NewWithPublisher(pub, cfg, opts...),
		state: &asyncState{
			jobs: make(chan asyncJob, o.queueSize),
			done: make(chan struct{}),
		},
	}

	go h.run()

	return h
}

func (h *AsyncHandler) run() {
	defer close(h.state.done)

	for j := range h.state.jobs {
		if err := h.base.pub.Publish(context.Background(), j.queue, j.body); err != nil {
			h.base.onError(err)
		}
	}
}

// Enabled reports whether records at level meet the configured threshold.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle captures the record and enqueues it for the background worker,
// returning before the publish happens. It always returns nil; enqueue
// failures are reported through the error callback.
func (h *AsyncHandler) Handle(_ context.Context, record slog.Record) error {
	body, queue, err := h.base.capture(record)
	if err != nil {
		h.base.onError(err)
		return nil
	}

	if err := h.state.enqueue(asyncJob{queue: queue, body: body}); err != nil {
		h.base.onError(err)
	}

	return nil
}

// WithAttrs returns a handler that treats a [QueueKey] attribute as its new
// default destination, sharing this handler's worker and buffer.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	base, _ := h.base.WithAttrs(attrs).(*Handler)

	return &AsyncHandler{base: base, state: h.state}
}

// WithGroup returns a handler whose grouped [QueueKey] attributes no longer
// act as routing overrides, sharing this handler's worker and buffer.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	base, _ := h.base.WithGroup(name).(*Handler)

	return &AsyncHandler{base: base, state: h.state}
}

// Close stops intake, waits for the worker to drain buffered records, and
// releases the publisher. Records enqueued before Close are published;
// records handled after Close are dropped and reported. Idempotent.
func (h *AsyncHandler) Close() error {
	h.state.closeOnce.Do(func() {
		h.state.mu.Lock()
		h.state.closed = true
		close(h.state.jobs)
		h.state.mu.Unlock()

		<-h.state.done
		h.state.closeErr = h.base.pub.Close()
	})

	// Later callers still wait for the drain to finish.
	<-h.state.done

	return h.state.closeErr
}

func (s *asyncState) enqueue(j asyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: handler closed, queue %q", ErrDropped, j.queue)
	}

	select {
	case s.jobs <- j:
		return nil
	default:
		return fmt.Errorf("%w: buffer full, queue %q", ErrDropped, j.queue)
	}
}
