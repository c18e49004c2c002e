// Package amqplog provides [log/slog] handlers that publish log records to a
// RabbitMQ queue as structured JSON messages.
//
// Each record is serialized as a flat JSON object carrying the service name,
// severity level, message text, an RFC 3339 UTC timestamp, and the local
// hostname. Messages are published to a durable queue with persistent
// delivery, making them suitable for centralized collection by a downstream
// consumer.
//
// Use [New] for a synchronous handler that publishes on the calling
// goroutine, or [NewAsync] for a handler that hands publishing off to a
// single background worker so logging calls never block on network I/O:
//
//	cfg := amqplog.NewConfig()
//	cfg.Service = "billing"
//	if err := cfg.LoadEnv(); err != nil {
//	    // ...
//	}
//
//	handler, err := amqplog.New(cfg)
//	if err != nil {
//	    // ...
//	}
//	defer handler.Close()
//
//	slog.SetDefault(slog.New(handler))
//	slog.Info("service started")
//
// A single record can be routed to a different queue than the handler's
// default by attaching a [QueueKey] attribute:
//
//	slog.Warn("memory high", "queue", amqplog.QueueAlerts)
//
// Publish failures never propagate into the caller's logging path. They are
// reported through an error callback (see [WithErrorHandler]) and the message
// is dropped; delivery is best effort.
package amqplog
