package amqplog

import (
	"log/slog"
	"os"
	"time"
)

// unknownHostname is substituted when the local hostname cannot be resolved.
// Formatting must never fail inside a logging call path.
const unknownHostname = "unknown"

// Entry is the wire form of a single log record. It is serialized to JSON
// and published as the message body; the JSON keys are the message contract
// with downstream consumers.
type Entry struct {
	Service   string `json:"service_name"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Hostname  string `json:"hostname"`
}

// newEntry builds an [Entry] for a record emitted by service at time t.
// The timestamp is stamped in UTC at formatting time; a zero t falls back to
// the current time. The hostname is resolved at formatting time.
func newEntry(service string, level slog.Level, message string, t time.Time) Entry {
	if t.IsZero() {
		t = time.Now()
	}

	return Entry{
		Service:   service,
		Level:     level.String(),
		Message:   message,
		Timestamp: t.UTC().Format(time.RFC3339Nano),
		Hostname:  hostname(),
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return unknownHostname
	}

	return h
}
