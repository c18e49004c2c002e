package amqplog

import "log/slog"

// Queue names a broker queue used as a message destination. The constants
// below cover the well-known destinations; any other non-empty string is a
// valid caller-supplied queue name.
type Queue string

const (
	// QueueLogs receives routine service logs.
	QueueLogs Queue = "logs"
	// QueueAlerts receives records that should page or notify.
	QueueAlerts Queue = "alerts"
	// QueueTraces receives trace output.
	QueueTraces Queue = "traces"
	// QueueEvents receives domain events.
	QueueEvents Queue = "events"
	// QueueBackups receives backup job logs.
	QueueBackups Queue = "backups"
	// QueueReports receives report generation logs.
	QueueReports Queue = "reports"
)

// QueueKey is the attribute key that overrides the destination queue for a
// single record:
//
//	slog.Warn("memory high", amqplog.QueueKey, amqplog.QueueAlerts)
const QueueKey = "queue"

// AllQueueStrings returns the well-known queue names.
func AllQueueStrings() []string {
	return []string{
		string(QueueLogs),
		string(QueueAlerts),
		string(QueueTraces),
		string(QueueEvents),
		string(QueueBackups),
		string(QueueReports),
	}
}

// queueValue extracts a queue name from an attribute value. It accepts both
// string values and [Queue] values; anything else is ignored.
func queueValue(v slog.Value) (Queue, bool) {
	switch v.Kind() {
	case slog.KindString:
		if s := v.String(); s != "" {
			return Queue(s), true
		}
	case slog.KindAny:
		if q, ok := v.Any().(Queue); ok && q != "" {
			return q, true
		}
	}

	return "", false
}
