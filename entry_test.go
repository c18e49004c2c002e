package amqplog

import (
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("CET", 3600))

	entry := newEntry("svc1", slog.LevelInfo, "started", at)

	assert.Equal(t, "svc1", entry.Service)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "started", entry.Message)
	assert.NotEmpty(t, entry.Hostname)

	ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
	assert.True(t, ts.Equal(at), "timestamp should be the record time in UTC")
}

func TestNewEntryZeroTime(t *testing.T) {
	t.Parallel()

	before := time.Now()
	entry := newEntry("svc1", slog.LevelWarn, "mem high", time.Time{})

	ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
	require.NoError(t, err)
	assert.False(t, ts.Before(before.UTC().Truncate(time.Second)),
		"zero record time should be stamped at formatting time")
}

func TestEntryWireFormat(t *testing.T) {
	t.Parallel()

	entry := newEntry("svc1", slog.LevelError, "boom", time.Now())

	body, err := json.Marshal(entry)
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(body, &m))

	// The JSON keys are a contract with downstream consumers.
	assert.Len(t, m, 5)
	for _, key := range []string{"service_name", "level", "message", "timestamp", "hostname"} {
		assert.Contains(t, m, key)
		assert.NotEmpty(t, m[key])
	}
}

func TestHostname(t *testing.T) {
	t.Parallel()

	got := hostname()
	require.NotEmpty(t, got)

	if h, err := os.Hostname(); err == nil {
		assert.Equal(t, h, got)
	} else {
		assert.Equal(t, unknownHostname, got)
	}
}
