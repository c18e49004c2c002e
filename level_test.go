package amqplog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amqplog/amqplog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input       string
		expected    amqplog.Level
		expectError bool
	}{
		"debug level": {
			input:    "debug",
			expected: amqplog.LevelDebug,
		},
		"info level": {
			input:    "info",
			expected: amqplog.LevelInfo,
		},
		"warn level": {
			input:    "warn",
			expected: amqplog.LevelWarn,
		},
		"warning alias": {
			input:    "warning",
			expected: amqplog.LevelWarn,
		},
		"error level": {
			input:    "error",
			expected: amqplog.LevelError,
		},
		"case insensitive": {
			input:    "INFO",
			expected: amqplog.LevelInfo,
		},
		"unknown level": {
			input:       "verbose",
			expected:    "",
			expectError: true,
		},
		"empty": {
			input:       "",
			expected:    "",
			expectError: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			lvl, err := amqplog.ParseLevel(tc.input)
			if tc.expectError {
				require.Error(t, err)
				require.ErrorIs(t, err, amqplog.ErrUnknownLevel)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, lvl)
			}
		})
	}
}

func TestAllLevelStrings(t *testing.T) {
	t.Parallel()

	for _, s := range amqplog.AllLevelStrings() {
		_, err := amqplog.ParseLevel(s)
		assert.NoError(t, err, "level %q should round-trip through ParseLevel", s)
	}
}
