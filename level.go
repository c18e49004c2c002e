package amqplog

import (
	"errors"
	"log/slog"
	"strings"
)

// Level represents a log severity threshold.
type Level string

const (
	// LevelDebug enables all records.
	LevelDebug Level = "debug"
	// LevelInfo enables info and above.
	LevelInfo Level = "info"
	// LevelWarn enables warnings and errors.
	LevelWarn Level = "warn"
	// LevelError enables errors only.
	LevelError Level = "error"
)

// ErrUnknownLevel indicates an unrecognized log level string.
var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel parses a level string and returns the corresponding [Level].
// Parsing is case-insensitive and accepts "warning" as an alias for "warn".
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}

	return "", ErrUnknownLevel
}

// AllLevelStrings returns all valid level strings.
func AllLevelStrings() []string {
	return []string{
		string(LevelDebug),
		string(LevelInfo),
		string(LevelWarn),
		string(LevelError),
	}
}

// SlogLevel maps l to its [slog.Level]. Aliases are normalized first;
// unknown values map to info so a handler built from an unvalidated Config
// still has a sane threshold.
func (l Level) SlogLevel() slog.Level {
	if parsed, err := ParseLevel(string(l)); err == nil {
		l = parsed
	}

	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}

	return slog.LevelInfo
}
