package logger

import (
	"log/slog"
	"time"
)

// Field is a structured key/value pair attached to a log record.
type Field slog.Attr

// String creates a string field.
func String(key, value string) Field {
	return Field(slog.String(key, value))
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field(slog.Int(key, value))
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field(slog.Int64(key, value))
}

// Uint64 creates a uint64 field.
func Uint64(key string, value uint64) Field {
	return Field(slog.Uint64(key, value))
}

// Float64 creates a float64 field.
func Float64(key string, value float64) Field {
	return Field(slog.Float64(key, value))
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field(slog.Bool(key, value))
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field(slog.Duration(key, value))
}

// Any creates a field holding an arbitrary value.
func Any(key string, value any) Field {
	return Field(slog.Any(key, value))
}

// Error creates a field with the conventional "error" key.
// A nil error renders as "<nil>".
func Error(err error) Field {
	if err == nil {
		return Field(slog.String("error", "<nil>"))
	}
	return Field(slog.String("error", err.Error()))
}
