// Package logging provides the structured log sink shared by every
// component. Every non-InvalidInput error surfaced by an operation is
// expected to pass through here with key/value pairs, not a formatted
// sentence.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

var std = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// SetLevel adjusts verbosity; accepted values mirror charmbracelet/log's.
func SetLevel(lvl log.Level) {
	std.SetLevel(lvl)
}

func Debug(msg string, kv ...any) { std.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { std.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { std.Warn(msg, kv...) }
func Error(msg string, kv ...any) { std.Error(msg, kv...) }
func Fatal(msg string, kv ...any) { std.Fatal(msg, kv...) }

// With returns a child logger carrying the given key/value pairs on
// every subsequent call, mirroring charmbracelet/log's sub-logger idiom.
func With(kv ...any) *log.Logger {
	return std.With(kv...)
}
