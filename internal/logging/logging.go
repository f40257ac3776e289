// Package logging builds the structured logger and defines the canonical
// attribute keys shared across packages.
package logging

import (
	"io"
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyRoom       = "room"
	KeyPhase      = "phase"
	KeyPath       = "path"
	KeyCommand    = "command"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// New returns a text logger writing to w. verbose lowers the level from Warn
// to Debug.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Room(name string) slog.Attr      { return slog.String(KeyRoom, name) }
func Phase(name string) slog.Attr     { return slog.String(KeyPhase, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Command(cmd string) slog.Attr    { return slog.String(KeyCommand, cmd) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration converts d to a DurationMS attribute.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d) / float64(time.Millisecond))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
