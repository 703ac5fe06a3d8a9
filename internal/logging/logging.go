// Package logging provides structured logging shared by every node role,
// grounded on postalsys-Muti-Metroo's internal/logging package: a thin
// wrapper choosing between a text and a JSON slog.Handler.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a structured logger with the given level and format.
// Supported levels: debug, info, warn, error. Supported formats: text, json.
func New(level, format string) *slog.Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter is New with an explicit writer, used by tests that want to
// capture log output.
func NewWithWriter(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Nop returns a logger that discards all output, for tests that don't care
// about log lines.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ForNode returns a logger tagged with this node's role and id, so every
// line it emits is prefixed the way spec §6 requires ("human-readable
// status lines prefixed by role and id").
func ForNode(base *slog.Logger, role string, id uint8) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("role", role, "node_id", id)
}

// Common attribute keys for consistent structured logging across packages.
const (
	KeyNodeID        = "node_id"
	KeyRole          = "role"
	KeyPacketKind    = "packet_kind"
	KeyFloodID       = "flood_id"
	KeySessionID     = "session_id"
	KeyNeighbor      = "neighbor"
	KeyFragmentIndex = "fragment_index"
	KeyError         = "error"
)
