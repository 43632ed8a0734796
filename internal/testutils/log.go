package testutils

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// LogEntry is one record captured by a LogRecorder, with attribute values rendered as strings.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

type logStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

// LogRecorder is a slog.Handler keeping every record it handles.
type LogRecorder struct {
	store *logStore
	attrs []slog.Attr
}

// NewLogger returns a logger writing into a fresh LogRecorder.
func NewLogger() (*slog.Logger, *LogRecorder) {
	h := &LogRecorder{store: &logStore{}}
	return slog.New(h), h
}

// Enabled implements Handler.Enabled.
func (h *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements Handler.Handle.
func (h *LogRecorder) Handle(_ context.Context, r slog.Record) error {
	e := LogEntry{Level: r.Level, Message: r.Message, Attrs: make(map[string]string)}
	for _, a := range h.attrs {
		e.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.String()
		return true
	})

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.entries = append(h.store.entries, e)
	return nil
}

// WithAttrs implements Handler.WithAttrs.
func (h *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogRecorder{store: h.store, attrs: slices.Concat(h.attrs, attrs)}
}

// WithGroup implements Handler.WithGroup. Groups are flattened.
func (h *LogRecorder) WithGroup(string) slog.Handler {
	return h
}

// Entries returns the captured records at level or above.
func (h *LogRecorder) Entries(level slog.Level) []LogEntry {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	var got []LogEntry
	for _, e := range h.store.entries {
		if e.Level >= level {
			got = append(got, e)
		}
	}
	return got
}
