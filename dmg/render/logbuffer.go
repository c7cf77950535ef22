package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEntry is a formatted log record.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

func (e LogEntry) String() string {
	var level string
	switch {
	case e.Level >= slog.LevelError:
		level = "ERR"
	case e.Level >= slog.LevelWarn:
		level = "WRN"
	case e.Level >= slog.LevelInfo:
		level = "INF"
	default:
		level = "DBG"
	}
	return fmt.Sprintf("%s [%s] %s", e.Time.Format("15:04:05"), level, e.Message)
}

// LogBuffer keeps the most recent log entries so the terminal can show them
// below the screen instead of writing over it. Safe for concurrent use.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	index   int
	count   int
}

// NewLogBuffer creates a buffer holding up to size entries.
func NewLogBuffer(size int) *LogBuffer {
	return &LogBuffer{entries: make([]LogEntry, size)}
}

// Add stores an entry, overwriting the oldest one when full.
func (lb *LogBuffer) Add(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.entries[lb.index] = entry
	lb.index = (lb.index + 1) % len(lb.entries)
	if lb.count < len(lb.entries) {
		lb.count++
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (lb *LogBuffer) Recent(n int) []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	count := lb.count
	if n > 0 && n < count {
		count = n
	}

	result := make([]LogEntry, count)
	size := len(lb.entries)
	for i := 0; i < count; i++ {
		result[i] = lb.entries[(lb.index-1-i+size)%size]
	}
	return result
}

// Handler returns a slog handler writing records at or above level into lb.
func (lb *LogBuffer) Handler(level slog.Leveler) slog.Handler {
	return &logBufferHandler{buffer: lb, level: level}
}

type logBufferHandler struct {
	buffer *LogBuffer
	level  slog.Leveler
	prefix string // formatted attributes from WithAttrs
	group  string
}

func (h *logBufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *logBufferHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)
	sb.WriteString(h.prefix)
	record.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&sb, a)
		return true
	})

	h.buffer.Add(LogEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: sb.String(),
	})
	return nil
}

func (h *logBufferHandler) writeAttr(sb *strings.Builder, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	sb.WriteByte(' ')
	if h.group != "" {
		sb.WriteString(h.group)
		sb.WriteByte('.')
	}
	fmt.Fprintf(sb, "%s=%v", a.Key, a.Value)
}

func (h *logBufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	var sb strings.Builder
	sb.WriteString(h.prefix)
	for _, a := range attrs {
		h.writeAttr(&sb, a)
	}
	next.prefix = sb.String()
	return &next
}

func (h *logBufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if next.group != "" {
		next.group += "." + name
	} else {
		next.group = name
	}
	return &next
}
