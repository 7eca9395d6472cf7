package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// Logger writes leveled key/value lines:
//
//	2025-01-01T00:00:00Z [LEVEL] msg key=value ...
//
// A nil *Logger is valid and discards everything, so components can take an
// optional logger without guarding every call.
type Logger struct {
	mu  *sync.Mutex
	out *stdlog.Logger
	min Level
	kv  []any
	now func() time.Time
}

// New returns a Logger writing to w, dropping lines below min.
func New(w io.Writer, min Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		mu:  &sync.Mutex{},
		out: stdlog.New(w, "", 0),
		min: min,
		now: time.Now,
	}
}

// Discard returns a Logger that never writes.
func Discard() *Logger {
	return New(io.Discard, LevelError)
}

// ParseLevel maps a config string onto a Level. Unknown values fall back to
// INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// With returns a child logger that appends kv to every line.
func (l *Logger) With(kv ...any) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	child.kv = append(append([]any{}, l.kv...), kv...)
	return &child
}

// Debug logs msg with key/value pairs at DEBUG level.
func (l *Logger) Debug(msg string, kv ...any) {
	l.logWithLevel(LevelDebug, msg, kv...)
}

// Info logs msg with key/value pairs at INFO level.
func (l *Logger) Info(msg string, kv ...any) {
	l.logWithLevel(LevelInfo, msg, kv...)
}

// Error logs msg at ERROR level, adding err as the "err" key when non-nil.
func (l *Logger) Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	l.logWithLevel(LevelError, msg, extended...)
}

func (l *Logger) logWithLevel(level Level, msg string, kv ...any) {
	if l == nil || l.out == nil || !l.enabled(level) {
		return
	}

	var b strings.Builder
	b.WriteString(l.now().Format(time.RFC3339Nano))
	b.WriteString(" [")
	b.WriteString(string(level))
	b.WriteString("] ")
	b.WriteString(msg)
	writeKVs(&b, l.kv)
	writeKVs(&b, kv)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Println(b.String())
}

func (l *Logger) enabled(level Level) bool {
	switch l.min {
	case LevelDebug:
		return true
	case LevelInfo:
		return level == LevelInfo || level == LevelError
	case LevelError:
		return level == LevelError
	default:
		return true
	}
}

// writeKVs expects pairs: key, value, key, value, ...
// A trailing key without a value is ignored.
func writeKVs(b *strings.Builder, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(fmt.Sprint(kv[i+1]))
	}
}
