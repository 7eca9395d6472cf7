package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedLogger(buf *bytes.Buffer, min Level) *Logger {
	l := New(buf, min)
	l.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return l
}

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelInfo)

	l.Info("layout built", "cells", 35, "view", "month")

	want := "2025-01-01T00:00:00Z [INFO] layout built cells=35 view=month\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelError)

	l.Debug("hidden")
	l.Info("hidden")
	l.Error("shown", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] shown err=boom") {
		t.Fatalf("expected error line, got %q", out)
	}
}

func TestWithAppendsContext(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelDebug).With("source", "work")

	l.Debug("fetched", "events", 3, "dangling")

	if !strings.HasSuffix(buf.String(), "fetched source=work events=3\n") {
		t.Fatalf("unexpected line: %q", buf.String())
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	l.Info("nothing")
	l.Error("nothing", errors.New("x"))
	if l.With("k", "v") != nil {
		t.Fatalf("expected nil child from nil logger")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":  LevelDebug,
		" ERROR": LevelError,
		"info":   LevelInfo,
		"":       LevelInfo,
		"trace":  LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}
