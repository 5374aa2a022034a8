package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(level string) (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(level, &buf)
	l.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l, &buf
}

// Test that messages below the configured level are dropped
func TestAppLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{level: "debug", want: []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{level: "info", want: []string{"INFO", "WARN", "ERROR"}},
		{level: "WARNING", want: []string{"WARN", "ERROR"}},
		{level: "error", want: []string{"ERROR"}},
		{level: "bogus", want: []string{"INFO", "WARN", "ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, buf := newBufferLogger(tt.level)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e", errors.New("boom"))

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines: %q", len(lines), buf.String())
			}
			for i, lvl := range tt.want {
				if !strings.Contains(lines[i], " "+lvl+": ") {
					t.Errorf("line %d = %q, want level %s", i, lines[i], lvl)
				}
			}
		})
	}
}

// Test the line format with fields and child loggers
func TestAppLogger_Format(t *testing.T) {
	l, buf := newBufferLogger("info")
	l.With("session_id", "s1").Info("Command applied", "op", "addElement", "dangling")

	want := "[2024-01-02 03:04:05] INFO: Command applied session_id=s1 op=addElement\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	l.Error("Save failed", errors.New("disk full"), "key", "k")
	if !strings.Contains(buf.String(), "error=disk full key=k") {
		t.Errorf("got %q", buf.String())
	}
}
