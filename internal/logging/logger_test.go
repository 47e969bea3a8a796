package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newBufferedLogger(buf *bytes.Buffer) *Logger {
	l := New(&Config{Level: "INFO", Component: "test", JSONFormat: true})
	l.output = buf
	return l
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v (%q)", err, buf.String())
	}
	return entry
}

func TestMessageEmittedVerbatim(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferedLogger(&buf)

	// Percent signs in the message must survive untouched even when
	// key-value arguments are present.
	l.Info("disk usage at 95% on /var", "host", "lic-db-1")

	entry := decodeEntry(t, &buf)
	if entry.Message != "disk usage at 95% on /var" {
		t.Errorf("message mangled: got %q", entry.Message)
	}
	if entry.Fields["host"] != "lic-db-1" {
		t.Errorf("host field missing, fields: %v", entry.Fields)
	}
}

func TestKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferedLogger(&buf)

	l.Info("license renewed", "license_id", "abc-123", "attempts", 2)

	entry := decodeEntry(t, &buf)
	if entry.Fields["license_id"] != "abc-123" {
		t.Errorf("license_id missing, fields: %v", entry.Fields)
	}
	// JSON numbers decode as float64
	if entry.Fields["attempts"] != float64(2) {
		t.Errorf("attempts missing, fields: %v", entry.Fields)
	}
}

func TestErrorValuesUnwrapped(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferedLogger(&buf)

	l.Error("renewal failed", "error", errors.New("connection refused"))

	entry := decodeEntry(t, &buf)
	if entry.Fields["error"] != "connection refused" {
		t.Errorf("error not unwrapped to its message, fields: %v", entry.Fields)
	}
}

func TestOddTrailingArgument(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferedLogger(&buf)

	l.Warn("unexpected value", "leftover")

	entry := decodeEntry(t, &buf)
	if entry.Fields["extra"] != "leftover" {
		t.Errorf("unpaired argument not captured under extra, fields: %v", entry.Fields)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferedLogger(&buf)

	l.Debug("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("debug line written at INFO level: %q", buf.String())
	}

	l.Info("should pass")
	if !strings.Contains(buf.String(), "should pass") {
		t.Errorf("info line missing: %q", buf.String())
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferedLogger(&buf)
	child := parent.WithField("run_id", "r1")

	parent.Info("parent line")
	entry := decodeEntry(t, &buf)
	if _, ok := entry.Fields["run_id"]; ok {
		t.Errorf("child field leaked into parent, fields: %v", entry.Fields)
	}

	buf.Reset()
	child.Info("child line")
	entry = decodeEntry(t, &buf)
	if entry.Fields["run_id"] != "r1" {
		t.Errorf("child field missing, fields: %v", entry.Fields)
	}
}
