package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "clipcam.log")

	log, err := New(path, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("capture started", zap.String("session_id", "sess-1"))
	log.Debug("hidden")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1 (debug filtered): %q", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry["msg"] != "capture started" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["session_id"] != "sess-1" {
		t.Errorf("session_id = %v", entry["session_id"])
	}
	if _, ok := entry["timestamp"].(string); !ok {
		t.Errorf("timestamp = %v, want ISO8601 string", entry["timestamp"])
	}
}

func TestNewDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipcam.log")

	log, err := New(path, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("permission probe")
	log.Sync()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "permission probe") {
		t.Errorf("debug entry missing: %q", data)
	}
}
