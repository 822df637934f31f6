package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subsync/internal/config"
	"subsync/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("relay listening", logging.String("bind", "127.0.0.1:7610"))

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &record); err != nil {
		t.Fatalf("expected one JSON record in log file, got %q: %v", content, err)
	}
	if record["msg"] != "relay listening" || record["bind"] != "127.0.0.1:7610" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Outputs: []string{logPath, logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := readLog(t, logPath); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if content := readLog(t, logPath); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-subject.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithPeer(logging.WithRoom(context.Background(), "lobby"), "alice")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "manager"))
	logger.Info("chunk sent",
		logging.Int(logging.FieldChunkCount, 3),
		logging.Int(logging.FieldChunkIndex, 1),
		logging.Bool("locked", true),
	)

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO [manager] lobby · alice – chunk sent") {
		t.Fatalf("unexpected header: %q", content)
	}
	indexPos := strings.Index(content, "chunk_index: 1")
	countPos := strings.Index(content, "chunk_count: 3")
	if indexPos < 0 || countPos < 0 || indexPos > countPos {
		t.Fatalf("expected highlighted chunk fields in order, got %q", content)
	}
	if !strings.Contains(content, "locked: yes") {
		t.Fatalf("expected friendly boolean, got %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("gap", logging.Int64(logging.FieldSyncID, 42))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
	if record[logging.FieldSyncID] != float64(42) {
		t.Fatalf("expected sync_id 42, got %v", record[logging.FieldSyncID])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "chunk rejected", "sync_gap", logging.Impact("chunk dropped"))
	logging.WarnWithContext(nil, "ignored", "noop")

	content := readLog(t, logPath)
	for _, want := range []string{`"event_type":"sync_gap"`, `"error_hint":"see the status line for details"`, `"impact":"chunk dropped"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
}
