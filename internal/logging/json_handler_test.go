package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func TestJSONHandlerShapesRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(JSONHandler(&buf, "debug"))
	logger.Debug("chunk applied",
		slog.Duration("elapsed", 1500*time.Millisecond),
		slog.Group("cue", slog.Duration("start", 2*time.Second)),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["level"] != "debug" {
		t.Fatalf("got level %v want debug", record["level"])
	}
	if _, ok := record["ts"].(string); !ok {
		t.Fatalf("expected a ts string, got %v", record["ts"])
	}
	if _, ok := record["time"]; ok {
		t.Fatal("time key should be renamed")
	}
	if record["elapsed"] != 1.5 {
		t.Fatalf("got elapsed %v want 1.5", record["elapsed"])
	}
	cue, _ := record["cue"].(map[string]any)
	if cue["start"] != 2.0 {
		t.Fatalf("grouped duration: got %v want 2", cue["start"])
	}
}

func TestJSONHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(JSONHandler(&buf, "warn"))
	logger.Info("relay listening")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn: %s", buf.String())
	}
}

func TestJSONAttrSourceUsesBaseName(t *testing.T) {
	attr := jsonAttr(nil, slog.Any(slog.SourceKey, &slog.Source{File: "/src/subsync/internal/manager/sync.go", Line: 42}))
	if got := attr.Value.String(); got != "sync.go:42" {
		t.Fatalf("got %q want %q", got, "sync.go:42")
	}
}
