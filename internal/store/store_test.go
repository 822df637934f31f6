package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"subsync/internal/store"
	"subsync/internal/testsupport"
)

func TestSetGetDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("get missing: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "look", "fs:56"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, " look ", "fs:60"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := s.Get(ctx, "look")
	if err != nil || !ok || value != "fs:60" {
		t.Fatalf("get = %q ok=%v err=%v", value, ok, err)
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "look" || entries[0].UpdatedAt.IsZero() {
		t.Fatalf("entries = %+v", entries)
	}

	if err := s.Delete(ctx, "look"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "look"); ok {
		t.Fatal("key should be gone")
	}
	if err := s.Set(ctx, "  ", "x"); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if value, ok, _ := reopened.Get(context.Background(), "k"); !ok || value != "v" {
		t.Fatalf("value after reopen = %q", value)
	}
	if want := filepath.Join(cfg.Paths.StateDir, store.FileName); reopened.Path() != want {
		t.Fatalf("path = %q want %q", reopened.Path(), want)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE schema_version (version INTEGER NOT NULL); INSERT INTO schema_version VALUES (99);"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	db.Close()

	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
