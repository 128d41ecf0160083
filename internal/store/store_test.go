package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"taskdesk/internal/config"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	dir := t.TempDir()
	sqliteStore, err := OpenSQLite(filepath.Join(dir, "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"file":   NewFileStore(filepath.Join(dir, "files")),
		"sqlite": sqliteStore,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "token"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := s.Put(ctx, "token", "abc"); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, "token", "def"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := s.Get(ctx, "token")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != "def" {
				t.Errorf("expected %q, got %q", "def", got)
			}
			if err := s.Delete(ctx, "token"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := s.Get(ctx, "token"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
			// Deleting again is fine.
			if err := s.Delete(ctx, "token"); err != nil {
				t.Fatalf("second delete: %v", err)
			}
		})
	}
}

func TestStore_InvalidKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "a/b", ".."} {
				if err := s.Put(ctx, key, "x"); err == nil {
					t.Errorf("expected error for key %q", key)
				}
			}
		})
	}
}

func TestFileStore_Permissions(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	if err := s.Put(context.Background(), "token", "secret"); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "token"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestSQLiteStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(ctx, "user", `{"id":"u1"}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Get(ctx, "user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `{"id":"u1"}` {
		t.Errorf("unexpected value %q", got)
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("expected *FileStore, got %T", s)
	}

	cfg.Store = config.StoreSQLite
	s, err = Open(cfg)
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", s)
	}

	cfg.Store = "etcd"
	if _, err := Open(cfg); err == nil {
		t.Error("expected error for unknown store")
	}
}
