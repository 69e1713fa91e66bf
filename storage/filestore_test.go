package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tailored-agentic-units/turnstate/storage"
)

func TestFileStore_Read_MissingRoot(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "nonexistent"))

	items, err := store.Read(context.Background(), "conversation/msteams/abc")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Read() returned %d items, want 0", len(items))
	}
}

func TestFileStore_Write_Layout(t *testing.T) {
	root := t.TempDir()
	store := storage.NewFileStore(root)

	err := store.Write(context.Background(), map[string]storage.Item{
		"conversation/msteams/abc": {Value: []byte("{}")},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	path := filepath.Join(root, "conversation", "msteams", "abc.json")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s: %v", path, err)
	}
}

func TestFileStore_Write_EscapesTraversal(t *testing.T) {
	root := t.TempDir()
	store := storage.NewFileStore(root)
	key := "user/../../escape"

	if err := store.Write(context.Background(), map[string]storage.Item{key: {Value: []byte("x")}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("write escaped the store root")
	}

	items, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(items[key].Value) != "x" {
		t.Errorf("got value %q, want %q", items[key].Value, "x")
	}
}

func TestFileStore_Write_EmptySegment(t *testing.T) {
	store := storage.NewFileStore(t.TempDir())

	err := store.Write(context.Background(), map[string]storage.Item{"user//alice": {Value: []byte("x")}})
	if !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("got error %v, want ErrInvalidKey", err)
	}
}

func TestFileStore_Read_CorruptFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "user", "test")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "alice.json"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := storage.NewFileStore(root)
	_, err := store.Read(context.Background(), "user/test/alice")
	if !errors.Is(err, storage.ErrLoadFailed) {
		t.Errorf("got error %v, want ErrLoadFailed", err)
	}
}

func TestFileStore_Delete_CleansEmptyDirs(t *testing.T) {
	root := t.TempDir()
	store := storage.NewFileStore(root)
	ctx := context.Background()

	if err := store.Write(ctx, map[string]storage.Item{"conversation/slack/c1": {Value: []byte("x")}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Delete(ctx, "conversation/slack/c1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "conversation")); !os.IsNotExist(err) {
		t.Errorf("empty parent directories should be removed")
	}
}

func TestFileStore_Write_NoTempFilesLeft(t *testing.T) {
	root := t.TempDir()
	store := storage.NewFileStore(root)

	if err := store.Write(context.Background(), map[string]storage.Item{"user/test/bob": {Value: []byte("x")}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "user", "test"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "bob.json" {
			t.Errorf("unexpected file %q", e.Name())
		}
	}
}
