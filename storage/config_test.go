package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/turnstate/storage"
)

func TestDefaultConfig(t *testing.T) {
	cfg := storage.DefaultConfig()

	if cfg.Backend != storage.BackendMemory {
		t.Errorf("got Backend %q, want %q", cfg.Backend, storage.BackendMemory)
	}
	if cfg.Retry.MaxRetries != 0 {
		t.Errorf("got MaxRetries %d, want 0", cfg.Retry.MaxRetries)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := storage.DefaultConfig()

	source := &storage.Config{
		Backend: storage.BackendFile,
		Path:    "/data/state",
		Retry:   storage.RetryConfig{MaxRetries: 3},
	}
	cfg.Merge(source)

	if cfg.Backend != storage.BackendFile {
		t.Errorf("got Backend %q, want %q", cfg.Backend, storage.BackendFile)
	}
	if cfg.Path != "/data/state" {
		t.Errorf("got Path %q, want %q", cfg.Path, "/data/state")
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("got MaxRetries %d, want 3", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.InitialInterval != 50*time.Millisecond {
		t.Errorf("got InitialInterval %v, want preserved default", cfg.Retry.InitialInterval)
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr error
	}{
		{name: "default memory", cfg: storage.Config{}},
		{name: "file", cfg: storage.Config{Backend: storage.BackendFile, Path: t.TempDir()}},
		{name: "sqlite", cfg: storage.Config{Backend: storage.BackendSQLite, Path: filepath.Join(t.TempDir(), "s.db")}},
		{name: "unknown", cfg: storage.Config{Backend: "redis"}, wantErr: storage.ErrUnknownStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := storage.NewStore(context.Background(), &tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			defer storage.Close(s)

			if _, err := s.Read(context.Background(), "k"); err != nil {
				t.Errorf("Read() error = %v", err)
			}
		})
	}
}

func TestNewStore_FileRequiresPath(t *testing.T) {
	_, err := storage.NewStore(context.Background(), &storage.Config{Backend: storage.BackendFile})
	if err == nil {
		t.Error("expected error for file backend without path")
	}
}
