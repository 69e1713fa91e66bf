package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExt = ".json"

type fileStore struct {
	root string
	mu   sync.Mutex
}

// record is the on-disk envelope for one item.
type record struct {
	ETag  string `json:"etag"`
	Value []byte `json:"value"`
}

// NewFileStore creates a Store backed by the filesystem. Each key maps to one
// JSON file under root; key segments separated by "/" become directories.
// Conditional writes are serialized within the process only.
func NewFileStore(root string) Store {
	return &fileStore{root: root}
}

func (s *fileStore) Read(ctx context.Context, keys ...string) (map[string]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make(map[string]Item, len(keys))
	for _, key := range keys {
		item, ok, err := s.load(key)
		if err != nil {
			return nil, err
		}
		if ok {
			items[key] = item
		}
	}
	return items, nil
}

func (s *fileStore) Write(ctx context.Context, changes map[string]Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, change := range changes {
		current, exists, err := s.load(key)
		if err != nil {
			return err
		}
		if exists && !change.Unconditional() && change.ETag != current.ETag {
			return &ConflictError{Key: key, ExpectedETag: change.ETag, CurrentETag: current.ETag}
		}
		if err := s.save(key, record{ETag: newETag(), Value: change.Value}); err != nil {
			return err
		}
	}
	return nil
}

func (s *fileStore) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		path, err := s.path(key)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete failed: %s: %w", key, err)
		}

		dir := filepath.Dir(path)
		for dir != s.root {
			if err := os.Remove(dir); err != nil {
				break
			}
			dir = filepath.Dir(dir)
		}
	}
	return nil
}

func (s *fileStore) load(key string) (Item, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return Item{}, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Item{}, false, nil
		}
		return Item{}, false, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Item{}, false, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
	}
	return Item{Value: rec.Value, ETag: rec.ETag}, true, nil
}

func (s *fileStore) save(key string, rec record) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}
	return nil
}

// path maps a key onto a file under root. Segments are escaped so identity
// fields cannot climb out of the root or collide with temp files.
func (s *fileStore) path(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	segments := strings.Split(key, "/")
	for i, seg := range segments {
		if seg == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		seg = url.PathEscape(seg)
		if strings.HasPrefix(seg, ".") {
			seg = "%2E" + seg[1:]
		}
		segments[i] = seg
	}
	segments[len(segments)-1] += fileExt

	return filepath.Join(append([]string{s.root}, segments...)...), nil
}
