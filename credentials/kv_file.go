package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/go-bank-backoffice/internal/errors"
)

// FileKV keeps every key in a single JSON document on disk. Writes go to a
// temporary file that is renamed over the original.
type FileKV struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

var _ KeyValue = (*FileKV)(nil)

// NewFileKV opens (or creates) the JSON document at path.
func NewFileKV(path string) (*FileKV, error) {
	f := &FileKV{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("[NewFileKV] read %s: %w", path, err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.values); err != nil {
			return nil, fmt.Errorf("[NewFileKV] decode %s: %w", path, err)
		}
	}
	return f, nil
}

func (f *FileKV) Get(_ context.Context, key string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.values[key]
	if !ok {
		return "", apperrors.ErrKeyNotFound
	}
	return v, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value
	return f.flush()
}

func (f *FileKV) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, k := range keys {
		delete(f.values, k)
	}
	return f.flush()
}

// flush must be called with the write lock held.
func (f *FileKV) flush() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileKV] encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("[FileKV] mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("[FileKV] temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileKV] write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileKV] close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("[FileKV] rename: %w", err)
	}
	return nil
}
