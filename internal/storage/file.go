package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
	derrors "github.com/alexisbeaulieu97/designctl/pkg/errors"
)

const fileStoreVersion = "1.0"

// StoreFile is the JSON file format of FileStore.
type StoreFile struct {
	Version string            `json:"version"`
	Items   map[string]string `json:"items"`
}

// FileStore is the device-local Adapter: a JSON document on disk, loaded
// once and rewritten atomically on every SetItem.
type FileStore struct {
	path    string
	mu      sync.RWMutex
	version string
	items   map[string]string
}

// NewFileStore creates a FileStore and loads it from disk. A missing file is
// an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		version: fileStoreVersion,
		items:   make(map[string]string),
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	if err := s.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the store from disk, replacing in-memory items.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var file StoreFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse settings store: %w", err)
	}

	if file.Version != "" {
		s.version = file.Version
	}
	s.items = file.Items
	if s.items == nil {
		s.items = make(map[string]string)
	}

	return nil
}

// GetItem implements ports.Adapter.
func (s *FileStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, derrors.NewStorageError("file", "get", key, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok, nil
}

// SetItem implements ports.Adapter. The in-memory value is only updated when
// the file write succeeds.
func (s *FileStore) SetItem(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return derrors.NewStorageError("file", "set", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.items[key]
	s.items[key] = value
	if err := s.saveLocked(); err != nil {
		if existed {
			s.items[key] = previous
		} else {
			delete(s.items, key)
		}
		return derrors.NewStorageError("file", "set", key, err)
	}
	return nil
}

// Keys returns every stored key in sorted order.
func (s *FileStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// saveLocked writes the store to disk atomically. Callers hold s.mu.
func (s *FileStore) saveLocked() error {
	file := StoreFile{
		Version: s.version,
		Items:   s.items,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings store: %w", err)
	}

	// Write to temporary file first
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

var _ ports.Adapter = (*FileStore)(nil)
