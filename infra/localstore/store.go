package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a JSON-file backed key-value store. Values are loaded once and
// every write rewrites the file atomically.
type FileStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	values map[string]string
}

// NewFileStore creates a store persisted at path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}
	s.values = make(map[string]string)
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("reading local store: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.values); err != nil {
			return fmt.Errorf("parsing local store: %w", err)
		}
	}
	s.loaded = true
	return nil
}

func (s *FileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding local store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing local store: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Load reads the file eagerly so a corrupt store surfaces at startup.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) GetString(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) SetString(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	s.values[key] = value
	return s.flush()
}

func (s *FileStore) GetBool(key string) bool {
	v, ok := s.GetString(key)
	return ok && v == "true"
}

func (s *FileStore) SetBool(key string, value bool) error {
	if !value {
		return s.Delete(key)
	}
	return s.SetString(key, "true")
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	s.loaded = true
	return s.flush()
}

// MemoryStore is an in-process store for tests and ephemeral sessions.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) GetString(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) SetString(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) GetBool(key string) bool {
	v, ok := s.GetString(key)
	return ok && v == "true"
}

func (s *MemoryStore) SetBool(key string, value bool) error {
	if !value {
		return s.Delete(key)
	}
	return s.SetString(key, "true")
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}

// Keys used across the app.
const (
	KeyFeedMode = "feed.mode"
)

// VotedKey is the per-item "have I voted" flag.
func VotedKey(itemID string) string {
	return "voted." + itemID
}
